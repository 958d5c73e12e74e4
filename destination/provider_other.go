//go:build !linux && !darwin

package destination

import (
	"runtime"
)

// runtimeProvider is used on platforms without a dedicated introspection
// source. It only knows what the Go runtime reports.
type runtimeProvider struct{}

func platformProvider() Provider {
	return runtimeProvider{}
}

func (runtimeProvider) Fingerprint() (Fingerprint, error) {
	return Fingerprint{
		CPUCount:                   1,
		CPUKind:                    "unknown",
		LogicalCPUCoresPerPackage:  runtime.NumCPU(),
		PhysicalCPUCoresPerPackage: runtime.NumCPU(),
		Platform:                   runtime.GOOS,
		Arch:                       runtime.GOARCH,
	}, nil
}
