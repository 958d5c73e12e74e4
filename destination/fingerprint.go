// Package destination identifies the machine a benchmark ran on and maps it
// to a stable identifier under which its baselines are stored.
package destination

import (
	"sync"
)

// Fingerprint describes the hardware and operating system of a run destination.
// Two fingerprints taken on the same machine compare equal. Attributes a
// platform cannot report are left at their zero value.
type Fingerprint struct {
	BusSpeedInMHz              int    `yaml:"busSpeedInMHz,omitempty"`
	CPUCount                   int    `yaml:"cpuCount"`
	CPUKind                    string `yaml:"cpuKind"`
	CPUSpeedInMHz              int    `yaml:"cpuSpeedInMHz"`
	LogicalCPUCoresPerPackage  int    `yaml:"logicalCPUCoresPerPackage"`
	ModelCode                  string `yaml:"modelCode,omitempty"`
	PhysicalCPUCoresPerPackage int    `yaml:"physicalCPUCoresPerPackage"`
	Platform                   string `yaml:"platform"`
	Arch                       string `yaml:"arch"`
}

func (f Fingerprint) Equal(other Fingerprint) bool {
	return f == other
}

// Provider returns the fingerprint of the executing machine.
type Provider interface {
	Fingerprint() (Fingerprint, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func() (Fingerprint, error)

func (f ProviderFunc) Fingerprint() (Fingerprint, error) {
	return f()
}

var (
	currentOnce sync.Once
	current     Fingerprint
	currentErr  error
)

// Current returns the fingerprint of this machine as reported by the platform
// provider. The value is computed once per process.
func Current() (Fingerprint, error) {
	currentOnce.Do(func() {
		current, currentErr = platformProvider().Fingerprint()
	})
	return current, currentErr
}

// CurrentProvider exposes Current as a Provider.
var CurrentProvider Provider = ProviderFunc(Current)
