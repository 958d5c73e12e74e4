//go:build darwin

package destination

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// sysctlProvider reads the fingerprint attributes through sysctl(3).
type sysctlProvider struct{}

func platformProvider() Provider {
	return sysctlProvider{}
}

func (sysctlProvider) Fingerprint() (Fingerprint, error) {
	var (
		fp  Fingerprint
		err error
	)
	str := func(name string) string {
		if err != nil {
			return ""
		}
		var v string
		if v, err = unix.Sysctl(name); err != nil {
			err = fmt.Errorf("cannot read %s using sysctl: %w", name, err)
		}
		return v
	}
	u64 := func(name string) uint64 {
		if err != nil {
			return 0
		}
		var v uint64
		if v, err = unix.SysctlUint64(name); err != nil {
			err = fmt.Errorf("cannot read %s using sysctl: %w", name, err)
		}
		return v
	}
	u32 := func(name string) uint32 {
		if err != nil {
			return 0
		}
		var v uint32
		if v, err = unix.SysctlUint32(name); err != nil {
			err = fmt.Errorf("cannot read %s using sysctl: %w", name, err)
		}
		return v
	}

	fp.BusSpeedInMHz = int(u64("hw.busfrequency") / 1_000_000)
	fp.CPUCount = int(u32("hw.packages"))
	fp.CPUKind = str("machdep.cpu.brand_string")
	fp.CPUSpeedInMHz = int(u64("hw.cpufrequency") / 1_000_000)
	fp.ModelCode = str("hw.model")
	fp.Arch = str("hw.machine")
	fp.LogicalCPUCoresPerPackage = int(u32("machdep.cpu.cores_per_package"))
	fp.PhysicalCPUCoresPerPackage = int(u32("hw.physicalcpu"))
	osName := str("kern.ostype")
	osRelease := str("kern.osrelease")
	fp.Platform = osName + " " + osRelease
	if err != nil {
		return Fingerprint{}, err
	}
	return fp, nil
}
