//go:build linux

package destination

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

var ErrMalformedCPUInfo = errors.New("malformed cpuinfo")

const (
	cpuInfoPath    = "/proc/cpuinfo"
	cpuMaxFreqPath = "/sys/devices/system/cpu/cpu0/cpufreq/cpuinfo_max_freq"
)

// procfsProvider reads the CPU description from procfs and the kernel
// identification from uname(2).
type procfsProvider struct {
	cpuInfoPath    string
	cpuMaxFreqPath string
}

func platformProvider() Provider {
	return &procfsProvider{cpuInfoPath: cpuInfoPath, cpuMaxFreqPath: cpuMaxFreqPath}
}

func (p *procfsProvider) Fingerprint() (Fingerprint, error) {
	f, err := os.Open(p.cpuInfoPath)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("unable to read %s: %w", p.cpuInfoPath, err)
	}
	defer f.Close()

	fp, err := parseCPUInfo(f)
	if err != nil {
		return Fingerprint{}, err
	}
	// "cpu MHz" follows frequency scaling, the cpufreq maximum does not.
	if mhz, ok := readMaxFrequency(p.cpuMaxFreqPath); ok {
		fp.CPUSpeedInMHz = mhz
	}

	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return Fingerprint{}, fmt.Errorf("uname failed: %w", err)
	}
	fp.Platform = unix.ByteSliceToString(uts.Sysname[:]) + " " + unix.ByteSliceToString(uts.Release[:])
	fp.Arch = unix.ByteSliceToString(uts.Machine[:])
	return fp, nil
}

// readMaxFrequency reads a cpufreq frequency file, expressed in kHz.
func readMaxFrequency(path string) (int, bool) {
	if path == "" {
		return 0, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	khz, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || khz <= 0 {
		return 0, false
	}
	return khz / 1000, true
}

// parseCPUInfo extracts the CPU attributes of a fingerprint from the content of
// /proc/cpuinfo. Platform and Arch are left empty.
func parseCPUInfo(r io.Reader) (Fingerprint, error) {
	var (
		fp         Fingerprint
		packages   = map[string]struct{}{}
		processors int
	)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			return Fingerprint{}, fmt.Errorf("%w: %q", ErrMalformedCPUInfo, line)
		}
		key, value := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		switch key {
		case "processor":
			processors++
		case "physical id":
			packages[value] = struct{}{}
		case "model name", "Processor", "Hardware":
			if fp.CPUKind == "" {
				fp.CPUKind = value
			}
		case "cpu MHz":
			if fp.CPUSpeedInMHz == 0 {
				mhz, err := strconv.ParseFloat(value, 64)
				if err != nil {
					return Fingerprint{}, fmt.Errorf("%w: cpu MHz %q", ErrMalformedCPUInfo, value)
				}
				fp.CPUSpeedInMHz = int(mhz)
			}
		case "cpu cores":
			if fp.LogicalCPUCoresPerPackage == 0 {
				cores, err := strconv.Atoi(value)
				if err != nil {
					return Fingerprint{}, fmt.Errorf("%w: cpu cores %q", ErrMalformedCPUInfo, value)
				}
				fp.LogicalCPUCoresPerPackage = cores
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return Fingerprint{}, err
	}
	if processors == 0 {
		return Fingerprint{}, fmt.Errorf("%w: no processor entries", ErrMalformedCPUInfo)
	}

	fp.CPUCount = len(packages)
	if fp.CPUCount == 0 {
		fp.CPUCount = 1
	}
	if fp.LogicalCPUCoresPerPackage == 0 {
		fp.LogicalCPUCoresPerPackage = processors / fp.CPUCount
	}
	// procfs does not tell logical and physical cores apart per package.
	fp.PhysicalCPUCoresPerPackage = fp.LogicalCPUCoresPerPackage
	return fp, nil
}
