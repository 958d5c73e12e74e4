//go:build linux

package destination

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const x86CPUInfo = `processor	: 0
vendor_id	: GenuineIntel
model name	: Intel(R) Xeon(R) CPU E5-2680 v4 @ 2.40GHz
cpu MHz		: 2399.998
physical id	: 0
cpu cores	: 2
flags		: fpu vme de pse

processor	: 1
vendor_id	: GenuineIntel
model name	: Intel(R) Xeon(R) CPU E5-2680 v4 @ 2.40GHz
cpu MHz		: 2401.112
physical id	: 0
cpu cores	: 2
flags		: fpu vme de pse

processor	: 2
vendor_id	: GenuineIntel
model name	: Intel(R) Xeon(R) CPU E5-2680 v4 @ 2.40GHz
cpu MHz		: 2399.998
physical id	: 1
cpu cores	: 2

processor	: 3
vendor_id	: GenuineIntel
model name	: Intel(R) Xeon(R) CPU E5-2680 v4 @ 2.40GHz
cpu MHz		: 2399.998
physical id	: 1
cpu cores	: 2
`

const armCPUInfo = `processor	: 0
BogoMIPS	: 108.00
Features	: fp asimd evtstrm
CPU implementer	: 0x41

processor	: 1
BogoMIPS	: 108.00
Features	: fp asimd evtstrm
CPU implementer	: 0x41
`

func TestParseCPUInfo(t *testing.T) {
	fp, err := parseCPUInfo(strings.NewReader(x86CPUInfo))
	require.NoError(t, err)
	assert.Equal(t, Fingerprint{
		CPUCount:                   2,
		CPUKind:                    "Intel(R) Xeon(R) CPU E5-2680 v4 @ 2.40GHz",
		CPUSpeedInMHz:              2399,
		LogicalCPUCoresPerPackage:  2,
		PhysicalCPUCoresPerPackage: 2,
	}, fp)
}

func TestParseCPUInfoWithoutPackageInformation(t *testing.T) {
	fp, err := parseCPUInfo(strings.NewReader(armCPUInfo))
	require.NoError(t, err)
	assert.Equal(t, 1, fp.CPUCount)
	assert.Equal(t, 2, fp.LogicalCPUCoresPerPackage)
	assert.Equal(t, 0, fp.CPUSpeedInMHz)
}

func TestParseCPUInfoMalformed(t *testing.T) {
	testCases := []string{
		"",
		"processor	: 0\nthis line has no separator\n",
		"processor	: 0\ncpu MHz	: fast\n",
		"processor	: 0\ncpu cores	: many\n",
	}
	for _, content := range testCases {
		_, err := parseCPUInfo(strings.NewReader(content))
		assert.ErrorIs(t, err, ErrMalformedCPUInfo, content)
	}
}

func TestProcfsProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cpuinfo")
	require.NoError(t, os.WriteFile(path, []byte(x86CPUInfo), 0o644))

	p := &procfsProvider{cpuInfoPath: path, cpuMaxFreqPath: filepath.Join(t.TempDir(), "missing")}
	a, err := p.Fingerprint()
	require.NoError(t, err)
	b, err := p.Fingerprint()
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
	assert.Equal(t, 2399, a.CPUSpeedInMHz)
	assert.True(t, strings.HasPrefix(a.Platform, "Linux "))
	assert.NotEmpty(t, a.Arch)

	_, err = (&procfsProvider{cpuInfoPath: filepath.Join(t.TempDir(), "missing")}).Fingerprint()
	assert.Error(t, err)
}

func TestProcfsProviderPrefersMaxFrequency(t *testing.T) {
	dir := t.TempDir()
	info := filepath.Join(dir, "cpuinfo")
	freq := filepath.Join(dir, "cpuinfo_max_freq")
	require.NoError(t, os.WriteFile(info, []byte(x86CPUInfo), 0o644))
	require.NoError(t, os.WriteFile(freq, []byte("3300000\n"), 0o644))

	fp, err := (&procfsProvider{cpuInfoPath: info, cpuMaxFreqPath: freq}).Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, 3300, fp.CPUSpeedInMHz)
}
