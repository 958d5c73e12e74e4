package destination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	laptop = Fingerprint{
		CPUCount:                   1,
		CPUKind:                    "Intel(R) Core(TM) i7-8559U CPU @ 2.70GHz",
		CPUSpeedInMHz:              2700,
		LogicalCPUCoresPerPackage:  8,
		PhysicalCPUCoresPerPackage: 4,
		Platform:                   "Darwin 19.0.0",
		Arch:                       "x86_64",
		BusSpeedInMHz:              100,
		ModelCode:                  "MacBookPro15,2",
	}
	ciRunner = Fingerprint{
		CPUCount:                   2,
		CPUKind:                    "AMD EPYC 7763 64-Core Processor",
		CPUSpeedInMHz:              3243,
		LogicalCPUCoresPerPackage:  2,
		PhysicalCPUCoresPerPackage: 2,
		Platform:                   "Linux 6.5.0-1025-azure",
		Arch:                       "x86_64",
	}
)

func TestFingerprintEquality(t *testing.T) {
	a := laptop
	b := laptop
	c := laptop
	assert.True(t, a.Equal(a))
	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(a))
	assert.True(t, b.Equal(c))
	assert.True(t, a.Equal(c))

	other := laptop
	other.CPUSpeedInMHz = 2701
	assert.False(t, laptop.Equal(other))
	assert.False(t, laptop.Equal(ciRunner))
}

func TestRegistryFind(t *testing.T) {
	r := Registry{
		"B2A4C6E8-0000-0000-0000-000000000002": ciRunner,
		"A1B2C3D4-0000-0000-0000-000000000001": laptop,
	}

	id, ok := r.Find(laptop)
	require.True(t, ok)
	assert.Equal(t, "A1B2C3D4-0000-0000-0000-000000000001", id)

	again, ok := r.Find(laptop)
	require.True(t, ok)
	assert.Equal(t, id, again)

	other := ciRunner
	other.Platform = "Linux 6.8.0-1010-azure"
	_, ok = r.Find(other)
	assert.False(t, ok)

	_, ok = Registry{}.Find(laptop)
	assert.False(t, ok)
}

func TestRegistryFindDuplicatesIsStable(t *testing.T) {
	r := Registry{"ZZZ": laptop, "AAA": laptop, "MMM": laptop}
	for i := 0; i < 10; i++ {
		id, ok := r.Find(laptop)
		require.True(t, ok)
		assert.Equal(t, "AAA", id)
	}
}

func TestRegistryInsert(t *testing.T) {
	r := Registry{}
	require.NoError(t, r.Insert("one", laptop))
	require.NoError(t, r.Insert("one", laptop))
	err := r.Insert("one", ciRunner)
	assert.ErrorIs(t, err, ErrIdentifierConflict)
	assert.Equal(t, laptop, r["one"])
}

func TestRegistryClone(t *testing.T) {
	r := Registry{"one": laptop}
	c := r.Clone()
	c["two"] = ciRunner
	assert.Len(t, r, 1)
	assert.Len(t, c, 2)
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
	assert.Regexp(t, "^[0-9A-F-]+$", a)
}

func TestCurrentIsStable(t *testing.T) {
	a, err := Current()
	require.NoError(t, err)
	b, err := CurrentProvider.Fingerprint()
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
	assert.NotEmpty(t, a.Arch)
}
