package baseline

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreLoadMissingDocuments(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "PerformanceBaselines"))
	r, err := s.LoadRegistry()
	require.NoError(t, err)
	assert.Empty(t, r)

	c, err := s.LoadCatalog("A")
	require.NoError(t, err)
	assert.Empty(t, c)
}

func TestStoreLoadMalformedDocuments(t *testing.T) {
	s := NewStore(t.TempDir())
	require.NoError(t, os.WriteFile(s.RegistryPath(), []byte("A: [1, 2"), 0o644))
	_, err := s.LoadRegistry()
	var malformed *MalformedDocumentError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, s.RegistryPath(), malformed.Path)

	require.NoError(t, os.WriteFile(s.CatalogPath("A"), []byte("g:\n  n:\n    strategy: average\n    measurement: -1\n"), 0o644))
	_, err = s.LoadCatalog("A")
	assert.ErrorIs(t, err, ErrMalformedDocument)
}

func TestStoreApplyDryRun(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "PerformanceBaselines"))
	rendered, err := s.Apply(false, PendingUpdate{
		Fingerprint: machineA,
		Group:       "ParserTests",
		Name:        "testParse",
		Baseline:    mustBaseline(t, Average, 1.25),
	})
	require.NoError(t, err)
	assert.False(t, rendered.Written)
	require.NotNil(t, rendered.Registry)
	require.Len(t, rendered.Registry.Added, 1)
	require.Len(t, rendered.Catalogs, 1)
	assert.Equal(t, []string{"ParserTests/testParse"}, rendered.Catalogs[0].Added)
	assert.Equal(t, s.CatalogPath(rendered.Registry.Added[0]), rendered.Catalogs[0].Path)

	_, err = os.Stat(s.Dir)
	assert.True(t, os.IsNotExist(err), "dry run must not touch the filesystem")

	var out bytes.Buffer
	rendered.Print(&out)
	assert.Contains(t, out.String(), "Destination not found. A new destination "+rendered.Registry.Added[0])
	assert.Contains(t, out.String(), "Baseline not found for ParserTests/testParse")
	assert.Contains(t, out.String(), "measurement: 1.25")
}

func TestStoreApplyOverwrite(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "PerformanceBaselines"))
	first, err := s.Apply(true,
		PendingUpdate{Fingerprint: machineA, Group: "g", Name: "x", Baseline: mustBaseline(t, Average, 1)},
		PendingUpdate{Fingerprint: machineA, Group: "g", Name: "y", Baseline: mustBaseline(t, Minimum, 2)},
	)
	require.NoError(t, err)
	assert.True(t, first.Written)
	require.NotNil(t, first.Registry)
	require.Len(t, first.Registry.Added, 1, "one machine is registered once")
	id := first.Registry.Added[0]

	registry, err := s.LoadRegistry()
	require.NoError(t, err)
	found, ok := registry.Find(machineA)
	require.True(t, ok)
	assert.Equal(t, id, found)

	catalog, err := s.LoadCatalog(id)
	require.NoError(t, err)
	assert.Len(t, catalog["g"], 2)

	// Updating x must leave y alone and keep the registry as is.
	second, err := s.Apply(true, PendingUpdate{Fingerprint: machineA, DestinationID: id, Group: "g", Name: "x", Baseline: mustBaseline(t, Average, 0.5)})
	require.NoError(t, err)
	assert.Nil(t, second.Registry)
	require.Len(t, second.Catalogs, 1)
	assert.Empty(t, second.Catalogs[0].Added)

	catalog, err = s.LoadCatalog(id)
	require.NoError(t, err)
	assert.Equal(t, 0.5, catalog["g"]["x"].Measurement)
	assert.Equal(t, 2.0, catalog["g"]["y"].Measurement)

	entries, err := os.ReadDir(s.Dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}
}

func TestStoreApplyKeepsOtherDestinations(t *testing.T) {
	s := NewStore(t.TempDir())
	_, err := s.Apply(true, PendingUpdate{Fingerprint: machineB, Group: "g", Name: "x", Baseline: mustBaseline(t, Average, 4)})
	require.NoError(t, err)
	_, err = s.Apply(true, PendingUpdate{Fingerprint: machineA, Group: "g", Name: "x", Baseline: mustBaseline(t, Average, 1)})
	require.NoError(t, err)

	registry, err := s.LoadRegistry()
	require.NoError(t, err)
	assert.Len(t, registry, 2)
	idB, ok := registry.Find(machineB)
	require.True(t, ok)
	catalogB, err := s.LoadCatalog(idB)
	require.NoError(t, err)
	assert.Equal(t, 4.0, catalogB["g"]["x"].Measurement)
}

func TestStoreApplyNothing(t *testing.T) {
	s := NewStore(t.TempDir())
	rendered, err := s.Apply(true)
	require.NoError(t, err)
	assert.Nil(t, rendered.Registry)
	assert.Empty(t, rendered.Catalogs)
}

func TestStoreApplyPrintsUpdatesByPath(t *testing.T) {
	s := NewStore(t.TempDir())
	_, err := s.Apply(true, PendingUpdate{Fingerprint: machineA, Group: "g", Name: "x", Baseline: mustBaseline(t, Average, 1)})
	require.NoError(t, err)

	rendered, err := s.Apply(false, PendingUpdate{Fingerprint: machineA, Group: "g", Name: "x", Baseline: mustBaseline(t, Average, 2)})
	require.NoError(t, err)
	var out bytes.Buffer
	rendered.Print(&out)
	assert.Contains(t, out.String(), "Updated baselines for "+rendered.Catalogs[0].Path)
	assert.NotContains(t, out.String(), "Destination not found")
}
