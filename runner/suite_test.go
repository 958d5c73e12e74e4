package runner

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antoninbas/benchguard/baseline"
)

func TestSuiteDrainAccumulatesAllCandidates(t *testing.T) {
	store := baseline.NewStore(t.TempDir())
	suite := NewSuite(store)
	r, clock, _ := newTestRunnerWithStore(t, store, WithSuite(suite))
	ctx := context.Background()

	for _, name := range []string{"testA", "testB", "testC"} {
		_, err := r.Benchmark(ctx, "Group", name, nil, clock.workload(time.Second))
		require.NoError(t, err)
	}
	require.Len(t, suite.Pending(), 3)

	var out bytes.Buffer
	rendered, err := suite.Drain(&out, true)
	require.NoError(t, err)
	assert.True(t, rendered.Written)
	assert.Empty(t, out.String(), "nothing is printed when writing")
	assert.Empty(t, suite.Outcomes())
	require.NotNil(t, rendered.Registry)
	assert.Len(t, rendered.Registry.Added, 1)

	registry, err := store.LoadRegistry()
	require.NoError(t, err)
	id, ok := registry.Find(testMachine)
	require.True(t, ok)
	catalog, err := store.LoadCatalog(id)
	require.NoError(t, err)
	assert.Len(t, catalog["Group"], 3)
}

func TestSuiteOutcomesIsACopy(t *testing.T) {
	suite := NewSuite(nil)
	suite.Record(&Outcome{Name: "a"})
	outcomes := suite.Outcomes()
	outcomes[0] = &Outcome{Name: "b"}
	assert.Equal(t, "a", suite.Outcomes()[0].Name)
}

func TestSuiteDrainEmpty(t *testing.T) {
	suite := NewSuite(baseline.NewStore(t.TempDir()))
	var out bytes.Buffer
	rendered, err := suite.Drain(&out, false)
	require.NoError(t, err)
	assert.Nil(t, rendered.Registry)
	assert.Empty(t, out.String())
}
