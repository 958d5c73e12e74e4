package baseline

import (
	"github.com/antoninbas/benchguard/destination"
)

// Staged is the outcome of merging one baseline into a registry and catalog.
// The inputs given to Stage are never modified.
type Staged struct {
	DestinationID  string
	Registry       destination.Registry
	Catalog        Catalog
	NewDestination bool
	NewBaseline    bool
}

// Stage merges b as the baseline of (group, name) for the destination
// identified by destinationID. An empty destinationID registers fp under a
// freshly generated identifier.
func Stage(registry destination.Registry, catalog Catalog, destinationID string, fp destination.Fingerprint, group, name string, b Baseline) (*Staged, error) {
	staged := &Staged{
		DestinationID: destinationID,
		Registry:      registry.Clone(),
	}
	if staged.DestinationID == "" {
		staged.DestinationID = destination.NewID()
		staged.NewDestination = true
	}
	if err := staged.Registry.Insert(staged.DestinationID, fp); err != nil {
		return nil, err
	}
	_, exists := catalog.Lookup(group, name)
	staged.NewBaseline = !exists
	staged.Catalog = catalog.Merge(group, name, b)
	return staged, nil
}

// PendingUpdate is a baseline candidate produced by an evaluation. Nothing is
// persisted until it is handed to Store.Apply.
type PendingUpdate struct {
	Fingerprint destination.Fingerprint
	// DestinationID is empty when the destination was not registered at
	// evaluation time.
	DestinationID string
	Group         string
	Name          string
	Baseline      Baseline
}
