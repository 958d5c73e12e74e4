package destination

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var ErrIdentifierConflict = errors.New("destination identifier is already bound to a different fingerprint")

// Registry maps destination identifiers to the fingerprint they were created for.
type Registry map[string]Fingerprint

// Find returns the identifier registered for a fingerprint equal to fp. When
// several identifiers match, the lexically smallest one is returned so that
// lookups stay stable.
func (r Registry) Find(fp Fingerprint) (string, bool) {
	var matches []string
	for id, registered := range r {
		if registered.Equal(fp) {
			matches = append(matches, id)
		}
	}
	if len(matches) == 0 {
		return "", false
	}
	sort.Strings(matches)
	return matches[0], true
}

// Insert binds id to fp. Re-inserting the same pair is a no-op.
func (r Registry) Insert(id string, fp Fingerprint) error {
	if existing, ok := r[id]; ok && !existing.Equal(fp) {
		return fmt.Errorf("%w: %s", ErrIdentifierConflict, id)
	}
	r[id] = fp
	return nil
}

func (r Registry) Clone() Registry {
	out := make(Registry, len(r))
	for id, fp := range r {
		out[id] = fp
	}
	return out
}

// NewID generates a fresh destination identifier.
func NewID() string {
	return strings.ToUpper(uuid.NewString())
}
