package runner

import (
	"io"

	"github.com/antoninbas/benchguard/baseline"
)

// Suite accumulates the outcomes of the benchmarks of one run so that their
// baseline candidates can be applied, or printed, once at the end.
type Suite struct {
	store    *baseline.Store
	outcomes []*Outcome
}

func NewSuite(store *baseline.Store) *Suite {
	return &Suite{store: store}
}

func (s *Suite) Record(o *Outcome) {
	s.outcomes = append(s.outcomes, o)
}

// Outcomes returns the outcomes recorded since the last Drain, in order.
func (s *Suite) Outcomes() []*Outcome {
	return append([]*Outcome(nil), s.outcomes...)
}

// Pending returns the baseline candidates of the recorded outcomes.
func (s *Suite) Pending() []baseline.PendingUpdate {
	var updates []baseline.PendingUpdate
	for _, o := range s.outcomes {
		if o.Pending != nil {
			updates = append(updates, *o.Pending)
		}
	}
	return updates
}

// Drain applies every pending candidate in one pass and empties the suite.
// Without overwrite the resulting documents are printed to w instead of
// being written.
func (s *Suite) Drain(w io.Writer, overwrite bool) (*baseline.Rendered, error) {
	rendered, err := s.store.Apply(overwrite, s.Pending()...)
	if err != nil {
		return nil, err
	}
	s.outcomes = nil
	if !overwrite {
		rendered.Print(w)
	}
	return rendered, nil
}
