package baseline

// Catalog maps a test group to the baselines of its tests. A catalog belongs to
// exactly one destination.
type Catalog map[string]map[string]Baseline

func (c Catalog) Lookup(group, name string) (Baseline, bool) {
	b, ok := c[group][name]
	return b, ok
}

// Merge returns a copy of c in which the single entry (group, name) is set to
// b. Every other entry is carried over untouched.
func (c Catalog) Merge(group, name string, b Baseline) Catalog {
	out := c.Clone()
	tests, ok := out[group]
	if !ok {
		tests = map[string]Baseline{}
		out[group] = tests
	}
	tests[name] = b
	return out
}

func (c Catalog) Clone() Catalog {
	out := make(Catalog, len(c))
	for group, tests := range c {
		copied := make(map[string]Baseline, len(tests))
		for name, b := range tests {
			copied[name] = b
		}
		out[group] = copied
	}
	return out
}

func (c Catalog) Equal(other Catalog) bool {
	if len(c) != len(other) {
		return false
	}
	for group, tests := range c {
		otherTests, ok := other[group]
		if !ok || len(tests) != len(otherTests) {
			return false
		}
		for name, b := range tests {
			ob, ok := otherTests[name]
			if !ok || !b.Equal(ob) {
				return false
			}
		}
	}
	return true
}
