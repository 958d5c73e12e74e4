//go:build !unix

package baseline

// lockPath is a no-op where flock(2) is unavailable.
func lockPath(string) (func(), error) {
	return func() {}, nil
}
