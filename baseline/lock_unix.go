//go:build unix

package baseline

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// lockPath takes an exclusive advisory lock on a sibling ".lock" file of path
// and blocks until it is available. The returned function releases it.
func lockPath(path string) (func(), error) {
	f, err := os.OpenFile(path+".lock", os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("unable to open lock file: %w", err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("unable to lock %s: %w", f.Name(), err)
	}
	return func() {
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
	}, nil
}
