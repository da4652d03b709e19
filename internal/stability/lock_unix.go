//go:build linux || darwin

package stability

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// platformLockProbe takes a non-blocking advisory flock on the file. A probe
// that cannot acquire the lock reports locked; everything else reports free.
func platformLockProbe(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return os.IsPermission(err)
	}
	defer f.Close()

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN)
	}
	_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
	return false
}
