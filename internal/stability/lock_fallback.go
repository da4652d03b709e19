//go:build !linux && !darwin && !windows

package stability

import (
	"errors"
	"os"
	"syscall"
)

// platformLockProbe is the permissive fallback for platforms without a native
// lock primitive: only errors conventionally meaning "in use" report locked,
// anything ambiguous reports free.
func platformLockProbe(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return os.IsPermission(err) ||
			errors.Is(err, syscall.EAGAIN) ||
			errors.Is(err, syscall.EBUSY)
	}
	_ = f.Close()
	return false
}
