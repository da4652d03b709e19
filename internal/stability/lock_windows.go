//go:build windows

package stability

import (
	"errors"

	"golang.org/x/sys/windows"
)

// platformLockProbe opens the file with no sharing allowed. A sharing
// violation means another process still holds the file.
func platformLockProbe(path string) bool {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return false
	}
	h, err := windows.CreateFile(
		p,
		windows.GENERIC_READ,
		0, // deny sharing: fails if anyone else has the file open
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_ATTRIBUTE_NORMAL,
		0,
	)
	if err != nil {
		return errors.Is(err, windows.ERROR_SHARING_VIOLATION)
	}
	_ = windows.CloseHandle(h)
	return false
}
