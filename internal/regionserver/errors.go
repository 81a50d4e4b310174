package regionserver

import (
	"errors"
	"fmt"

	"regionserver/internal/region"
)

// The seven error kinds of spec.md §7. Each is a sentinel wrapped with
// %w so callers can both errors.Is against the kind and read the detail.
// ErrDroppedSnapshot is defined in package region (FlushCache is where it
// originates) and re-exported here so the rest of this package can refer
// to it alongside its six siblings.
var (
	ErrNotServingRegion      = errors.New("regionserver: not serving region")
	ErrUnknownScanner        = errors.New("regionserver: unknown scanner")
	ErrRegionServerRunning   = errors.New("regionserver: region server already running")
	ErrDroppedSnapshot       = region.ErrDroppedSnapshot
	ErrRemoteException       = errors.New("regionserver: remote exception")
	ErrFilesystemUnavailable = errors.New("regionserver: filesystem unavailable")
	ErrServerNotRunning      = errors.New("regionserver: server not running")
)

// NotServingRegion wraps ErrNotServingRegion with the offending name.
func NotServingRegion(name string) error {
	return fmt.Errorf("%w: %s", ErrNotServingRegion, name)
}

// UnknownScanner wraps ErrUnknownScanner with the offending id.
func UnknownScanner(id uint64) error {
	return fmt.Errorf("%w: %d", ErrUnknownScanner, id)
}

// RemoteException wraps a remote (master/filesystem) error so that both
// ErrRemoteException and its underlying IO cause match errors.Is/As, per
// spec §7's "always unwrapped to its IO cause".
func RemoteException(cause error) error {
	return fmt.Errorf("%w: %w", ErrRemoteException, cause)
}
