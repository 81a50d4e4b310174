package regionserver

import (
	"sync/atomic"
	"time"

	"regionserver/internal/region"
	"regionserver/internal/store"
)

// FrontEnd is the request-serving surface of spec.md §4.8: each method
// calls checkOpen, increments the request counter, resolves the region,
// and on any IO error probes the filesystem before re-surfacing the
// error; writes additionally invoke memory admission first.
type FrontEnd struct {
	registry *Registry
	identity *Identity
	flusher  *Flusher
	watchdog *Watchdog
	scanners *ScannerRegistry

	running atomic.Bool
}

// NewFrontEnd constructs a FrontEnd bound to the given collaborators.
func NewFrontEnd(registry *Registry, identity *Identity, flusher *Flusher, wd *Watchdog, scanners *ScannerRegistry) *FrontEnd {
	fe := &FrontEnd{registry: registry, identity: identity, flusher: flusher, watchdog: wd, scanners: scanners}
	fe.running.Store(true)
	return fe
}

// SetRunning flips the accept-requests flag; the main loop clears it on
// stop/abort so subsequent RPCs see ServerNotRunning (spec §7).
func (fe *FrontEnd) SetRunning(v bool) { fe.running.Store(v) }

func (fe *FrontEnd) checkOpen() error {
	if !fe.running.Load() {
		return ErrServerNotRunning
	}
	if fe.watchdog != nil && !fe.watchdog.Healthy() {
		return ErrFilesystemUnavailable
	}
	return nil
}

func (fe *FrontEnd) enter() error {
	if err := fe.checkOpen(); err != nil {
		return err
	}
	fe.identity.IncRequest()
	return nil
}

func (fe *FrontEnd) resolve(name string) (*region.Region, error) {
	r, err := fe.registry.Get(name, false)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (fe *FrontEnd) onIOError(err error) error {
	if fe.watchdog != nil {
		fe.watchdog.Check()
	}
	return RemoteException(err)
}

// GetRegionInfo returns the descriptor for an online region.
func (fe *FrontEnd) GetRegionInfo(name string) (region.Descriptor, error) {
	if err := fe.enter(); err != nil {
		return region.Descriptor{}, err
	}
	r, err := fe.resolve(name)
	if err != nil {
		return region.Descriptor{}, err
	}
	return r.Descriptor, nil
}

// Get resolves a single cell with an optional version count and
// timestamp ceiling.
func (fe *FrontEnd) Get(name string, row, family, qualifier []byte, versions int, ts int64) ([]store.Cell, error) {
	if err := fe.enter(); err != nil {
		return nil, err
	}
	r, err := fe.resolve(name)
	if err != nil {
		return nil, err
	}
	cells, err := r.Get(string(family), row, qualifier, versions, ts)
	if err != nil {
		return nil, fe.onIOError(err)
	}
	return cells, nil
}

// GetRow resolves every family's latest cells for a row.
func (fe *FrontEnd) GetRow(name string, row []byte, ts int64) (map[string][]store.Cell, error) {
	if err := fe.enter(); err != nil {
		return nil, err
	}
	r, err := fe.resolve(name)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]store.Cell, len(r.Descriptor.Families))
	for _, fam := range r.Descriptor.Families {
		cells, err := r.Get(fam, row, nil, 1<<30, ts)
		if err != nil {
			return nil, fe.onIOError(err)
		}
		if len(cells) > 0 {
			out[fam] = cells
		}
	}
	return out, nil
}

// GetClosestRowBefore finds the nearest row at or before row with data
// in family.
func (fe *FrontEnd) GetClosestRowBefore(name string, row, family []byte) ([]byte, []store.Cell, error) {
	if err := fe.enter(); err != nil {
		return nil, nil, err
	}
	r, err := fe.resolve(name)
	if err != nil {
		return nil, nil, err
	}
	rowKey, cells, err := r.GetClosestRowBefore(string(family), row)
	if err != nil {
		return nil, nil, fe.onIOError(err)
	}
	return rowKey, cells, nil
}

// Update is one cell of a batchUpdate call.
type Update struct {
	Family    string
	Qualifier []byte
	Value     []byte
}

// BatchUpdate applies a batch of cell writes to one row at a
// caller- or server-supplied timestamp, after memory admission (spec
// §4.8, invariant §8.4).
func (fe *FrontEnd) BatchUpdate(name string, row []byte, ts int64, updates []Update) error {
	if err := fe.enter(); err != nil {
		return err
	}
	if ts == 0 {
		ts = time.Now().UnixNano()
	}
	if fe.flusher != nil {
		if err := fe.flusher.ReclaimMemcacheMemory(); err != nil {
			return fe.onIOError(err)
		}
	}
	r, err := fe.resolve(name)
	if err != nil {
		return err
	}
	if r.Unavailable() {
		return NotServingRegion(name)
	}
	for _, u := range updates {
		if err := r.Put(u.Family, row, u.Qualifier, u.Value, ts); err != nil {
			return fe.onIOError(err)
		}
	}
	return nil
}

// DeleteAll tombstones a row, optionally scoped to one column, at ts.
func (fe *FrontEnd) DeleteAll(name string, row []byte, family, qualifier []byte, ts int64) error {
	if err := fe.enter(); err != nil {
		return err
	}
	r, err := fe.resolve(name)
	if err != nil {
		return err
	}
	if len(family) == 0 {
		for _, fam := range r.Descriptor.Families {
			if err := r.Delete(fam, row, qualifier, ts); err != nil {
				return fe.onIOError(err)
			}
		}
		return nil
	}
	if err := r.Delete(string(family), row, qualifier, ts); err != nil {
		return fe.onIOError(err)
	}
	return nil
}

// DeleteFamily tombstones every qualifier of one family in a row at ts.
func (fe *FrontEnd) DeleteFamily(name string, row, family []byte, ts int64) error {
	return fe.DeleteAll(name, row, family, nil, ts)
}

// OpenScanner opens a forward cursor over cols starting at firstRow with
// a timestamp ceiling, returning a wire-serializable 64-bit id.
func (fe *FrontEnd) OpenScanner(name string, cols []string, firstRow []byte, ts int64) (uint64, error) {
	if err := fe.enter(); err != nil {
		return 0, err
	}
	r, err := fe.resolve(name)
	if err != nil {
		return 0, err
	}
	cursor, err := r.Scanner(cols, firstRow, ts)
	if err != nil {
		return 0, fe.onIOError(err)
	}
	return fe.scanners.Open(name, cursor)
}

// Next advances a scanner and renews its lease.
func (fe *FrontEnd) Next(id uint64) (store.RowResult, bool, error) {
	if err := fe.enter(); err != nil {
		return store.RowResult{}, false, err
	}
	cursor, err := fe.scanners.Next(id)
	if err != nil {
		return store.RowResult{}, false, err
	}
	row, ok := cursor.Next()
	return row, ok, nil
}

// CloseScanner removes and closes an open scanner.
func (fe *FrontEnd) CloseScanner(id uint64) error {
	if err := fe.enter(); err != nil {
		return err
	}
	return fe.scanners.Close(id)
}

// GetProtocolVersion is the RPC compatibility probe of spec §6.
func (fe *FrontEnd) GetProtocolVersion(protocol string, clientVersion int64) (int64, error) {
	if err := fe.enter(); err != nil {
		return 0, err
	}
	return protocolVersion, nil
}

const protocolVersion = 1
