package regionserver

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"

	art "github.com/plar/go-adaptive-radix-tree"

	"regionserver/internal/store"
)

// openScanner is the scanner-registry entry: an open cursor over some
// region plus the region name it was opened against, so Next/Close can
// re-resolve region-level state (spec.md §4.6, §3 "Scanner registry").
type openScanner struct {
	regionName string
	cursor     *store.Cursor
}

// ScannerRegistry maps a random 64-bit opaque scanner id to its open
// cursor, backed by an adaptive radix tree keyed on the id's big-endian
// byte encoding, following internal/layers/engine/index/art.go's
// wrap-and-lock pattern.
type ScannerRegistry struct {
	mu          sync.Mutex
	tree        art.Tree
	lm          *LeaseManager
	leasePeriod time.Duration
	onGone      func(id uint64) // invoked when a lease expires; Close does not invoke it
}

// NewScannerRegistry creates an empty registry backed by lm for
// lease-driven expiry. leasePeriod is the per-scanner lease duration
// (spec.md §6 hbase.regionserver.lease.period); a zero value falls back
// to defaultScannerLease.
func NewScannerRegistry(lm *LeaseManager, leasePeriod time.Duration) *ScannerRegistry {
	if leasePeriod <= 0 {
		leasePeriod = defaultScannerLease
	}
	return &ScannerRegistry{tree: art.New(), lm: lm, leasePeriod: leasePeriod}
}

// OnGone registers a callback invoked with the id of any scanner removed
// by lease expiry (used by the server to log/count expirations).
func (sr *ScannerRegistry) OnGone(fn func(id uint64)) { sr.onGone = fn }

func idKey(id uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], id)
	return b[:]
}

// Open registers a new scanner over regionName's cursor, choosing a
// random 64-bit id. Collisions are refused rather than silently
// overwritten (spec §9 "Random scanner ids... collisions must be treated
// as errors").
func (sr *ScannerRegistry) Open(regionName string, cursor *store.Cursor) (uint64, error) {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	for attempt := 0; attempt < 8; attempt++ {
		id, err := randomID()
		if err != nil {
			return 0, err
		}
		key := idKey(id)
		if _, found := sr.tree.Search(key); found {
			continue
		}
		sr.tree.Insert(key, &openScanner{regionName: regionName, cursor: cursor})
		if sr.lm != nil {
			sr.lm.Create(id, sr.leasePeriod, func() { sr.expire(id) })
		}
		return id, nil
	}
	return 0, ErrUnknownScanner
}

const defaultScannerLease = 180 * time.Second // matches spec §6 default

func randomID() (uint64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

// Next renews id's lease and returns its cursor, or ErrUnknownScanner if
// the id is unknown or has expired (spec §4.6, §8 boundary behavior).
func (sr *ScannerRegistry) Next(id uint64) (*store.Cursor, error) {
	sr.mu.Lock()
	val, found := sr.tree.Search(idKey(id))
	sr.mu.Unlock()
	if !found {
		return nil, UnknownScanner(id)
	}
	if sr.lm != nil && !sr.lm.Renew(id) {
		return nil, UnknownScanner(id)
	}
	return val.(*openScanner).cursor, nil
}

// Close removes and closes id's cursor and cancels its lease.
func (sr *ScannerRegistry) Close(id uint64) error {
	sr.mu.Lock()
	val, found := sr.tree.Delete(idKey(id))
	sr.mu.Unlock()
	if !found {
		return UnknownScanner(id)
	}
	if sr.lm != nil {
		sr.lm.Cancel(id)
	}
	val.(*openScanner).cursor.Close()
	return nil
}

// expire is the lease-expiry callback: remove and close the cursor
// without requiring the caller to have known the id was about to expire.
func (sr *ScannerRegistry) expire(id uint64) {
	sr.mu.Lock()
	val, found := sr.tree.Delete(idKey(id))
	sr.mu.Unlock()
	if !found {
		return
	}
	val.(*openScanner).cursor.Close()
	if sr.onGone != nil {
		sr.onGone(id)
	}
}

// Len reports the number of open scanners, used for the round-trip law
// "openScanner;(next)*;close leaves the scanner map... in the exact state
// it was in before".
func (sr *ScannerRegistry) Len() int {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return sr.tree.Size()
}
