// Package region defines the metadata and in-process state of a single
// contiguous key range served by the region server.
package region

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"regionserver/internal/store"
)

// ErrDroppedSnapshot is returned by FlushCache when a store flush fails
// after at least one sibling family's flush has already committed for
// the same memtable snapshot. The memtable can no longer be cleared or
// safely retried piecemeal, so recovery depends on WAL replay
// (spec.md §4.3, §7: "always fatal").
var ErrDroppedSnapshot = errors.New("region: dropped snapshot mid-flush, wal replay required")

// Capability enumerates the operations a Region may currently support.
// A Region is polymorphic over this capability set: a retiring region, for
// instance, keeps read/scan for in-flight cursors but drops write/split.
type Capability uint8

const (
	CapRead Capability = 1 << iota
	CapWrite
	CapScan
	CapFlush
	CapCompact
	CapSplit
	CapClose
)

// FullCapabilities is the capability set of a newly opened, healthy region.
const FullCapabilities = CapRead | CapWrite | CapScan | CapFlush | CapCompact | CapSplit | CapClose

// Descriptor is the immutable schema/placement metadata for a Region.
type Descriptor struct {
	Table       string
	StartKey    []byte
	EndKey      []byte // empty denotes infinity
	IsMetaTable bool
	IsRootTable bool
	Families    []string
}

// Name derives the canonical region name from table, start key and creation
// time, following the convention table,startKey,creationTimestamp.
func (d Descriptor) Name(created time.Time) string {
	return fmt.Sprintf("%s,%x,%d", d.Table, d.StartKey, created.UnixNano())
}

// ContainsKey reports whether the descriptor's range covers key.
func (d Descriptor) ContainsKey(key []byte) bool {
	if len(d.StartKey) > 0 && string(key) < string(d.StartKey) {
		return false
	}
	if len(d.EndKey) > 0 && string(key) >= string(d.EndKey) {
		return false
	}
	return true
}

// Region is one contiguous key range of a table, owning a memtable and a
// set of on-disk stores (one per column family), plus the bookkeeping the
// region server needs to safely flush, compact, split and close it.
type Region struct {
	Name       string
	Descriptor Descriptor
	Created    time.Time

	Memtable *store.Memtable
	Stores   map[string]*store.Store

	seqID     uint64 // atomic: monotonically increasing sequence id watermark
	lastFlush atomic.Value // time.Time

	capMu sync.RWMutex
	caps  Capability

	// unavailable is set while the region is mid-split; readers already
	// serving it may finish, new writers are refused (spec: closing/closed
	// callbacks used by the compactor during a split).
	unavailable atomic.Bool
}

// New constructs a Region with an open memtable and one store per family.
func New(desc Descriptor, created time.Time, dataDir string) (*Region, error) {
	name := desc.Name(created)
	r := &Region{
		Name:       name,
		Descriptor: desc,
		Created:    created,
		Memtable:   store.NewMemtable(),
		Stores:     make(map[string]*store.Store, len(desc.Families)),
		caps:       FullCapabilities,
	}
	r.lastFlush.Store(created)
	for _, fam := range desc.Families {
		st, err := store.Open(dataDir, name, fam)
		if err != nil {
			r.closeStoresBestEffort()
			return nil, fmt.Errorf("region %s: open store %s: %w", name, fam, err)
		}
		r.Stores[fam] = st
	}
	return r, nil
}

func (r *Region) closeStoresBestEffort() {
	for _, st := range r.Stores {
		_ = st.Close()
	}
}

// Has reports whether the region currently advertises capability c.
func (r *Region) Has(c Capability) bool {
	r.capMu.RLock()
	defer r.capMu.RUnlock()
	return r.caps&c != 0
}

// SetCapabilities replaces the region's capability set.
func (r *Region) SetCapabilities(c Capability) {
	r.capMu.Lock()
	r.caps = c
	r.capMu.Unlock()
}

// Drop removes capability c from the region's set (used when it starts
// retiring: write/split/compact go away, read/scan remain for cursors).
func (r *Region) Drop(c Capability) {
	r.capMu.Lock()
	r.caps &^= c
	r.capMu.Unlock()
}

// ContainsKey delegates to the descriptor.
func (r *Region) ContainsKey(key []byte) bool { return r.Descriptor.ContainsKey(key) }

// NextSequenceID atomically allocates and returns the next write sequence id.
func (r *Region) NextSequenceID() uint64 {
	return atomic.AddUint64(&r.seqID, 1)
}

// SequenceID returns the current sequence id watermark without advancing it.
func (r *Region) SequenceID() uint64 {
	return atomic.LoadUint64(&r.seqID)
}

// AdvanceSequenceFloor raises the sequence id watermark to at least min,
// used by the Worker after WAL replay during REGION_OPEN.
func (r *Region) AdvanceSequenceFloor(min uint64) {
	for {
		cur := atomic.LoadUint64(&r.seqID)
		if cur >= min {
			return
		}
		if atomic.CompareAndSwapUint64(&r.seqID, cur, min) {
			return
		}
	}
}

// LastFlush returns the timestamp of the region's most recent flush.
func (r *Region) LastFlush() time.Time {
	return r.lastFlush.Load().(time.Time)
}

func (r *Region) markFlushed(at time.Time) {
	r.lastFlush.Store(at)
}

// MemtableSize returns the live byte size of the region's memtable.
func (r *Region) MemtableSize() int64 {
	if r.Memtable == nil {
		return 0
	}
	return r.Memtable.Size()
}

// MarkUnavailable flags the region as mid-split. Region.Put and
// Region.Delete do not check the flag (they check only CapWrite);
// FrontEnd.BatchUpdate refuses writes to an unavailable region with
// NotServingRegion, and an already-open cursor may continue to completion.
func (r *Region) MarkUnavailable() { r.unavailable.Store(true) }

// Unavailable reports the mid-split flag.
func (r *Region) Unavailable() bool { return r.unavailable.Load() }

// Put writes a single cell into the memtable under a freshly allocated
// sequence id.
func (r *Region) Put(family string, row, qualifier, value []byte, ts int64) error {
	if !r.Has(CapWrite) {
		return fmt.Errorf("region %s: not writable", r.Name)
	}
	st, ok := r.Stores[family]
	if !ok {
		return fmt.Errorf("region %s: no such family %q", r.Name, family)
	}
	_ = st
	seq := r.NextSequenceID()
	r.Memtable.Put(store.CellKey{Row: row, Family: family, Qualifier: qualifier, Timestamp: ts, Seq: seq}, value)
	return nil
}

// Delete tombstones a cell (or a whole row/family, depending on the caller's
// key shape) in the memtable.
func (r *Region) Delete(family string, row, qualifier []byte, ts int64) error {
	if !r.Has(CapWrite) {
		return fmt.Errorf("region %s: not writable", r.Name)
	}
	seq := r.NextSequenceID()
	r.Memtable.Delete(store.CellKey{Row: row, Family: family, Qualifier: qualifier, Timestamp: ts, Seq: seq})
	return nil
}

// Get resolves the most recent visible value for a cell, checking the
// memtable first (most recent writes) and falling back to on-disk stores.
func (r *Region) Get(family string, row, qualifier []byte, maxVersions int, tsCeiling int64) ([]store.Cell, error) {
	if !r.Has(CapRead) {
		return nil, fmt.Errorf("region %s: not readable", r.Name)
	}
	cells := r.Memtable.Get(family, row, qualifier, maxVersions, tsCeiling)
	if st, ok := r.Stores[family]; ok && len(cells) < maxOrOne(maxVersions) {
		diskCells, err := st.Get(row, qualifier, maxOrOne(maxVersions)-len(cells), tsCeiling)
		if err != nil {
			return nil, err
		}
		cells = append(cells, diskCells...)
	}
	return cells, nil
}

func maxOrOne(maxVersions int) int {
	if maxVersions <= 0 {
		return 1
	}
	return maxVersions
}

// GetClosestRowBefore scans the memtable and stores for the closest row key
// less than or equal to row that carries data in family.
func (r *Region) GetClosestRowBefore(family string, row []byte) ([]byte, []store.Cell, error) {
	if !r.Has(CapRead) {
		return nil, nil, fmt.Errorf("region %s: not readable", r.Name)
	}
	memRow, memCells := r.Memtable.ClosestRowBefore(family, row)
	st, ok := r.Stores[family]
	if !ok {
		return memRow, memCells, nil
	}
	diskRow, diskCells, err := st.ClosestRowBefore(row)
	if err != nil {
		return nil, nil, err
	}
	if len(memRow) == 0 {
		return diskRow, diskCells, nil
	}
	if len(diskRow) == 0 || string(memRow) >= string(diskRow) {
		return memRow, memCells, nil
	}
	return diskRow, diskCells, nil
}

// Scanner opens a forward cursor over the region starting at firstRow.
func (r *Region) Scanner(families []string, firstRow []byte, tsCeiling int64) (*store.Cursor, error) {
	if !r.Has(CapScan) {
		return nil, fmt.Errorf("region %s: not scannable", r.Name)
	}
	return store.NewCursor(r.Memtable, r.Stores, families, firstRow, tsCeiling), nil
}

// FlushCache writes the current memtable contents to new store files and
// resets the memtable. It returns whether the resulting store state now
// warrants a compaction check, mirroring HRegion.flushcache()'s return
// contract as named in spec.md.
func (r *Region) FlushCache() (needsCompaction bool, err error) {
	if !r.Has(CapFlush) {
		return false, nil
	}
	iter := r.Memtable.Iterator()
	defer iter.Close()
	if iter.Empty() {
		return false, nil
	}
	byFamily := iter.SplitByFamily()
	var flushedAny bool
	for fam, cells := range byFamily {
		st, ok := r.Stores[fam]
		if !ok {
			continue
		}
		n, ferr := st.Flush(cells)
		if ferr != nil {
			if flushedAny {
				return false, fmt.Errorf("region %s: flush family %s: %w: %v", r.Name, fam, ErrDroppedSnapshot, ferr)
			}
			return false, fmt.Errorf("region %s: flush family %s: %w", r.Name, fam, ferr)
		}
		flushedAny = true
		if n > compactionFileHint {
			needsCompaction = true
		}
	}
	r.Memtable.Clear()
	r.markFlushed(time.Now())
	return needsCompaction, nil
}

// compactionFileHint is the number of store files above which a family is
// considered ripe for compaction. Kept as a package constant since the
// store's own compaction heuristics are out of scope; the region server
// only needs a boolean signal.
const compactionFileHint = 3

// CompactStores merges each family's store files. It returns true when the
// region should also be considered for a split (spec: compactStores()
// returning true triggers the split protocol in the compactor).
func (r *Region) CompactStores() (splitDue bool, err error) {
	if !r.Has(CapCompact) {
		return false, nil
	}
	for fam, st := range r.Stores {
		due, cerr := st.Compact()
		if cerr != nil {
			return false, fmt.Errorf("region %s: compact family %s: %w", r.Name, fam, cerr)
		}
		if due {
			splitDue = true
		}
	}
	return splitDue, nil
}

// Split produces two child descriptors covering the halves of this region's
// key range, or ok=false if the region does not actually need splitting
// (e.g. below the store's split-point threshold).
func (r *Region) Split() (a, b Descriptor, ok bool) {
	if !r.Has(CapSplit) {
		return Descriptor{}, Descriptor{}, false
	}
	mid, found := r.splitPoint()
	if !found {
		return Descriptor{}, Descriptor{}, false
	}
	a = Descriptor{
		Table: r.Descriptor.Table, StartKey: r.Descriptor.StartKey, EndKey: mid,
		Families: r.Descriptor.Families,
	}
	b = Descriptor{
		Table: r.Descriptor.Table, StartKey: mid, EndKey: r.Descriptor.EndKey,
		Families: r.Descriptor.Families,
	}
	return a, b, true
}

// splitPoint asks the largest store for its approximate midpoint key. Ties,
// including all-zero estimates for data not yet written to sstables, go
// to the first store visited.
func (r *Region) splitPoint() ([]byte, bool) {
	var largest *store.Store
	var largestSize int64
	for _, st := range r.Stores {
		if sz := st.ApproximateSize(); largest == nil || sz > largestSize {
			largest, largestSize = st, sz
		}
	}
	if largest == nil {
		return nil, false
	}
	return largest.ApproximateMidpoint()
}

// Close releases the region's memtable and stores. If skipFinalFlush is
// true (server is aborting), any unflushed memtable contents are dropped
// rather than written, since a WAL replay will recover them on reopen.
func (r *Region) Close(skipFinalFlush bool) error {
	r.Drop(CapWrite | CapSplit | CapCompact | CapFlush)
	if !skipFinalFlush {
		if _, err := r.FlushCache(); err != nil {
			return err
		}
	}
	var firstErr error
	for _, st := range r.Stores {
		if err := st.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.Drop(CapRead | CapScan | CapClose)
	return firstErr
}
