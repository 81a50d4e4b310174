// Package store is the region server's stand-in for the on-disk store
// format and in-memory row engine, which spec.md places out of scope
// ("the on-disk store format" / "the memtable/row implementation" are
// named as external collaborators, §1). It implements just enough of
// their contract — Put/Get/Flush/Compact — for the core to exercise a
// real flush and compaction path end to end.
package store

import (
	"bytes"
	"encoding/binary"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/huandu/skiplist"
)

// CellKey addresses a single versioned cell.
type CellKey struct {
	Row       []byte
	Family    string
	Qualifier []byte
	Timestamp int64
	Seq       uint64
}

// Cell is a fully materialized versioned value.
type Cell struct {
	Row       []byte
	Family    string
	Qualifier []byte
	Timestamp int64
	Value     []byte
	Deleted   bool
}

type version struct {
	ts      int64
	seq     uint64
	value   []byte
	deleted bool
}

// Memtable is the in-memory sorted write buffer of a Region, backed by a
// skiplist keyed on the length-prefixed (family, row, qualifier) composite,
// so entries are grouped by family and then by row, each segment ordered
// by its length before its bytes. Multiple versions of one cell are kept as a
// small slice under that key rather than as separate skiplist entries,
// since the skiplist's built-in `skiplist.Bytes` comparable only orders on
// the composite key bytes.
type Memtable struct {
	mu   sync.RWMutex
	list *skiplist.SkipList
	size int64 // atomic approximate byte size
}

// NewMemtable constructs an empty memtable.
func NewMemtable() *Memtable {
	return &Memtable{list: skiplist.New(skiplist.Bytes)}
}

func encodeKey(family string, row, qualifier []byte) []byte {
	buf := make([]byte, 0, 2+len(family)+2+len(row)+2+len(qualifier))
	buf = appendSegment(buf, []byte(family))
	buf = appendSegment(buf, row)
	buf = appendSegment(buf, qualifier)
	return buf
}

func appendSegment(buf, seg []byte) []byte {
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(seg)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, seg...)
	return buf
}

func decodeKey(buf []byte) (family string, row, qualifier []byte) {
	fam, rest := readSegment(buf)
	r, rest2 := readSegment(rest)
	q, _ := readSegment(rest2)
	return string(fam), r, q
}

func readSegment(buf []byte) (seg, rest []byte) {
	if len(buf) < 2 {
		return nil, nil
	}
	n := binary.BigEndian.Uint16(buf[:2])
	buf = buf[2:]
	if int(n) > len(buf) {
		return nil, nil
	}
	return buf[:n], buf[n:]
}

// Put inserts a new version of a cell.
func (m *Memtable) Put(key CellKey, value []byte) {
	m.mutate(key, version{ts: key.Timestamp, seq: key.Seq, value: append([]byte(nil), value...)})
	atomic.AddInt64(&m.size, int64(len(key.Row)+len(key.Qualifier)+len(value)+24))
}

// Delete appends a tombstone version for a cell.
func (m *Memtable) Delete(key CellKey) {
	m.mutate(key, version{ts: key.Timestamp, seq: key.Seq, deleted: true})
	atomic.AddInt64(&m.size, int64(len(key.Row)+len(key.Qualifier)+16))
}

func (m *Memtable) mutate(key CellKey, v version) {
	enc := encodeKey(key.Family, key.Row, key.Qualifier)
	m.mu.Lock()
	defer m.mu.Unlock()
	elem := m.list.Get(enc)
	if elem == nil {
		m.list.Set(enc, []version{v})
		return
	}
	versions := elem.Value.([]version)
	versions = append(versions, v)
	m.list.Set(enc, versions)
}

// Size returns the memtable's approximate live byte size.
func (m *Memtable) Size() int64 {
	return atomic.LoadInt64(&m.size)
}

// Get returns up to maxVersions cells for (family,row,qualifier) with
// timestamp <= tsCeiling, newest first. Returns nil if the newest matching
// version is a tombstone.
func (m *Memtable) Get(family string, row, qualifier []byte, maxVersions int, tsCeiling int64) []Cell {
	enc := encodeKey(family, row, qualifier)
	m.mu.RLock()
	elem := m.list.Get(enc)
	m.mu.RUnlock()
	if elem == nil {
		return nil
	}
	versions := append([]version(nil), elem.Value.([]version)...)
	return materialize(family, row, qualifier, versions, maxVersions, tsCeiling)
}

func materialize(family string, row, qualifier []byte, versions []version, maxVersions int, tsCeiling int64) []Cell {
	if tsCeiling <= 0 {
		tsCeiling = 1<<63 - 1
	}
	filtered := versions[:0:0]
	for _, v := range versions {
		if v.ts <= tsCeiling {
			filtered = append(filtered, v)
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].ts != filtered[j].ts {
			return filtered[i].ts > filtered[j].ts
		}
		return filtered[i].seq > filtered[j].seq
	})
	n := maxVersions
	if n > len(filtered) {
		n = len(filtered)
	}
	out := make([]Cell, 0, n)
	for _, v := range filtered {
		if v.deleted {
			break
		}
		out = append(out, Cell{Row: row, Family: family, Qualifier: qualifier, Timestamp: v.ts, Value: v.value})
		if len(out) >= maxVersions {
			break
		}
	}
	return out
}

// ClosestRowBefore returns the greatest row key <= row that has any live
// cell in family, plus its cells.
func (m *Memtable) ClosestRowBefore(family string, row []byte) ([]byte, []Cell) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Keys are length-prefixed, so the skiplist is not in raw row order;
	// walk every entry of the family and keep the greatest row not
	// exceeding row.
	var bestRow []byte
	var bestCells []Cell
	for elem := m.list.Front(); elem != nil; elem = elem.Next() {
		key := elem.Key().([]byte)
		fam, r, q := decodeKey(key)
		if fam != family {
			continue
		}
		if bytes.Compare(r, row) > 0 {
			continue
		}
		versions := elem.Value.([]version)
		cells := materialize(family, r, q, append([]version(nil), versions...), 1, 0)
		if len(cells) == 0 {
			continue
		}
		if bestRow == nil || bytes.Compare(r, bestRow) >= 0 {
			if bestRow == nil || !bytes.Equal(r, bestRow) {
				bestCells = nil
			}
			bestRow = r
			bestCells = append(bestCells, cells...)
		}
	}
	return bestRow, bestCells
}

// Clear empties the memtable, used after a successful flush.
func (m *Memtable) Clear() {
	m.mu.Lock()
	m.list = skiplist.New(skiplist.Bytes)
	m.mu.Unlock()
	atomic.StoreInt64(&m.size, 0)
}

// FlushIterator exposes a read-only snapshot of the memtable for flushing.
type FlushIterator struct {
	entries []flushEntry
	closed  bool
}

type flushEntry struct {
	family    string
	row       []byte
	qualifier []byte
	versions  []version
}

// Iterator snapshots the memtable's current contents for a flush.
func (m *Memtable) Iterator() *FlushIterator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]flushEntry, 0)
	for elem := m.list.Front(); elem != nil; elem = elem.Next() {
		fam, row, qual := decodeKey(elem.Key().([]byte))
		entries = append(entries, flushEntry{family: fam, row: row, qualifier: qual, versions: elem.Value.([]version)})
	}
	return &FlushIterator{entries: entries}
}

// Empty reports whether the snapshot has no entries.
func (f *FlushIterator) Empty() bool { return len(f.entries) == 0 }

// SplitByFamily materializes the snapshot into per-family cell lists ready
// for a store's Flush method.
func (f *FlushIterator) SplitByFamily() map[string][]Cell {
	out := make(map[string][]Cell)
	for _, e := range f.entries {
		for _, v := range e.versions {
			out[e.family] = append(out[e.family], Cell{
				Row: e.row, Family: e.family, Qualifier: e.qualifier,
				Timestamp: v.ts, Value: v.value, Deleted: v.deleted,
			})
		}
	}
	return out
}

// Close releases the snapshot.
func (f *FlushIterator) Close() { f.closed = true; f.entries = nil }
