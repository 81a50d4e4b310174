package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/cockroachdb/pebble"
)

// Store is the on-disk representation of one column family of one region.
// It is deliberately thin: an embedded pebble instance gives it a real,
// working LSM store without requiring this module to design a store
// file format of its own (spec.md places the store format out of scope).
type Store struct {
	dir      string
	db       *pebble.DB
	fileHint int64 // atomic: bumped once per Flush call, used for the compaction hint
}

// Open creates or reopens the pebble instance backing dataDir/region/family.
func Open(dataDir, regionName, family string) (*Store, error) {
	dir := filepath.Join(dataDir, "stores", sanitize(regionName), family)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble store at %s: %w", dir, err)
	}
	return &Store{dir: dir, db: db}, nil
}

func sanitize(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '/' || c == '\\' || c == ':' {
			c = '_'
		}
		out[i] = c
	}
	return string(out)
}

// storeKey packs row+qualifier+~timestamp so that pebble's natural
// lexicographic order visits newest versions of a cell first.
func storeKey(row, qualifier []byte, ts int64) []byte {
	buf := make([]byte, 0, len(row)+2+len(qualifier)+8)
	buf = appendSegment(buf, row)
	buf = appendSegment(buf, qualifier)
	var tsBuf [8]byte
	binary.BigEndian.PutUint64(tsBuf[:], uint64(^ts))
	buf = append(buf, tsBuf[:]...)
	return buf
}

func decodeStoreKey(buf []byte) (row, qualifier []byte, ts int64) {
	row, rest := readSegment(buf)
	qualifier, rest = readSegment(rest)
	if len(rest) < 8 {
		return row, qualifier, 0
	}
	ts = int64(^binary.BigEndian.Uint64(rest[:8]))
	return row, qualifier, ts
}

// Get returns up to maxVersions cells for (row,qualifier) with
// timestamp <= tsCeiling, newest first.
func (s *Store) Get(row, qualifier []byte, maxVersions int, tsCeiling int64) ([]Cell, error) {
	if maxVersions <= 0 {
		maxVersions = 1
	}
	lower := storeKey(row, qualifier, 1<<62)
	upper := storeKey(row, qualifier, -(1 << 62))
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: append(upper, 0xff)})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	out := make([]Cell, 0, maxVersions)
	for iter.First(); iter.Valid() && len(out) < maxVersions; iter.Next() {
		_, _, ts := decodeStoreKey(iter.Key())
		if ts > tsCeiling && tsCeiling > 0 {
			continue
		}
		val := append([]byte(nil), iter.Value()...)
		out = append(out, Cell{Row: row, Qualifier: qualifier, Timestamp: ts, Value: val})
	}
	return out, iter.Error()
}

// ClosestRowBefore finds the greatest row <= row with any stored cell and
// returns it with that row's first stored cell. Keys are length-prefixed,
// so pebble's order is not raw row order and every key is visited.
func (s *Store) ClosestRowBefore(row []byte) ([]byte, []Cell, error) {
	iter, err := s.db.NewIter(nil)
	if err != nil {
		return nil, nil, err
	}
	defer iter.Close()

	var foundRow []byte
	var found []Cell
	for iter.First(); iter.Valid(); iter.Next() {
		r, _, ts := decodeStoreKey(iter.Key())
		if bytes.Compare(r, row) <= 0 && (found == nil || bytes.Compare(r, foundRow) > 0) {
			foundRow = append([]byte(nil), r...)
			found = []Cell{{Row: foundRow, Timestamp: ts, Value: append([]byte(nil), iter.Value()...)}}
		}
	}
	return foundRow, found, iter.Error()
}

// Flush writes a batch of cells (already sorted by the memtable) into the
// store as a durable batch, returning the running count of flushes this
// store has taken (a coarse counter used only to decide when to hint
// compaction). Flushing a closed store returns an error.
func (s *Store) Flush(cells []Cell) (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("store %s: closed", s.dir)
	}
	if len(cells) == 0 {
		return 0, nil
	}
	batch := s.db.NewBatch()
	for _, c := range cells {
		key := storeKey(c.Row, c.Qualifier, c.Timestamp)
		if c.Deleted {
			if err := batch.Delete(key, nil); err != nil {
				return 0, err
			}
			continue
		}
		if err := batch.Set(key, c.Value, nil); err != nil {
			return 0, err
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return 0, err
	}
	return int(atomic.AddInt64(&s.fileHint, 1)), nil
}

// ApproximateSize reports pebble's estimated on-disk size for the store.
func (s *Store) ApproximateSize() int64 {
	sz, err := s.db.EstimateDiskUsage(nil, nil)
	if err != nil {
		return 0
	}
	return int64(sz)
}

// ApproximateMidpoint returns a row key roughly in the middle of the
// store's key range, used to compute a region split point.
func (s *Store) ApproximateMidpoint() ([]byte, bool) {
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, false
	}
	defer iter.Close()

	var keys [][]byte
	for iter.First(); iter.Valid(); iter.Next() {
		row, _, _ := decodeStoreKey(iter.Key())
		if len(keys) == 0 || !bytes.Equal(keys[len(keys)-1], row) {
			keys = append(keys, append([]byte(nil), row...))
		}
	}
	if len(keys) < 2 {
		return nil, false
	}
	return keys[len(keys)/2], true
}

// Compact triggers pebble's manual compaction across the full key range and
// reports whether the store has grown past the split threshold.
func (s *Store) Compact() (splitDue bool, err error) {
	if err := s.db.Compact(nil, []byte{0xff, 0xff, 0xff, 0xff}, false); err != nil {
		return false, err
	}
	return s.ApproximateSize() > defaultSplitThresholdBytes, nil
}

// defaultSplitThresholdBytes is the store-size boundary above which a
// region is considered for splitting. HBase's real default is far larger
// (per-region max file size, typically GBs); this module uses a much
// smaller constant to make the split path exercisable in tests.
const defaultSplitThresholdBytes = 8 << 20

// Close closes the underlying pebble instance.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
