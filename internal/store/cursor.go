package store

import (
	"bytes"
	"sort"
)

// Cursor is a forward iterator over a region's memtable and stores, backing
// one open client scanner. It snapshots matching rows at creation time
// rather than merging a live iterator: the on-disk store format and its
// true iterator semantics are out of scope per spec.md; the scanner
// registry only needs something it can advance and close.
type Cursor struct {
	rows []RowResult
	pos  int
}

// RowResult is one row's worth of cells returned by a scanner Next call.
type RowResult struct {
	Row   []byte
	Cells []Cell
}

// NewCursor snapshots the memtable and stores for the requested families,
// starting at firstRow, filtering to timestamp <= tsCeiling (0 means no
// ceiling).
func NewCursor(mem *Memtable, stores map[string]*Store, families []string, firstRow []byte, tsCeiling int64) *Cursor {
	byRow := make(map[string][]Cell)

	if mem != nil {
		iter := mem.Iterator()
		for _, e := range iter.entries {
			if len(families) > 0 && !contains(families, e.family) {
				continue
			}
			if bytes.Compare(e.row, firstRow) < 0 {
				continue
			}
			cells := materialize(e.family, e.row, e.qualifier, append([]version(nil), e.versions...), 1<<30, tsCeiling)
			if len(cells) > 0 {
				byRow[string(e.row)] = append(byRow[string(e.row)], cells...)
			}
		}
	}

	for fam, st := range stores {
		if len(families) > 0 && !contains(families, fam) {
			continue
		}
		iter, err := st.db.NewIter(nil)
		if err != nil {
			continue
		}
		for ok := iter.First(); ok; ok = iter.Next() {
			row, qualifier, ts := decodeStoreKey(iter.Key())
			if bytes.Compare(row, firstRow) < 0 {
				continue
			}
			if tsCeiling > 0 && ts > tsCeiling {
				continue
			}
			val := append([]byte(nil), iter.Value()...)
			byRow[string(row)] = append(byRow[string(row)], Cell{
				Row: row, Family: fam, Qualifier: qualifier, Timestamp: ts, Value: val,
			})
		}
		iter.Close()
	}

	rows := make([]RowResult, 0, len(byRow))
	for rowKey, cells := range byRow {
		rows = append(rows, RowResult{Row: []byte(rowKey), Cells: cells})
	}
	sort.Slice(rows, func(i, j int) bool { return bytes.Compare(rows[i].Row, rows[j].Row) < 0 })
	return &Cursor{rows: rows}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Next advances the cursor and returns the next row, or ok=false when
// exhausted.
func (c *Cursor) Next() (RowResult, bool) {
	if c.pos >= len(c.rows) {
		return RowResult{}, false
	}
	r := c.rows[c.pos]
	c.pos++
	return r, true
}

// Close releases the cursor's snapshot.
func (c *Cursor) Close() {
	c.rows = nil
}
