package catalog

import (
	"fmt"
	"sync"

	"regionserver/internal/region"
)

// Target names which catalog table an update targets: root if the
// splitting region is itself a meta region, meta otherwise (spec.md
// §4.4 step 2).
type Target int

const (
	Meta Target = iota
	Root
)

// Row mirrors one catalog table row: a parent's offline/split bookkeeping
// plus, once written, its two child descriptors.
type Row struct {
	Offline  bool
	Split    bool
	SplitA   []byte
	SplitB   []byte
	Children []region.Descriptor
}

// Catalog models the meta/root update protocol the compactor drives
// during a split (spec §4.4 steps 2-4, ordering guarantee §5, invariant
// §8.3). Rows live in memory guarded by one mutex: the catalog tables
// themselves are ordinary regions per HBase's design, and this core
// treats their on-disk persistence as the same external store contract
// named in spec.md §1 — only the update *protocol* the compactor drives
// is specified here.
type Catalog struct {
	mu   sync.Mutex
	rows map[Target]map[string]*Row
}

// New creates an empty catalog with root and meta tables.
func New() *Catalog {
	return &Catalog{rows: map[Target]map[string]*Row{
		Meta: make(map[string]*Row),
		Root: make(map[string]*Row),
	}}
}

// MarkSplit performs the single atomic parent-row update of step 3:
// mark the parent offline+split and record both child descriptors,
// encoded with gogo/protobuf, into the splitA/splitB columns.
func (c *Catalog) MarkSplit(target Target, parentName string, childA, childB region.Descriptor) error {
	a, err := Marshal(childA)
	if err != nil {
		return fmt.Errorf("catalog: marshal splitA: %w", err)
	}
	b, err := Marshal(childB)
	if err != nil {
		return fmt.Errorf("catalog: marshal splitB: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows[target][parentName] = &Row{Offline: true, Split: true, SplitA: a, SplitB: b}
	return nil
}

// InsertChild performs one of the separate atomic child inserts of step
// 4, keyed by the child's own descriptor-derived row name (the caller
// supplies the already-named descriptor).
func (c *Catalog) InsertChild(target Target, child region.Descriptor) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := fmt.Sprintf("%s,%x", child.Table, child.StartKey)
	row, ok := c.rows[target][key]
	if !ok {
		row = &Row{}
		c.rows[target][key] = row
	}
	row.Children = append(row.Children, child)
	return nil
}

// Row returns a copy of a catalog row for inspection, used by tests
// asserting the split-ordering invariant.
func (c *Catalog) Row(target Target, name string) (Row, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	row, ok := c.rows[target][name]
	if !ok {
		return Row{}, false
	}
	return *row, true
}
