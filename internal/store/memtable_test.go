package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemtable_PutGetReturnsLatestVersion(t *testing.T) {
	m := NewMemtable()
	m.Put(CellKey{Row: []byte("r1"), Family: "cf", Qualifier: []byte("q1"), Timestamp: 1, Seq: 1}, []byte("v1"))
	m.Put(CellKey{Row: []byte("r1"), Family: "cf", Qualifier: []byte("q1"), Timestamp: 2, Seq: 2}, []byte("v2"))

	cells := m.Get("cf", []byte("r1"), []byte("q1"), 1, 0)
	require.Len(t, cells, 1)
	assert.Equal(t, []byte("v2"), cells[0].Value)
	assert.Equal(t, int64(2), cells[0].Timestamp)
}

func TestMemtable_GetRespectsMaxVersionsAndTsCeiling(t *testing.T) {
	m := NewMemtable()
	for ts := int64(1); ts <= 5; ts++ {
		m.Put(CellKey{Row: []byte("r1"), Family: "cf", Qualifier: []byte("q1"), Timestamp: ts, Seq: uint64(ts)}, []byte("v"))
	}

	cells := m.Get("cf", []byte("r1"), []byte("q1"), 2, 3)
	require.Len(t, cells, 2)
	assert.Equal(t, int64(3), cells[0].Timestamp)
	assert.Equal(t, int64(2), cells[1].Timestamp)
}

func TestMemtable_DeleteTombstonesHideOlderValues(t *testing.T) {
	m := NewMemtable()
	m.Put(CellKey{Row: []byte("r1"), Family: "cf", Qualifier: []byte("q1"), Timestamp: 1, Seq: 1}, []byte("v1"))
	m.Delete(CellKey{Row: []byte("r1"), Family: "cf", Qualifier: []byte("q1"), Timestamp: 2, Seq: 2})

	cells := m.Get("cf", []byte("r1"), []byte("q1"), 5, 0)
	assert.Empty(t, cells)
}

func TestMemtable_GetUnknownCellReturnsNil(t *testing.T) {
	m := NewMemtable()
	cells := m.Get("cf", []byte("missing"), []byte("q1"), 1, 0)
	assert.Nil(t, cells)
}

func TestMemtable_ClosestRowBeforeFindsNearestRow(t *testing.T) {
	m := NewMemtable()
	m.Put(CellKey{Row: []byte("a"), Family: "cf", Qualifier: []byte("q"), Timestamp: 1, Seq: 1}, []byte("va"))
	m.Put(CellKey{Row: []byte("c"), Family: "cf", Qualifier: []byte("q"), Timestamp: 1, Seq: 2}, []byte("vc"))

	row, cells := m.ClosestRowBefore("cf", []byte("b"))
	assert.Equal(t, []byte("a"), row)
	require.Len(t, cells, 1)
	assert.Equal(t, []byte("va"), cells[0].Value)
}

func TestMemtable_ClosestRowBeforeExactMatch(t *testing.T) {
	m := NewMemtable()
	m.Put(CellKey{Row: []byte("a"), Family: "cf", Qualifier: []byte("q"), Timestamp: 1, Seq: 1}, []byte("va"))

	row, cells := m.ClosestRowBefore("cf", []byte("a"))
	assert.Equal(t, []byte("a"), row)
	require.Len(t, cells, 1)
}

func TestMemtable_SizeGrowsOnPutAndDelete(t *testing.T) {
	m := NewMemtable()
	assert.Zero(t, m.Size())
	m.Put(CellKey{Row: []byte("r1"), Family: "cf", Qualifier: []byte("q1"), Timestamp: 1, Seq: 1}, []byte("value"))
	assert.Positive(t, m.Size())
}

func TestMemtable_ClearEmptiesTableAndResetsSize(t *testing.T) {
	m := NewMemtable()
	m.Put(CellKey{Row: []byte("r1"), Family: "cf", Qualifier: []byte("q1"), Timestamp: 1, Seq: 1}, []byte("value"))
	m.Clear()

	assert.Zero(t, m.Size())
	assert.Nil(t, m.Get("cf", []byte("r1"), []byte("q1"), 1, 0))
	iter := m.Iterator()
	assert.True(t, iter.Empty())
}

func TestMemtable_IteratorSplitByFamilyGroupsCellsByFamily(t *testing.T) {
	m := NewMemtable()
	m.Put(CellKey{Row: []byte("r1"), Family: "cf1", Qualifier: []byte("q1"), Timestamp: 1, Seq: 1}, []byte("v1"))
	m.Put(CellKey{Row: []byte("r2"), Family: "cf2", Qualifier: []byte("q1"), Timestamp: 1, Seq: 2}, []byte("v2"))
	m.Delete(CellKey{Row: []byte("r1"), Family: "cf1", Qualifier: []byte("q2"), Timestamp: 2, Seq: 3})

	iter := m.Iterator()
	defer iter.Close()
	require.False(t, iter.Empty())

	byFamily := iter.SplitByFamily()
	require.Contains(t, byFamily, "cf1")
	require.Contains(t, byFamily, "cf2")
	assert.Len(t, byFamily["cf1"], 2)
	assert.Len(t, byFamily["cf2"], 1)

	var sawTombstone bool
	for _, c := range byFamily["cf1"] {
		if c.Deleted {
			sawTombstone = true
		}
	}
	assert.True(t, sawTombstone)
}

func TestMemtable_DifferentFamiliesAreIndependent(t *testing.T) {
	m := NewMemtable()
	m.Put(CellKey{Row: []byte("r1"), Family: "cf1", Qualifier: []byte("q1"), Timestamp: 1, Seq: 1}, []byte("v1"))
	m.Put(CellKey{Row: []byte("r1"), Family: "cf2", Qualifier: []byte("q1"), Timestamp: 1, Seq: 2}, []byte("v2"))

	cf1 := m.Get("cf1", []byte("r1"), []byte("q1"), 1, 0)
	cf2 := m.Get("cf2", []byte("r1"), []byte("q1"), 1, 0)
	require.Len(t, cf1, 1)
	require.Len(t, cf2, 1)
	assert.Equal(t, []byte("v1"), cf1[0].Value)
	assert.Equal(t, []byte("v2"), cf2[0].Value)
}
