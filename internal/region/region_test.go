package region

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegion(t *testing.T) *Region {
	t.Helper()
	desc := Descriptor{Table: "t1", StartKey: nil, EndKey: nil, Families: []string{"cf1", "cf2"}}
	r, err := New(desc, time.Now(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close(true) })
	return r
}

func TestDescriptor_ContainsKeyRespectsRange(t *testing.T) {
	d := Descriptor{StartKey: []byte("b"), EndKey: []byte("d")}
	assert.False(t, d.ContainsKey([]byte("a")))
	assert.True(t, d.ContainsKey([]byte("b")))
	assert.True(t, d.ContainsKey([]byte("c")))
	assert.False(t, d.ContainsKey([]byte("d")))
}

func TestDescriptor_ContainsKeyOpenEndedRange(t *testing.T) {
	d := Descriptor{}
	assert.True(t, d.ContainsKey([]byte("anything")))
}

func TestNew_OpensOneStorePerFamily(t *testing.T) {
	r := newTestRegion(t)
	assert.Len(t, r.Stores, 2)
	assert.Contains(t, r.Stores, "cf1")
	assert.Contains(t, r.Stores, "cf2")
	assert.Equal(t, FullCapabilities, r.caps)
}

func TestRegion_PutGetRoundTrip(t *testing.T) {
	r := newTestRegion(t)
	require.NoError(t, r.Put("cf1", []byte("row1"), []byte("q1"), []byte("value1"), 100))

	cells, err := r.Get("cf1", []byte("row1"), []byte("q1"), 1, 0)
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.Equal(t, []byte("value1"), cells[0].Value)
}

func TestRegion_PutUnknownFamilyFails(t *testing.T) {
	r := newTestRegion(t)
	err := r.Put("nosuch", []byte("row1"), []byte("q1"), []byte("v"), 1)
	assert.Error(t, err)
}

func TestRegion_CapabilityGatingRefusesWriteWhenDropped(t *testing.T) {
	r := newTestRegion(t)
	r.Drop(CapWrite)

	err := r.Put("cf1", []byte("row1"), []byte("q1"), []byte("v"), 1)
	assert.Error(t, err)
	assert.False(t, r.Has(CapWrite))
	assert.True(t, r.Has(CapRead))
}

func TestRegion_GetRefusedWithoutCapRead(t *testing.T) {
	r := newTestRegion(t)
	r.Drop(CapRead)

	_, err := r.Get("cf1", []byte("row1"), []byte("q1"), 1, 0)
	assert.Error(t, err)
}

func TestRegion_DeleteTombstonesValue(t *testing.T) {
	r := newTestRegion(t)
	require.NoError(t, r.Put("cf1", []byte("row1"), []byte("q1"), []byte("v"), 1))
	require.NoError(t, r.Delete("cf1", []byte("row1"), []byte("q1"), 2))

	cells, err := r.Get("cf1", []byte("row1"), []byte("q1"), 1, 0)
	require.NoError(t, err)
	assert.Empty(t, cells)
}

func TestRegion_SequenceIDsAreMonotonic(t *testing.T) {
	r := newTestRegion(t)
	first := r.NextSequenceID()
	second := r.NextSequenceID()
	assert.Greater(t, second, first)
	assert.Equal(t, second, r.SequenceID())
}

func TestRegion_AdvanceSequenceFloorNeverLowersWatermark(t *testing.T) {
	r := newTestRegion(t)
	r.NextSequenceID()
	r.NextSequenceID()
	before := r.SequenceID()

	r.AdvanceSequenceFloor(before - 1)
	assert.Equal(t, before, r.SequenceID())

	r.AdvanceSequenceFloor(before + 100)
	assert.Equal(t, before+100, r.SequenceID())
}

func TestRegion_FlushCacheResetsMemtable(t *testing.T) {
	r := newTestRegion(t)
	require.NoError(t, r.Put("cf1", []byte("row1"), []byte("q1"), []byte("v"), 1))

	before := r.LastFlush()
	time.Sleep(time.Millisecond)
	_, err := r.FlushCache()
	require.NoError(t, err)

	assert.Zero(t, r.MemtableSize())
	assert.True(t, r.LastFlush().After(before))
}

func TestRegion_FlushCacheOnEmptyMemtableIsNoop(t *testing.T) {
	r := newTestRegion(t)
	needsCompaction, err := r.FlushCache()
	require.NoError(t, err)
	assert.False(t, needsCompaction)
}

func TestRegion_FlushCacheRefusedWithoutCapFlush(t *testing.T) {
	r := newTestRegion(t)
	require.NoError(t, r.Put("cf1", []byte("row1"), []byte("q1"), []byte("v"), 1))
	r.Drop(CapFlush)

	needsCompaction, err := r.FlushCache()
	require.NoError(t, err)
	assert.False(t, needsCompaction)
	assert.Positive(t, r.MemtableSize())
}

func TestRegion_MarkUnavailableIsObservable(t *testing.T) {
	r := newTestRegion(t)
	assert.False(t, r.Unavailable())
	r.MarkUnavailable()
	assert.True(t, r.Unavailable())
}

func TestRegion_CloseSkipFinalFlushDropsUnflushedWrites(t *testing.T) {
	desc := Descriptor{Table: "t1", Families: []string{"cf1"}}
	r, err := New(desc, time.Now(), t.TempDir())
	require.NoError(t, err)
	require.NoError(t, r.Put("cf1", []byte("row1"), []byte("q1"), []byte("v"), 1))

	require.NoError(t, r.Close(true))
	assert.False(t, r.Has(CapRead))
	assert.False(t, r.Has(CapWrite))
}

func TestRegion_SplitFailsWithoutEnoughData(t *testing.T) {
	r := newTestRegion(t)
	_, _, ok := r.Split()
	assert.False(t, ok)
}

func TestRegion_SplitRefusedWithoutCapSplit(t *testing.T) {
	r := newTestRegion(t)
	r.Drop(CapSplit)
	_, _, ok := r.Split()
	assert.False(t, ok)
}

func TestRegion_FlushCacheReportsDroppedSnapshotWhenASiblingAlreadyCommitted(t *testing.T) {
	// Family iteration order is randomized by Go's map, so which family
	// fails first varies per run. Retry with fresh regions until the
	// broken family (cf2) lands second, exercising the classification
	// this test actually cares about: a failure after cf1 already
	// committed must come back wrapped as ErrDroppedSnapshot, not a bare
	// store error.
	for attempt := 0; attempt < 40; attempt++ {
		r := newTestRegion(t)
		require.NoError(t, r.Put("cf1", []byte("row1"), []byte("q1"), []byte("v"), 1))
		require.NoError(t, r.Put("cf2", []byte("row2"), []byte("q1"), []byte("v"), 2))
		require.NoError(t, r.Stores["cf2"].Close())

		_, err := r.FlushCache()
		require.Error(t, err)
		if errors.Is(err, ErrDroppedSnapshot) {
			return
		}
	}
	t.Fatal("cf1-then-cf2 map iteration order never observed across retries")
}

func TestRegion_FlushCacheReportsPlainErrorWhenFirstFamilyFails(t *testing.T) {
	desc := Descriptor{Table: "t1", Families: []string{"cf1"}}
	r, err := New(desc, time.Now(), t.TempDir())
	require.NoError(t, err)
	require.NoError(t, r.Put("cf1", []byte("row1"), []byte("q1"), []byte("v"), 1))
	require.NoError(t, r.Stores["cf1"].Close())

	_, err = r.FlushCache()
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrDroppedSnapshot), "a single family's own failure is not a dropped snapshot")
}

func TestRegion_NameIncludesTableAndStartKey(t *testing.T) {
	created := time.Unix(0, 12345)
	d := Descriptor{Table: "mytable", StartKey: []byte("k")}
	name := d.Name(created)
	assert.Contains(t, name, "mytable")
	assert.Contains(t, name, "12345")
}
