package regionserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regionserver/internal/store"
)

func TestScannerRegistry_OpenNextClose(t *testing.T) {
	lm := NewLeaseManager(time.Hour)
	sr := NewScannerRegistry(lm, time.Hour)

	mem := store.NewMemtable()
	mem.Put(store.CellKey{Row: []byte("r1"), Family: "cf", Qualifier: []byte("q"), Timestamp: 1, Seq: 1}, []byte("v"))
	cur := store.NewCursor(mem, nil, nil, nil, 0)

	id, err := sr.Open("region1", cur)
	require.NoError(t, err)
	assert.Equal(t, 1, sr.Len())

	got, err := sr.Next(id)
	require.NoError(t, err)
	assert.Same(t, cur, got)

	require.NoError(t, sr.Close(id))
	assert.Zero(t, sr.Len())
}

func TestScannerRegistry_NextUnknownIDFails(t *testing.T) {
	sr := NewScannerRegistry(NewLeaseManager(time.Hour), time.Hour)
	_, err := sr.Next(12345)
	assert.ErrorIs(t, err, ErrUnknownScanner)
}

func TestScannerRegistry_CloseUnknownIDFails(t *testing.T) {
	sr := NewScannerRegistry(NewLeaseManager(time.Hour), time.Hour)
	err := sr.Close(12345)
	assert.ErrorIs(t, err, ErrUnknownScanner)
}

func TestScannerRegistry_ExpiryInvokesOnGoneCallback(t *testing.T) {
	lm := NewLeaseManager(5 * time.Millisecond)
	sr := NewScannerRegistry(lm, time.Hour)
	gone := make(chan uint64, 1)
	sr.OnGone(func(id uint64) { gone <- id })

	cur := store.NewCursor(store.NewMemtable(), nil, nil, nil, 0)
	id, err := sr.Open("region1", cur)
	require.NoError(t, err)

	lm.leases[id].period = time.Millisecond
	lm.leases[id].deadline = time.Now()

	go lm.Run()
	defer lm.Stop()

	select {
	case gotID := <-gone:
		assert.Equal(t, id, gotID)
	case <-time.After(2 * time.Second):
		t.Fatal("scanner never expired")
	}
	assert.Zero(t, sr.Len())
}

func TestScannerRegistry_RoundTripLeavesRegistryUnchanged(t *testing.T) {
	sr := NewScannerRegistry(NewLeaseManager(time.Hour), time.Hour)
	before := sr.Len()

	cur := store.NewCursor(store.NewMemtable(), nil, nil, nil, 0)
	id, err := sr.Open("region1", cur)
	require.NoError(t, err)
	_, err = sr.Next(id)
	require.NoError(t, err)
	require.NoError(t, sr.Close(id))

	assert.Equal(t, before, sr.Len())
}
