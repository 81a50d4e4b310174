package regionserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewIdentity_DerivesStartCodeFromClock(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	id := NewIdentity("127.0.0.1:60020", 60030, now)
	assert.Equal(t, now.UnixNano()/int64(time.Millisecond), id.StartCode)
	assert.Equal(t, "127.0.0.1:60020", id.Address)
	assert.Equal(t, 60030, id.InfoPort)
}

func TestIdentity_SwapRequestCountResetsToZero(t *testing.T) {
	id := NewIdentity("addr", 1, time.Now())
	id.IncRequest()
	id.IncRequest()
	id.IncRequest()

	assert.EqualValues(t, 3, id.SwapRequestCount())
	assert.EqualValues(t, 0, id.SwapRequestCount())
}

func TestIdentity_LoadSnapshotDoesNotResetCounter(t *testing.T) {
	id := NewIdentity("addr", 1, time.Now())
	id.IncRequest()
	id.SetOnlineCount(5)

	load := id.LoadSnapshot()
	assert.EqualValues(t, 1, load.RequestCount)
	assert.EqualValues(t, 5, load.OnlineRegion)
	assert.EqualValues(t, 1, id.LoadSnapshot().RequestCount)
}

func TestIdentity_RegenerateStartCodeChangesValue(t *testing.T) {
	id := NewIdentity("addr", 1, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	before := id.StartCode
	id.regenerateStartCode(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.NotEqual(t, before, id.StartCode)
}

func TestIdentity_StringIncludesAddressPortStartCode(t *testing.T) {
	id := NewIdentity("host:1", 2, time.Now())
	s := id.String()
	assert.Contains(t, s, "host:1")
	assert.Contains(t, s, "2")
}
