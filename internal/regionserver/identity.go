package regionserver

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Identity is the record the master tracks this server's lease under:
// network address, process start timestamp, info port, and a mutable load
// snapshot (spec.md §3 "Server identity").
type Identity struct {
	Address   string
	StartCode int64
	InfoPort  int

	requestCount int64 // atomic, reset each heartbeat
	onlineCount  int64 // atomic, set through SetOnlineCount after each worker open/close/quiesce
}

// NewIdentity derives a fresh identity with the current time as its start
// code, following the region server's own startCode convention (a
// millisecond epoch, unique enough to distinguish successive generations
// of the same address after a CALL_SERVER_STARTUP).
func NewIdentity(address string, infoPort int, now time.Time) *Identity {
	return &Identity{Address: address, StartCode: now.UnixNano() / int64(time.Millisecond), InfoPort: infoPort}
}

// String renders the identity as "address,infoPort,startCode"; the WAL
// directory name is built separately by wal.Path in its own format.
func (id *Identity) String() string {
	return fmt.Sprintf("%s,%d,%d", id.Address, id.InfoPort, id.StartCode)
}

// IncRequest bumps the per-interval request counter, called by the front
// end on every inbound RPC.
func (id *Identity) IncRequest() { atomic.AddInt64(&id.requestCount, 1) }

// SwapRequestCount reads and resets the request counter, called once per
// heartbeat (spec §4.1 step 3, invariant §8.5).
func (id *Identity) SwapRequestCount() int64 { return atomic.SwapInt64(&id.requestCount, 0) }

// SetOnlineCount records the current online region count for the next
// heartbeat's load snapshot.
func (id *Identity) SetOnlineCount(n int) { atomic.StoreInt64(&id.onlineCount, int64(n)) }

// Load captures the two numbers the heartbeat publishes to the master.
type Load struct {
	RequestCount int64
	OnlineRegion int64
}

// LoadSnapshot builds the current Load without resetting the request
// counter (used by housekeeping/status reporting outside a heartbeat).
func (id *Identity) LoadSnapshot() Load {
	return Load{RequestCount: atomic.LoadInt64(&id.requestCount), OnlineRegion: atomic.LoadInt64(&id.onlineCount)}
}

// regenerateStartCode assigns a new start code, used when the master
// issues CALL_SERVER_STARTUP and this server must reopen its WAL under a
// fresh identity.
func (id *Identity) regenerateStartCode(now time.Time) {
	id.StartCode = now.UnixNano() / int64(time.Millisecond)
}
