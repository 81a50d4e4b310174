package regionserver

import (
	"sync"
	"time"

	"golang.org/x/exp/maps"
)

// lease is a named timer with an expiry callback: the region server's
// only notion of "liveness" for both scanner cursors and the master
// session watchdog (spec.md §4.6).
type lease struct {
	id       uint64
	deadline time.Time
	period   time.Duration
	onExpire func()
}

// LeaseManager tracks leases and expires them on a periodic sweep,
// generalizing the single-purpose scanner map into the two lease
// families spec §4.6 names: scanner leases and the master-session lease.
type LeaseManager struct {
	mu     sync.Mutex
	leases map[uint64]*lease

	sweepEvery time.Duration
	stop       chan struct{}
	stopped    bool
}

// NewLeaseManager creates a manager that sweeps for expired leases every
// sweepEvery.
func NewLeaseManager(sweepEvery time.Duration) *LeaseManager {
	return &LeaseManager{leases: make(map[uint64]*lease), sweepEvery: sweepEvery, stop: make(chan struct{})}
}

// Create installs a new lease under id with the given period, replacing
// any existing lease under that id.
func (lm *LeaseManager) Create(id uint64, period time.Duration, onExpire func()) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	lm.leases[id] = &lease{id: id, deadline: time.Now().Add(period), period: period, onExpire: onExpire}
}

// Renew pushes id's deadline forward by its period. Returns false if the
// lease is unknown (already expired or never created).
func (lm *LeaseManager) Renew(id uint64) bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	l, ok := lm.leases[id]
	if !ok {
		return false
	}
	l.deadline = time.Now().Add(l.period)
	return true
}

// Cancel removes a lease without invoking its expiry callback.
func (lm *LeaseManager) Cancel(id uint64) {
	lm.mu.Lock()
	delete(lm.leases, id)
	lm.mu.Unlock()
}

// Exists reports whether id currently has a live, unexpired lease.
func (lm *LeaseManager) Exists(id uint64) bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	_, ok := lm.leases[id]
	return ok
}

// Run sweeps for expired leases until Stop is called, following the
// teacher's ticker-plus-select loop idiom used throughout its background
// workers (e.g. internal/layers/pd/heartbeat.go-style periodic tasks).
func (lm *LeaseManager) Run() {
	ticker := time.NewTicker(lm.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-lm.stop:
			return
		case <-ticker.C:
			lm.sweepOnce()
		}
	}
}

func (lm *LeaseManager) sweepOnce() {
	now := time.Now()
	var expired []*lease
	lm.mu.Lock()
	for id, l := range lm.leases {
		if now.After(l.deadline) {
			expired = append(expired, l)
			delete(lm.leases, id)
		}
	}
	lm.mu.Unlock()
	for _, l := range expired {
		if l.onExpire != nil {
			l.onExpire()
		}
	}
}

// IDs returns the ids of every live lease, used by status reporting.
func (lm *LeaseManager) IDs() []uint64 {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return maps.Keys(lm.leases)
}

// Stop halts the sweep loop.
func (lm *LeaseManager) Stop() {
	lm.mu.Lock()
	if lm.stopped {
		lm.mu.Unlock()
		return
	}
	lm.stopped = true
	lm.mu.Unlock()
	close(lm.stop)
}
