package wal

import "sync"

// LogRoller is the dedicated goroutine of spec.md §4.5: it wakes on
// RequestRoll (called from Append when a segment crosses the size
// threshold) and rolls through WAL.Roll, which holds the WAL's own mutex.
// The CALL_SERVER_STARTUP close-and-recreate path does not request a
// roll; it stops the roller and deletes the WAL.
type LogRoller struct {
	wal *WAL

	mu       sync.Mutex
	cond     *sync.Cond
	pending  bool
	stopped  bool
	onRolled func(closedSegment string)
}

// NewLogRoller creates a roller bound to w and wires itself as w's roll
// callback.
func NewLogRoller(w *WAL, onRolled func(closedSegment string)) *LogRoller {
	r := &LogRoller{wal: w, onRolled: onRolled}
	r.cond = sync.NewCond(&r.mu)
	w.SetRollCallback(r.RequestRoll)
	return r
}

// RequestRoll sets the pending flag and wakes the roller goroutine. It
// never blocks, so it is safe to call from Append while holding the
// WAL's own lock.
func (r *LogRoller) RequestRoll() {
	r.mu.Lock()
	r.pending = true
	r.cond.Signal()
	r.mu.Unlock()
}

// Run blocks rolling segments as requested until Stop is called,
// following the teacher's dedicated-goroutine-plus-condition-variable
// idiom for background work that is otherwise idle.
func (r *LogRoller) Run() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		for !r.pending && !r.stopped {
			r.cond.Wait()
		}
		if r.stopped {
			return
		}
		r.pending = false
		r.mu.Unlock()
		closed, err := r.wal.Roll()
		r.mu.Lock()
		if err == nil && r.onRolled != nil {
			r.onRolled(closed)
		}
	}
}

// Stop wakes the roller goroutine so Run returns.
func (r *LogRoller) Stop() {
	r.mu.Lock()
	r.stopped = true
	r.cond.Signal()
	r.mu.Unlock()
}
