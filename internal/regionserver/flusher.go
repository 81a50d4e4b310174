package regionserver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"regionserver/internal/region"
)

// Flusher is the dedicated flush thread of spec.md §4.3: a FIFO flush
// queue plus a suppression set used to avoid double-enqueueing a region
// already queued. A region leaves the set when it is dequeued, so it can
// be queued again while its flush runs.
type Flusher struct {
	cfg      Config
	registry *Registry
	watchdog *Watchdog
	compact  func(regionName string) // Compactor.Request, wired by Server

	queue chan string

	mu        sync.Mutex
	suppress  map[string]bool
	working   sync.Mutex // held for the duration of one flushcache() call

	abort func(reason string)
}

// NewFlusher constructs a Flusher; queueDepth bounds the FIFO.
func NewFlusher(cfg Config, registry *Registry, wd *Watchdog, abort func(string), queueDepth int) *Flusher {
	return &Flusher{
		cfg: cfg, registry: registry, watchdog: wd, abort: abort,
		queue: make(chan string, queueDepth), suppress: make(map[string]bool),
	}
}

// SetCompactor wires the "flush requester -> compactor" capability
// handle spec §9 calls for (a narrow function value, not an inheritance
// hierarchy).
func (f *Flusher) SetCompactor(request func(regionName string)) { f.compact = request }

// Request enqueues a region for flushing; idempotent while already
// queued (spec §4.3 "Requested path").
func (f *Flusher) Request(regionName string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.suppress[regionName] {
		return
	}
	f.suppress[regionName] = true
	select {
	case f.queue <- regionName:
	default:
		// queue full: drop the suppression flag so a later scan can retry.
		delete(f.suppress, regionName)
	}
}

// unrequest removes name from the suppression set without enqueuing,
// used when memory admission preempts a pending enqueue by flushing the
// region directly (spec §4.3 "Memory admission... removes regions from
// the queue when it preempts a pending enqueue").
func (f *Flusher) unrequest(regionName string) {
	f.mu.Lock()
	delete(f.suppress, regionName)
	f.mu.Unlock()
}

// Run drives the periodic scan and the work loop until ctx is canceled.
func (f *Flusher) Run(ctx context.Context) {
	ticker := time.NewTicker(f.cfg.ThreadWakeFrequency)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.periodicScan()
		case name := <-f.queue:
			f.workStep(name)
		}
	}
}

// periodicScan enqueues every online region whose last-flush timestamp
// is older than optionalFlushPeriod (spec §4.3 "Periodic path").
func (f *Flusher) periodicScan() {
	now := time.Now()
	for _, r := range f.registry.Snapshot() {
		if now.Sub(r.LastFlush()) >= f.cfg.OptionalFlushPeriod {
			f.Request(r.Name)
		}
	}
}

// workStep dequeues name, removes it from suppression, and flushes it
// under the working lock so interruptIfNecessary can wait for a safe
// point (spec §4.3 "Work step", §5 "Suspension points").
func (f *Flusher) workStep(name string) {
	f.mu.Lock()
	delete(f.suppress, name)
	f.mu.Unlock()

	r, err := f.registry.Get(name, false)
	if err != nil {
		return // region closed before we got to it; nothing to flush
	}

	f.working.Lock()
	defer f.working.Unlock()

	needsCompaction, err := r.FlushCache()
	if err != nil {
		log.Printf("flusher: flush %s: %v", name, err)
		if errors.Is(err, region.ErrDroppedSnapshot) {
			log.Printf("flusher: fatal dropped snapshot on %s, aborting", name)
			if f.abort != nil {
				f.abort(fmt.Sprintf("dropped snapshot flushing %s", name))
			}
			return
		}
		if f.watchdog != nil && !f.watchdog.Check() {
			return
		}
		return
	}
	if needsCompaction && f.compact != nil {
		f.compact(name)
	}
}

// interruptIfNecessary tries the working lock non-blockingly; only if
// acquired does the caller proceed to interrupt, ensuring no interrupt
// lands inside a critical flush section (spec §5, §8 property 6, §9
// "Scheduler + interrupt safety").
func (f *Flusher) interruptIfNecessary(fn func()) bool {
	if !f.working.TryLock() {
		return false
	}
	defer f.working.Unlock()
	fn()
	return true
}

// ReclaimMemcacheMemory is called by every write before proceeding
// (spec §4.3 "Memory admission"). It compares the sum of per-region
// memtable sizes to GlobalMemcacheLimit and, when over, flushes regions
// in descending memtable size until below GlobalMemcacheLimitLowMark.
func (f *Flusher) ReclaimMemcacheMemory() error {
	regions := f.registry.Snapshot()
	total := totalMemtableBytes(regions)
	if total <= f.cfg.GlobalMemcacheLimit {
		return nil
	}

	sort.Slice(regions, func(i, j int) bool { return regions[i].MemtableSize() > regions[j].MemtableSize() })
	for _, r := range regions {
		if total <= f.cfg.GlobalMemcacheLimitLowMark {
			break
		}
		f.unrequest(r.Name)
		before := r.MemtableSize()
		if _, err := r.FlushCache(); err != nil {
			return fmt.Errorf("reclaim memcache: flush %s: %w", r.Name, err)
		}
		total -= before
	}
	return nil
}

func totalMemtableBytes(regions []*region.Region) int64 {
	var sum int64
	for _, r := range regions {
		sum += r.MemtableSize()
	}
	return sum
}
