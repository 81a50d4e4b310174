package regionserver

import (
	"context"
	"log"
	"sync"
	"time"

	"regionserver/internal/region"
)

// Worker is the single-threaded consumer of the inbound instruction
// queue described in spec.md §4.2: it opens/closes regions and drives
// quiesce, retrying a failed open up to numRetries before giving up.
type Worker struct {
	cfg        Config
	dataDir    string
	registry   *Registry
	outbound   *OutboundBuffer
	watchdog   *Watchdog
	compactor  *Compactor
	setOnline  func(n int)
	walFloor   func() uint64
	numRetries int

	mu             sync.Mutex
	openInProgress map[string]bool
}

// NewWorker constructs a Worker.
func NewWorker(cfg Config, dataDir string, registry *Registry, outbound *OutboundBuffer, wd *Watchdog, compactor *Compactor, setOnline func(int)) *Worker {
	return &Worker{
		cfg: cfg, dataDir: dataDir, registry: registry, outbound: outbound,
		watchdog: wd, compactor: compactor, setOnline: setOnline,
		numRetries: cfg.RetriesNumber, openInProgress: make(map[string]bool),
	}
}

// SetWALFloor wires the current WAL's sequence-id watermark getter,
// called by the server whenever the WAL is opened or reopened (spec §4.2,
// §4.1 step 4's CALL_SERVER_STARTUP recreate).
func (w *Worker) SetWALFloor(floor func() uint64) { w.walFloor = floor }

// Run drains queue until ctx is canceled.
func (w *Worker) Run(ctx context.Context, queue *InstructionQueue) {
	for {
		select {
		case <-ctx.Done():
			return
		case instr := <-queue.Chan():
			w.handle(ctx, instr, queue)
		}
	}
}

func (w *Worker) handle(ctx context.Context, instr Instruction, queue *InstructionQueue) {
	switch instr.Kind {
	case RegionOpen:
		w.openRegion(ctx, instr, queue)
	case RegionClose:
		w.closeRegion(instr, true)
	case RegionCloseWithoutReport:
		w.closeRegion(instr, false)
	case RegionServerQuiesce:
		w.quiesce()
	}
}

// openRegion constructs the region (spec: "loads WAL replay and on-disk
// state" -- here, region.New's store-open path), requests an immediate
// compaction check, installs it into online under the registry's
// exclusive lock, and appends REPORT_OPEN. While open is in progress,
// this method's progress marker (see OpeningNow) is what housekeeping
// re-announces to the master (spec §9); queued opens are not re-announced.
func (w *Worker) openRegion(ctx context.Context, instr Instruction, queue *InstructionQueue) {
	w.markOpening(instr.RegionName, true)
	defer w.markOpening(instr.RegionName, false)

	r, err := region.New(instr.Descriptor, time.Now(), w.dataDir)
	if err != nil {
		w.retryOrLog(ctx, instr, queue, err)
		return
	}
	if w.walFloor != nil {
		r.AdvanceSequenceFloor(w.walFloor())
	}

	if w.compactor != nil {
		w.compactor.Request(r.Name)
	}

	if !w.registry.Open(r) {
		// idempotent: already online, close the just-built duplicate.
		_ = r.Close(true)
		return
	}
	if w.setOnline != nil {
		w.setOnline(w.registry.Len())
	}
	w.outbound.Append(ReportOpen, r.Name)
}

func (w *Worker) closeRegion(instr Instruction, report bool) {
	err := w.registry.Close(instr.RegionName, false, func() {
		if report {
			w.outbound.Append(ReportClose, instr.RegionName)
		}
	})
	if err != nil {
		log.Printf("worker: close %s: %v", instr.RegionName, err)
		return
	}
	if w.setOnline != nil {
		w.setOnline(w.registry.Len())
	}
}

// quiesce implements REGIONSERVER_QUIESCE (spec §4.2, §4.7): close user
// regions and enqueue REPORT_QUIESCED, or REPORT_EXITING if nothing
// (necessarily meta/root) remains online.
func (w *Worker) quiesce() {
	closed := w.registry.CloseUserRegions()
	for _, r := range closed {
		w.outbound.Append(ReportClose, r.Name)
	}
	if w.setOnline != nil {
		w.setOnline(w.registry.Len())
	}
	if w.registry.Empty() {
		w.outbound.Append(ReportExiting, "")
	} else {
		w.outbound.Append(ReportQuiesced, "")
	}
}

// retryOrLog probes the filesystem, then requeues the instruction while
// under numRetries, otherwise logs and drops it (spec §4.2 "On
// exception"). Errors are not classified: any open error is retried
// unless the probe fails, in which case the instruction is dropped.
func (w *Worker) retryOrLog(ctx context.Context, instr Instruction, queue *InstructionQueue, err error) {
	log.Printf("worker: open %s failed: %v", instr.RegionName, err)
	if w.watchdog != nil && !w.watchdog.Check() {
		return // bad filesystem breaks the loop; do not requeue
	}
	if instr.Retries < w.numRetries {
		instr.Retries++
		select {
		case <-ctx.Done():
		case <-time.After(w.cfg.ThreadWakeFrequency):
			queue.TryPush(instr)
		}
	}
}

func (w *Worker) markOpening(name string, opening bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if opening {
		w.openInProgress[name] = true
	} else {
		delete(w.openInProgress, name)
	}
}

// OpeningNow returns the region names currently mid-open, used by the
// main loop's housekeeping to re-announce REPORT_PROCESS_OPEN even for
// entries already dequeued but not yet installed in online (spec §9).
func (w *Worker) OpeningNow() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.openInProgress))
	for name := range w.openInProgress {
		out = append(out, name)
	}
	return out
}
