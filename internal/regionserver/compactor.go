package regionserver

import (
	"context"
	"log"
	"sync"
	"time"

	"regionserver/internal/catalog"
	"regionserver/internal/region"
)

// Compactor is the dedicated compaction/split thread of spec.md §4.4: a
// FIFO compaction queue plus a suppression set, and the split protocol
// that follows a positive compactStores() verdict.
type Compactor struct {
	cfg      Config
	registry *Registry
	watchdog *Watchdog
	catalog  *catalog.Catalog
	outbound *OutboundBuffer

	queue chan string

	mu       sync.Mutex
	suppress map[string]bool
	working  sync.Mutex
}

// NewCompactor constructs a Compactor.
func NewCompactor(cfg Config, registry *Registry, wd *Watchdog, cat *catalog.Catalog, outbound *OutboundBuffer, queueDepth int) *Compactor {
	return &Compactor{
		cfg: cfg, registry: registry, watchdog: wd, catalog: cat, outbound: outbound,
		queue: make(chan string, queueDepth), suppress: make(map[string]bool),
	}
}

// Request enqueues a region for compaction; idempotent while already
// queued. This is the function value the Flusher hands off to when
// FlushCache reports needsCompaction (spec §9's "flush requester ->
// compactor" capability, in the opposite direction).
func (c *Compactor) Request(regionName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.suppress[regionName] {
		return
	}
	c.suppress[regionName] = true
	select {
	case c.queue <- regionName:
	default:
		delete(c.suppress, regionName)
	}
}

// Run drives the periodic poll and the work loop until ctx is canceled.
func (c *Compactor) Run(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.SplitCompactCheckFrequency)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// periodic poll finds nothing new on its own; compaction here is
			// purely request-driven, following the FIFO-plus-suppression
			// design spec §4.4 describes without a separate scan phase.
		case name := <-c.queue:
			c.workStep(name)
		}
	}
}

func (c *Compactor) workStep(name string) {
	c.mu.Lock()
	delete(c.suppress, name)
	c.mu.Unlock()

	r, err := c.registry.Get(name, false)
	if err != nil {
		return
	}

	c.working.Lock()
	defer c.working.Unlock()

	splitDue, err := r.CompactStores()
	if err != nil {
		log.Printf("compactor: compact %s: %v", name, err)
		if c.watchdog != nil {
			c.watchdog.Check()
		}
		return
	}
	if splitDue {
		c.split(r)
	}
}

// split performs the split protocol of spec §4.4 steps 1-5.
func (c *Compactor) split(r *region.Region) {
	childA, childB, ok := r.Split()
	if !ok {
		return // step 1: region declined the split (no-op)
	}

	// closing(name): move parent to retiring so in-flight scanners can
	// still complete (region-unavailability callback, spec §4.4).
	c.registry.MarkRetiring(r.Name)
	r.MarkUnavailable()

	target := catalog.Meta
	if r.Descriptor.IsMetaTable {
		target = catalog.Root
	}

	// Step 3: single atomic update marking the parent offline+split with
	// both child descriptors, durable before any child insertion (spec
	// §5 ordering guarantee, §8 property 3).
	if err := c.catalog.MarkSplit(target, r.Name, childA, childB); err != nil {
		log.Printf("compactor: catalog mark split %s: %v", r.Name, err)
		if c.watchdog != nil {
			c.watchdog.Check()
		}
		return
	}

	// Step 4: separate atomic updates inserting each child's descriptor.
	if err := c.catalog.InsertChild(target, childA); err != nil {
		log.Printf("compactor: catalog insert child A of %s: %v", r.Name, err)
		return
	}
	if err := c.catalog.InsertChild(target, childB); err != nil {
		log.Printf("compactor: catalog insert child B of %s: %v", r.Name, err)
		return
	}

	// Step 5: emit REPORT_SPLIT then REPORT_OPEN for each child, in
	// order. The server does not begin serving the children itself.
	c.outbound.Append(ReportSplit, r.Name)
	c.outbound.Append(ReportOpen, childA.Name(r.Created))
	c.outbound.Append(ReportOpen, childB.Name(r.Created))

	// The parent's replacement is now durable in the catalog; close its
	// stores and run the closed(name) callback so it leaves retiring
	// instead of leaking there forever (spec §3's online->retiring->∅).
	if err := r.Close(false); err != nil {
		log.Printf("compactor: close split parent %s: %v", r.Name, err)
	}
	c.Closed(r.Name)
}

// Closed is the "closed(name)" region-unavailability callback: removes
// name from retiring once its final close completes (spec §4.4).
func (c *Compactor) Closed(name string) { c.registry.Retired(name) }
