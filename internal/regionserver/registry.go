package regionserver

import (
	"sync"

	"github.com/google/btree"
	"golang.org/x/exp/maps"

	"regionserver/internal/region"
)

// nameItem adapts a *region.Region into a btree.Item ordered by region
// name, giving the "online" map the ordered-by-name semantics spec.md §3
// names explicitly ("ordered mapping by region name").
type nameItem struct {
	name string
	r    *region.Region
}

func (a nameItem) Less(than btree.Item) bool { return a.name < than.(nameItem).name }

// Registry holds the two region maps of spec §3: online (ordered by
// name, eligible to serve) and retiring (closing, but still serving
// in-flight scanners). Both are guarded by one read-write lock; readers
// take the shared side, any mutation takes the exclusive side (spec §4.7,
// §5 "shared-resource policy").
//
// Invariant (spec §8.1): every region name is in at most one of
// online/retiring at any instant.
type Registry struct {
	mu       sync.RWMutex
	online   *btree.BTree
	retiring map[string]*region.Region
	quiesced bool
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{online: btree.New(32), retiring: make(map[string]*region.Region)}
}

// Open installs r into online. Idempotent: a no-op if r's name is already
// online (spec §4.7 "openRegion(info): idempotent").
func (reg *Registry) Open(r *region.Region) (installed bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	item := nameItem{name: r.Name}
	if reg.online.Get(item) != nil {
		return false
	}
	reg.online.ReplaceOrInsert(nameItem{name: r.Name, r: r})
	return true
}

// Get performs a shared-lock lookup, consulting retiring only if
// checkRetiring is set (spec §4.7 "getRegion").
func (reg *Registry) Get(name string, checkRetiring bool) (*region.Region, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	if item := reg.online.Get(nameItem{name: name}); item != nil {
		return item.(nameItem).r, nil
	}
	if checkRetiring {
		if r, ok := reg.retiring[name]; ok {
			return r, nil
		}
	}
	return nil, NotServingRegion(name)
}

// Close removes name from online, closes the region outside the lock, and
// optionally reports the closure via appendClose (spec §4.7
// "closeRegion(info, report)").
func (reg *Registry) Close(name string, skipFinalFlush bool, appendClose func()) error {
	reg.mu.Lock()
	item := reg.online.Delete(nameItem{name: name})
	reg.mu.Unlock()
	if item == nil {
		return NotServingRegion(name)
	}
	r := item.(nameItem).r
	if err := r.Close(skipFinalFlush); err != nil {
		return err
	}
	if appendClose != nil {
		appendClose()
	}
	return nil
}

// CloseAll drains online into a local list, clears the map, and closes
// each region, passing skipFinalFlush (true on abort, so regions skip
// final flushes since WAL replay will recover them). Returns the closed
// list (spec §4.7 "closeAllRegions").
func (reg *Registry) CloseAll(skipFinalFlush bool) []*region.Region {
	reg.mu.Lock()
	var closed []*region.Region
	reg.online.Ascend(func(item btree.Item) bool {
		closed = append(closed, item.(nameItem).r)
		return true
	})
	reg.online = btree.New(32)
	reg.mu.Unlock()

	for _, r := range closed {
		_ = r.Close(skipFinalFlush)
	}
	return closed
}

// CloseUserRegions closes every online region except meta/root regions,
// then marks the registry quiesced (spec §4.7 "closeUserRegions").
// The caller decides which of REPORT_EXITING/REPORT_QUIESCED to enqueue
// based on whether any region (necessarily meta/root) remains online.
func (reg *Registry) CloseUserRegions() (closed []*region.Region) {
	reg.mu.Lock()
	var toClose []*region.Region
	reg.online.Ascend(func(item btree.Item) bool {
		r := item.(nameItem).r
		if !r.Descriptor.IsMetaTable && !r.Descriptor.IsRootTable {
			toClose = append(toClose, r)
		}
		return true
	})
	for _, r := range toClose {
		reg.online.Delete(nameItem{name: r.Name})
	}
	reg.quiesced = true
	reg.mu.Unlock()

	for _, r := range toClose {
		_ = r.Close(false)
	}
	return toClose
}

// Quiesced reports whether CloseUserRegions has run for this server
// generation.
func (reg *Registry) Quiesced() bool {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.quiesced
}

// Empty reports whether the online map is empty, the condition that lets
// the main loop finish quiescing (spec §4.1 step 7).
func (reg *Registry) Empty() bool {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.online.Len() == 0
}

// Len returns the online region count, published in every heartbeat's
// load snapshot.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.online.Len()
}

// MarkRetiring moves name from online to retiring under the exclusive
// lock, the "closing" region-unavailability callback the compactor
// invokes mid-split so in-flight scanners can still complete (spec §4.4).
func (reg *Registry) MarkRetiring(name string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	item := reg.online.Delete(nameItem{name: name})
	if item == nil {
		return
	}
	reg.retiring[name] = item.(nameItem).r
}

// Retired removes name from retiring, the "closed" region-unavailability
// callback (spec §4.4).
func (reg *Registry) Retired(name string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.retiring, name)
}

// RetiringNames returns the names currently retiring (mid-split or
// mid-close, still serving in-flight scanners), used by status reporting.
func (reg *Registry) RetiringNames() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return maps.Keys(reg.retiring)
}

// Snapshot returns the current online regions in name order, used by
// housekeeping and metrics; it takes the shared lock only for the
// duration of the copy.
func (reg *Registry) Snapshot() []*region.Region {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]*region.Region, 0, reg.online.Len())
	reg.online.Ascend(func(item btree.Item) bool {
		out = append(out, item.(nameItem).r)
		return true
	})
	return out
}
