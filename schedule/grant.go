// Package schedule implements the parallel phase scheduler spec.md §4.7
// describes: exclusive-world partitioning, identical-access bundling,
// DSATUR conflict-free coloring, and bounded-parallel group execution
// with a command-buffer flush between groups. It sits above the root
// loom package the way the teacher's storage.go sits above its own
// locking primitives, generalized from a single Storage's lock bitmask
// to a ledger of per-group AccessGrants.
package schedule

import (
	"fmt"
	"sync"

	"github.com/TheBitDrifter/bark"
	"github.com/hearthforge/loom"
)

// AccessGrant is the runtime record of which components/resources a
// shard may touch, per spec.md §4.7 ("Runtime record of which
// components/resources a shard may touch").
type AccessGrant struct {
	id      int
	request loom.AccessRequest
}

// Ledger tracks currently-issued grants and detects overlap at issue
// time — defense-in-depth, since the color planner has already proved
// the groups it hands to Issue are pairwise disjoint (spec.md §4.7).
type Ledger struct {
	mu     sync.Mutex
	nextID int
	active []AccessGrant
}

// NewLedger constructs an empty grant ledger.
func NewLedger() *Ledger { return &Ledger{} }

// Issue records req as an active grant, panicking (contract violation)
// if it overlaps an already-active grant — a bug in the color planner,
// not a recoverable runtime condition.
func (l *Ledger) Issue(req loom.AccessRequest) AccessGrant {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, g := range l.active {
		if g.request.Conflicts(req) {
			panic(bark.AddTrace(fmt.Errorf(
				"loom/schedule: access grant overlap: proposed grant conflicts with active grant %d", g.id)))
		}
	}

	l.nextID++
	grant := AccessGrant{id: l.nextID, request: req}
	l.active = append(l.active, grant)
	return grant
}

// Release removes grant from the active set, called when a shard
// returns its grant after the bundle completes (spec.md §4.7).
func (l *Ledger) Release(grant AccessGrant) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, g := range l.active {
		if g.id == grant.id {
			l.active = append(l.active[:i], l.active[i+1:]...)
			return
		}
	}
}
