package schedule

import "github.com/hearthforge/loom"

// Shard is a handle used to access the world under a prevalidated
// access grant (spec.md §4.7). It carries the grant and the world
// pointer; it is transferable to exactly one worker goroutine at a
// time (spec.md §5: "Workers receive Shard handles which are
// transferable to exactly one worker at a time"), never shared.
type Shard struct {
	world  *loom.World
	grant  AccessGrant
	ledger *Ledger
}

// World returns the shard's world pointer. Systems run against this
// instead of capturing the *loom.World directly, so the shard's
// lifetime governs how long the access grant stays valid.
func (s Shard) World() *loom.World { return s.world }

// Release returns the shard's grant to the ledger. Called by the
// scheduler once the owning bundle's systems have all run.
func (s Shard) Release() { s.ledger.Release(s.grant) }
