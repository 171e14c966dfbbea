package loom

import "github.com/pkg/errors"

// Error taxonomy for recoverable conditions (spec.md §7, items 3 and 4).
// Contract violations (item 1) and resource exhaustion (item 2) are
// panics instead, raised inline via bark.AddTrace where they occur.
var (
	// ErrComponentNotFound is returned when reading a component absent
	// from an entity's current table.
	ErrComponentNotFound = errors.New("loom: component not present on entity")

	// ErrWorldLocked names the locked-world condition. World's direct
	// structural mutations do not return it: while the world is locked
	// they are queued and applied once the last lock is released.
	ErrWorldLocked = errors.New("loom: world is locked for iteration/scheduling")
)
