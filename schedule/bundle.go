package schedule

import "github.com/hearthforge/loom"

// Bundle is a single execution unit: one or more systems whose declared
// access sets are identical, sharing one shard (spec.md §4.7 step 2).
// Within a bundle, systems run in registration order on the same shard
// (spec.md §5: "Within a bundle: systems execute in registration order").
type Bundle struct {
	systems []loom.System
	access  loom.AccessRequest
}

// Access returns the bundle's shared access request.
func (b *Bundle) Access() loom.AccessRequest { return b.access }

// bundleSystems groups systems into bundles by identical
// AccessRequest.CanonicalKey(), preserving first-seen order so bundling
// is deterministic across runs of the same system list.
func bundleSystems(systems []loom.System) []*Bundle {
	order := make([]string, 0)
	byKey := make(map[string]*Bundle)
	for _, sys := range systems {
		req := sys.RequiredAccess()
		key := req.CanonicalKey()
		b, ok := byKey[key]
		if !ok {
			b = &Bundle{access: req}
			byKey[key] = b
			order = append(order, key)
		}
		b.systems = append(b.systems, sys)
	}
	out := make([]*Bundle, len(order))
	for i, key := range order {
		out[i] = byKey[key]
	}
	return out
}
