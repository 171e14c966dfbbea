package loom

// Param is one system parameter kind in the System Parameter Protocol
// (spec.md §4.6): T is the value a system function actually receives.
// RequiredAccess feeds the scheduler's conflict detector; Fetch produces
// T for one system invocation. Unlike a two-stage State/Get split, this
// runtime's Views and Resources already carry their own compiled state
// (a QueryPlan, a ResourceKey) by the time they're wrapped in a Param,
// so Fetch needs nothing beyond the World.
type Param[T any] interface {
	RequiredAccess() AccessRequest
	Fetch(w *World) T
}

// QueryParam adapts any of this package's View implementations (View1,
// View2, View2Opt1, View3, View4, EntityView) into a Param, so the
// scheduler can merge its access alongside every other parameter kind
// without a per-arity wrapper type.
type QueryParam[V View] struct{ view V }

// NewQueryParam wraps an already-constructed View.
func NewQueryParam[V View](view V) QueryParam[V] { return QueryParam[V]{view: view} }

// RequiredAccess returns the wrapped view's declared access.
func (p QueryParam[V]) RequiredAccess() AccessRequest { return p.view.access() }

// Fetch returns the wrapped view unchanged; the view itself is reused
// across invocations (its QueryPlan never needs rebuilding).
func (p QueryParam[V]) Fetch(w *World) V { return p.view }

// ResourceParam grants read or write access to a single registered
// resource, per spec.md §4.6 ("shared resource, exclusive resource").
type ResourceParam[T any] struct {
	res  Resource[T]
	mode AccessMode
}

// NewResourceParam builds a ResourceParam for res with the given mode.
func NewResourceParam[T any](res Resource[T], mode AccessMode) ResourceParam[T] {
	return ResourceParam[T]{res: res, mode: mode}
}

// RequiredAccess returns a single-entry request naming the resource.
func (p ResourceParam[T]) RequiredAccess() AccessRequest {
	return NewAccessRequest(AccessEntry{Key: ResourceAccessKey(p.res.Key()), Mode: p.mode})
}

// Fetch returns a pointer to the resource's current value.
func (p ResourceParam[T]) Fetch(w *World) *T { return p.res.Get(w) }

// WorldParam is spec.md §4.6's "shared world reference (exclusive-world
// marker)": any system declaring it is forced into its own sequential
// phase, since it may touch anything.
type WorldParam struct{}

// RequiredAccess reports whole-world exclusivity.
func (WorldParam) RequiredAccess() AccessRequest { return AccessRequest{}.World() }

// Fetch returns w itself.
func (WorldParam) Fetch(w *World) *World { return w }

// CommandsParam is spec.md §4.6's "deferred-command handle". It never
// conflicts with anything — the buffer it hands out is single-producer
// and only consumed after the scheduler's group barrier — so its
// RequiredAccess is empty.
type CommandsParam struct{}

// RequiredAccess returns an empty request.
func (CommandsParam) RequiredAccess() AccessRequest { return AccessRequest{} }

// Fetch returns a fresh Commands bound to w, owned by the calling
// system for the remainder of its invocation.
func (CommandsParam) Fetch(w *World) *Commands { return newCommands(w) }

// ProducerParam is spec.md §6's event Producer parameter kind.
type ProducerParam[E any] struct{}

// RequiredAccess names E's producer-side key with write access, so two
// systems both producing E conflict, per spec.md §6.
func (ProducerParam[E]) RequiredAccess() AccessRequest {
	return NewAccessRequest(AccessEntry{Key: producerKey[E](), Mode: AccessWrite})
}

// Fetch returns a Producer[E] handle.
func (ProducerParam[E]) Fetch(w *World) Producer[E] { return NewProducer[E](w) }

// ConsumerParam is spec.md §6's event Consumer parameter kind.
type ConsumerParam[E any] struct{}

// RequiredAccess names E's consumer-side key with read access, so any
// number of consuming systems coexist without conflict, per spec.md §6.
func (ConsumerParam[E]) RequiredAccess() AccessRequest {
	return NewAccessRequest(AccessEntry{Key: consumerKey[E](), Mode: AccessRead})
}

// Fetch returns a Consumer[E] handle.
func (ConsumerParam[E]) Fetch(w *World) Consumer[E] { return NewConsumer[E](w) }

// System is the common handle the scheduler (the schedule subpackage)
// works with: its declared access plus a way to run it once against a
// World. Concrete arities (System1..System4) implement it by fetching
// each of their Params and calling a typed Go function — a bounded,
// hand-written stand-in for spec.md §4.6's arbitrary-arity system
// functions, matching the realistic ceiling View1..View4 already impose
// (Go has no variadic generics; see SPEC_FULL.md §6).
type System interface {
	RequiredAccess() AccessRequest
	Run(w *World)
}

// System1 runs fn with one fetched parameter each invocation.
type System1[P1 any] struct {
	P1 Param[P1]
	Fn func(P1)
}

func (s System1[P1]) RequiredAccess() AccessRequest { return s.P1.RequiredAccess() }
func (s System1[P1]) Run(w *World)                  { s.Fn(s.P1.Fetch(w)) }

// System2 runs fn with two fetched parameters each invocation.
type System2[P1, P2 any] struct {
	P1 Param[P1]
	P2 Param[P2]
	Fn func(P1, P2)
}

func (s System2[P1, P2]) RequiredAccess() AccessRequest {
	return s.P1.RequiredAccess().Merge(s.P2.RequiredAccess())
}
func (s System2[P1, P2]) Run(w *World) { s.Fn(s.P1.Fetch(w), s.P2.Fetch(w)) }

// System3 runs fn with three fetched parameters each invocation.
type System3[P1, P2, P3 any] struct {
	P1 Param[P1]
	P2 Param[P2]
	P3 Param[P3]
	Fn func(P1, P2, P3)
}

func (s System3[P1, P2, P3]) RequiredAccess() AccessRequest {
	return s.P1.RequiredAccess().Merge(s.P2.RequiredAccess()).Merge(s.P3.RequiredAccess())
}
func (s System3[P1, P2, P3]) Run(w *World) {
	s.Fn(s.P1.Fetch(w), s.P2.Fetch(w), s.P3.Fetch(w))
}

// System4 runs fn with four fetched parameters each invocation.
type System4[P1, P2, P3, P4 any] struct {
	P1 Param[P1]
	P2 Param[P2]
	P3 Param[P3]
	P4 Param[P4]
	Fn func(P1, P2, P3, P4)
}

func (s System4[P1, P2, P3, P4]) RequiredAccess() AccessRequest {
	return s.P1.RequiredAccess().Merge(s.P2.RequiredAccess()).
		Merge(s.P3.RequiredAccess()).Merge(s.P4.RequiredAccess())
}
func (s System4[P1, P2, P3, P4]) Run(w *World) {
	s.Fn(s.P1.Fetch(w), s.P2.Fetch(w), s.P3.Fetch(w), s.P4.Fetch(w))
}
