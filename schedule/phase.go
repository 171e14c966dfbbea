package schedule

// Phase names a point in the frame where a batch of systems runs, per
// spec.md §4.7 ("an ordered list of systems per phase (e.g., PreUpdate,
// Update, PostUpdate)"). The frame loop that decides when to invoke
// each phase is an external collaborator (spec.md §1 lists the outer
// frame loop as explicitly out of scope); this package only orders and
// runs the systems registered against a phase once asked to.
type Phase string

const (
	PreUpdate  Phase = "PreUpdate"
	Update     Phase = "Update"
	PostUpdate Phase = "PostUpdate"
)
