package schedule

import (
	"context"
	"fmt"

	"github.com/hearthforge/loom"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Scheduler holds the per-phase system lists and runs them against a
// World following spec.md §4.7's four-step algorithm. One Scheduler can
// drive many worlds; it carries no world-specific state itself beyond
// the registered systems.
type Scheduler struct {
	systems map[Phase][]loom.System
	ledger  *Ledger
	workers int
}

// New constructs a Scheduler bounding parallel bundle execution to
// workers goroutines at a time (0 or negative means unbounded, subject
// only to however many bundles a group actually contains). Callers
// drive this from the World they intend to run against, e.g.
// schedule.New(w.Config().WorkerCount()), so the bound tracks
// Config.Workers (spec.md §7: "bounded by a semaphore.Weighted sized
// to Config.Workers") rather than an independently chosen constant.
func New(workers int) *Scheduler {
	return &Scheduler{systems: make(map[Phase][]loom.System), ledger: NewLedger(), workers: workers}
}

// AddSystem appends sys to phase's system list, per spec.md §6
// ("schedule.add_system(phase, system)"). Registration order is the
// tie-break DSATUR uses and the order bundle members run in.
func (s *Scheduler) AddSystem(phase Phase, sys loom.System) {
	s.systems[phase] = append(s.systems[phase], sys)
}

// Run executes every system registered against phase, per spec.md §6
// ("schedule.run(phase, &mut world, &executor)") and §4.7's four steps:
// exclusive-world systems run sequentially first; the rest are bundled
// by identical access, colored into conflict-free groups, and each
// group runs its bundles concurrently before the command buffer flushes.
// A panic from any system aborts the phase: it is recovered and returned
// from Run as an error, no further group runs, and the commands queued
// by the aborted group are not flushed (earlier groups were), matching
// spec.md §7's "the scheduler surfaces the panic at phase boundary and
// aborts the phase (no further groups)".
func (s *Scheduler) Run(ctx context.Context, phase Phase, w *loom.World) error {
	all := s.systems[phase]
	if len(all) == 0 {
		return nil
	}

	var exclusive []loom.System
	var shared []loom.System
	for _, sys := range all {
		if sys.RequiredAccess().IsExclusiveWorld() {
			exclusive = append(exclusive, sys)
		} else {
			shared = append(shared, sys)
		}
	}

	// Step 1: exclusive-world systems run sequentially at phase entry.
	for _, sys := range exclusive {
		if err := s.runExclusive(w, sys); err != nil {
			return err
		}
	}
	if err := w.FlushCommands(); err != nil {
		return err
	}

	if len(shared) == 0 {
		return nil
	}

	// Step 2: bundle by identical access.
	bundles := bundleSystems(shared)

	// Step 3: DSATUR-color the conflict graph over bundles.
	colors := colorBundles(len(bundles), func(i, j int) bool {
		return bundles[i].Access().Conflicts(bundles[j].Access())
	})
	groupCount := 0
	for _, c := range colors {
		if c+1 > groupCount {
			groupCount = c + 1
		}
	}
	groups := make([][]*Bundle, groupCount)
	for i, c := range colors {
		groups[c] = append(groups[c], bundles[i])
	}

	// Step 4: run groups in order; bundles within a group in parallel;
	// flush the command buffer after each group completes.
	for _, group := range groups {
		if err := s.runGroup(ctx, w, group); err != nil {
			return err
		}
		if err := w.FlushCommands(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) runExclusive(w *loom.World, sys loom.System) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("loom/schedule: system panicked: %v", r)
		}
	}()
	grant := s.ledger.Issue(sys.RequiredAccess())
	defer s.ledger.Release(grant)
	sys.Run(w)
	return nil
}

func (s *Scheduler) runGroup(ctx context.Context, w *loom.World, group []*Bundle) error {
	grp, gctx := errgroup.WithContext(ctx)
	var sem *semaphore.Weighted
	if s.workers > 0 {
		sem = semaphore.NewWeighted(int64(s.workers))
	}

	for _, bundle := range group {
		bundle := bundle
		grp.Go(func() (err error) {
			if sem != nil {
				if err := sem.Acquire(gctx, 1); err != nil {
					return err
				}
				defer sem.Release(1)
			}
			defer func() {
				if r := recover(); r != nil {
					err = errors.Errorf("loom/schedule: bundle panicked: %v", r)
				}
			}()

			grant := s.ledger.Issue(bundle.Access())
			shard := Shard{world: w, grant: grant, ledger: s.ledger}
			defer shard.Release()

			// Within a bundle: systems execute in registration order on
			// the same shard (spec.md §5).
			for _, sys := range bundle.systems {
				sys.Run(shard.World())
			}
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return fmt.Errorf("loom/schedule: group aborted: %w", err)
	}
	return nil
}
