// Package scheduler drives module rebuilds with bounded concurrency and an
// observable lifecycle event stream.
package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.trai.ch/rebuild/internal/core/domain"
	"go.trai.ch/rebuild/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// buildParallelism bounds concurrent native builds. External compiles fan
// out their own jobs, so this stays a small engine constant rather than a
// user-tunable knob.
const buildParallelism = 4

// Scheduler owns candidate filtering, cache consultation, build dispatch
// and lifecycle event emission. It is the sole producer of lifecycle
// events.
type Scheduler struct {
	cache   ports.ABICache
	invoker ports.BuildInvoker
	events  ports.EventSink
	logger  ports.Logger
}

// NewScheduler creates a new Scheduler. The event sink is attached here,
// before any dispatch, so consumers never miss early events.
func NewScheduler(
	cache ports.ABICache,
	invoker ports.BuildInvoker,
	events ports.EventSink,
	logger ports.Logger,
) *Scheduler {
	return &Scheduler{
		cache:   cache,
		invoker: invoker,
		events:  events,
		logger:  logger,
	}
}

// Run processes the candidates against opts.Target and settles once every
// included candidate has reached a terminal outcome.
//
// Candidates excluded by the allow-list produce no events at all. Skip
// decisions are synchronous; builds run under the worker pool. A single
// module's failure never halts other in-flight or queued builds; if any
// module fails the aggregate error lists exactly the failed modules.
// Cancellation is cooperative at dispatch boundaries: candidates not yet
// started are dropped without further events.
func (s *Scheduler) Run(ctx context.Context, candidates []domain.ModuleCandidate, opts ports.RunOptions) ([]domain.BuildOutcome, error) {
	selected := filterByName(candidates, opts.OnlyModules)

	outcomes := make([]domain.BuildOutcome, 0, len(selected))
	var toBuild []domain.ModuleCandidate

	// Phase 1: discovery and cache consultation, synchronous so the
	// found/skip ordering per candidate is trivially strict.
	for _, candidate := range selected {
		s.events.Publish(domain.LifecycleEvent{
			Kind:      domain.EventFound,
			Candidate: candidate,
		})

		if !s.cache.ShouldBuild(candidate, opts.Target, opts.Force) {
			s.events.Publish(domain.LifecycleEvent{
				Kind:      domain.EventSkip,
				Candidate: candidate,
				Detail:    "already built for " + opts.Target.String(),
			})
			outcomes = append(outcomes, domain.BuildOutcome{
				Candidate: candidate,
				Status:    domain.OutcomeSkipped,
			})
			continue
		}

		toBuild = append(toBuild, candidate)
	}

	// Phase 2: bounded concurrent builds. The group carries no cancel of
	// its own: there is deliberately no fail-fast between modules.
	var mu sync.Mutex
	var dropped bool

	g := new(errgroup.Group)
	g.SetLimit(buildParallelism)

	for _, candidate := range toBuild {
		g.Go(func() error {
			// Dispatch boundary: a cancelled run drops queued candidates
			// without emitting further events for them.
			if ctx.Err() != nil {
				mu.Lock()
				dropped = true
				mu.Unlock()
				return nil
			}

			outcome := s.buildOne(ctx, candidate, opts.Target)

			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return outcomes, s.settle(ctx, outcomes, dropped)
}

// buildOne runs one candidate through start and its terminal event.
func (s *Scheduler) buildOne(ctx context.Context, candidate domain.ModuleCandidate, target domain.TargetIdentity) domain.BuildOutcome {
	s.events.Publish(domain.LifecycleEvent{
		Kind:      domain.EventStart,
		Candidate: candidate,
		Detail:    target.String(),
	})

	err := s.invoker.Build(ctx, candidate, target)

	switch {
	case err == nil:
		s.events.Publish(domain.LifecycleEvent{
			Kind:      domain.EventDone,
			Candidate: candidate,
		})
		return domain.BuildOutcome{Candidate: candidate, Status: domain.OutcomeBuilt}

	case errors.Is(err, domain.ErrRecordWriteFailed):
		// The build itself succeeded; the unpersisted record only costs a
		// redundant rebuild next run.
		s.logger.Warn("cache record not persisted for " + candidate.Name.String() + ": " + err.Error())
		s.events.Publish(domain.LifecycleEvent{
			Kind:      domain.EventDone,
			Candidate: candidate,
			Detail:    "cache record not persisted",
		})
		return domain.BuildOutcome{Candidate: candidate, Status: domain.OutcomeBuilt, Warning: err}

	default:
		s.events.Publish(domain.LifecycleEvent{
			Kind:      domain.EventFailed,
			Candidate: candidate,
			Detail:    err.Error(),
		})
		return domain.BuildOutcome{Candidate: candidate, Status: domain.OutcomeFailed, Err: err}
	}
}

// settle computes the aggregate result of a run.
func (s *Scheduler) settle(ctx context.Context, outcomes []domain.BuildOutcome, dropped bool) error {
	var failedNames []string
	var errs error

	for _, outcome := range outcomes {
		if outcome.Status != domain.OutcomeFailed {
			continue
		}
		failedNames = append(failedNames, outcome.Candidate.Name.String())
		errs = errors.Join(errs, zerr.With(outcome.Err, "module", outcome.Candidate.Name.String()))
	}

	if len(failedNames) > 0 {
		aggregate := zerr.With(domain.ErrRebuildFailed, "failed_modules", strings.Join(failedNames, ", "))
		errs = errors.Join(aggregate, errs)
	}
	if dropped || ctx.Err() != nil {
		errs = errors.Join(errs, ctx.Err())
	}
	return errs
}

// filterByName applies the allow-list. An empty list selects everything;
// otherwise a candidate is selected iff its logical name is listed, however
// many physical copies it has.
func filterByName(candidates []domain.ModuleCandidate, only []string) []domain.ModuleCandidate {
	if len(only) == 0 {
		return candidates
	}

	allowed := make(map[string]bool, len(only))
	for _, name := range only {
		allowed[name] = true
	}

	selected := make([]domain.ModuleCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		if allowed[candidate.Name.String()] {
			selected = append(selected, candidate)
		}
	}
	return selected
}
