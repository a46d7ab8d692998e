// Package app implements the application layer for rebuild.
package app

import (
	"context"

	"go.trai.ch/rebuild/internal/core/domain"
	"go.trai.ch/rebuild/internal/core/ports"
	"go.trai.ch/rebuild/internal/engine/scheduler"
	"go.trai.ch/rebuild/internal/engine/walker"
	"go.trai.ch/zerr"
)

// App represents the main application logic: one call walks an installed
// tree and rebuilds every native addon found there against a target
// identity.
type App struct {
	walker    *walker.Walker
	scheduler *scheduler.Scheduler
	headers   ports.HeaderProvisioner
	logger    ports.Logger
}

// RunResult is the settled outcome of one rebuild run.
type RunResult struct {
	// Outcomes holds one terminal outcome per processed candidate.
	Outcomes []domain.BuildOutcome

	// WalkErrors are the structural errors encountered during discovery.
	// Each aborted only its own subtree; they do not fail the run.
	WalkErrors []error
}

// New creates a new App instance.
func New(w *walker.Walker, sched *scheduler.Scheduler, headers ports.HeaderProvisioner, logger ports.Logger) *App {
	return &App{
		walker:    w,
		scheduler: sched,
		headers:   headers,
		logger:    logger,
	}
}

// Rebuild executes a full rebuild run over the tree rooted at buildPath.
//
// The target is validated up front, the header bundle is provisioned once
// before any build is dispatched (an unavailable bundle fails the run as a
// whole), then discovery and scheduling proceed. A non-nil RunResult is
// returned alongside the aggregate error whenever scheduling ran, so
// callers can report partial progress.
func (a *App) Rebuild(ctx context.Context, buildPath string, opts ports.RunOptions) (*RunResult, error) {
	if err := opts.Target.Validate(); err != nil {
		return nil, err
	}

	if opts.DistURL != "" {
		if p, ok := a.headers.(interface{ SetBaseURL(string) }); ok {
			p.SetBaseURL(opts.DistURL)
		}
	}

	// Provision once up front. Every candidate needs the same bundle, so
	// there is no point discovering work we cannot build.
	if _, err := a.headers.Ensure(ctx, opts.Target); err != nil {
		return nil, zerr.Wrap(err, "failed to provision headers for "+opts.Target.String())
	}

	report, err := a.walker.Walk(buildPath)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to walk dependency tree")
	}
	for _, walkErr := range report.Errors {
		a.logger.Warn("skipped unreadable subtree: " + walkErr.Error())
	}

	outcomes, err := a.scheduler.Run(ctx, report.Candidates, opts)

	return &RunResult{
		Outcomes:   outcomes,
		WalkErrors: report.Errors,
	}, err
}
