package ports

import "go.trai.ch/rebuild/internal/core/domain"

// RunOptions are the caller-supplied options of one orchestration run,
// resolved once at the boundary. The engine never reads ambient process
// state; everything it needs is carried here.
type RunOptions struct {
	// Target is the ABI identity to rebuild against.
	Target domain.TargetIdentity

	// OnlyModules restricts processing to the listed logical module names.
	// Empty means all. Membership does not imply force: an allow-listed
	// module with a matching cache record is still skipped unless Force is
	// set. Candidates excluded by the list produce no lifecycle events.
	OnlyModules []string

	// Force rebuilds every selected candidate regardless of cache records.
	Force bool

	// DistURL overrides the base URL header bundles are fetched from.
	DistURL string
}

// ConfigLoader resolves run options from configuration files and defaults.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads configuration from the given working directory and returns
	// the defaults a CLI invocation starts from.
	Load(cwd string) (*RunOptions, error)
}
