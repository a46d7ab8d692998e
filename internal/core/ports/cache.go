package ports

import "go.trai.ch/rebuild/internal/core/domain"

// ABICache decides whether a module's last successful build already matches
// a target identity, and records new successful builds. Records live next to
// each module's build output; there is no cross-module shared state.
//
//go:generate mockgen -source=cache.go -destination=mocks/mock_cache.go -package=mocks
type ABICache interface {
	// ShouldBuild reports whether the candidate needs a build for the given
	// target. It is true unconditionally when force is set, and otherwise
	// true when no valid record exists or the stored identity differs from
	// target in any field. A corrupt record counts as absent.
	ShouldBuild(candidate domain.ModuleCandidate, target domain.TargetIdentity, force bool) bool

	// Record persists the target identity for the candidate. It must be
	// called only after a successful build and overwrites any prior record
	// atomically: a partially written record is never observable as valid.
	Record(candidate domain.ModuleCandidate, target domain.TargetIdentity) error
}
