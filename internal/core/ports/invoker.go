package ports

import (
	"context"

	"go.trai.ch/rebuild/internal/core/domain"
)

// BuildInvoker drives the external native toolchain to rebuild one module
// against a target identity.
//
//go:generate mockgen -source=invoker.go -destination=mocks/mock_invoker.go -package=mocks
type BuildInvoker interface {
	// Build rebuilds the candidate for target. On success the rebuilt binary
	// has replaced any previously compiled or prebuilt artifact at the
	// module's output location and the ABI cache record has been updated.
	//
	// A failed record write after an otherwise successful build is returned
	// wrapped as domain.ErrRecordWriteFailed; callers treat it as a warning,
	// not a build failure.
	Build(ctx context.Context, candidate domain.ModuleCandidate, target domain.TargetIdentity) error
}
