package ports

import (
	"context"

	"go.trai.ch/rebuild/internal/core/domain"
)

// HeaderProvisioner acquires the header/toolchain bundle matching a target
// identity and returns the local directory native builds should compile
// against.
//
// The bundle cache directory is shared read-mostly across concurrent module
// builds; implementations must tolerate concurrent first-time provisioning
// with acquire-once semantics.
//
//go:generate mockgen -source=headers.go -destination=mocks/mock_headers.go -package=mocks
type HeaderProvisioner interface {
	// Ensure makes the bundle for target available locally and returns its
	// directory. Failures are wrapped as domain.ErrHeadersUnavailable and
	// are fatal for every candidate needing that identity.
	Ensure(ctx context.Context, target domain.TargetIdentity) (string, error)
}
