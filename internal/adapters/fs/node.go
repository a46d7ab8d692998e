package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/rebuild/internal/core/ports"
)

// HasherNodeID is the unique identifier for the artifact hasher Graft node.
const HasherNodeID graft.ID = "adapter.artifact_hasher"

func init() {
	graft.Register(graft.Node[ports.ArtifactHasher]{
		ID:        HasherNodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.ArtifactHasher, error) {
			return NewHasher(), nil
		},
	})
}
