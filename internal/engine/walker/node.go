package walker

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/rebuild/internal/adapters/manifest" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/rebuild/internal/core/ports"
)

// NodeID is the unique identifier for the walker Graft node.
const NodeID graft.ID = "engine.walker"

func init() {
	graft.Register(graft.Node[*Walker]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{manifest.NodeID},
		Run: func(ctx context.Context) (*Walker, error) {
			reader, err := graft.Dep[ports.ManifestReader](ctx)
			if err != nil {
				return nil, err
			}
			return NewWalker(reader), nil
		},
	})
}
