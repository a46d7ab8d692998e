package gyp

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/rebuild/internal/adapters/abicache"
	"go.trai.ch/rebuild/internal/adapters/fs"
	"go.trai.ch/rebuild/internal/adapters/headers"
	"go.trai.ch/rebuild/internal/adapters/logger"
	"go.trai.ch/rebuild/internal/core/ports"
)

// NodeID is the unique identifier for the build invoker Graft node.
const NodeID graft.ID = "adapter.build_invoker"

func init() {
	graft.Register(graft.Node[ports.BuildInvoker]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			abicache.NodeID,
			headers.NodeID,
			fs.HasherNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (ports.BuildInvoker, error) {
			cache, err := graft.Dep[ports.ABICache](ctx)
			if err != nil {
				return nil, err
			}

			provisioner, err := graft.Dep[ports.HeaderProvisioner](ctx)
			if err != nil {
				return nil, err
			}

			hasher, err := graft.Dep[ports.ArtifactHasher](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewInvoker(cache, provisioner, hasher, log), nil
		},
	})
}
