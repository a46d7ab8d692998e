package abicache

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/rebuild/internal/core/ports"
)

// NodeID is the unique identifier for the ABI cache Graft node.
const NodeID graft.ID = "adapter.abi_cache"

func init() {
	graft.Register(graft.Node[ports.ABICache]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.ABICache, error) {
			return NewCache(), nil
		},
	})
}
