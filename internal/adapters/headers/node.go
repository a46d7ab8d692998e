package headers

import (
	"context"
	"os"
	"path/filepath"

	"github.com/grindlemire/graft"
	"go.trai.ch/rebuild/internal/adapters/logger"
	"go.trai.ch/rebuild/internal/core/ports"
)

// NodeID is the unique identifier for the header provisioner Graft node.
const NodeID graft.ID = "adapter.header_provisioner"

func init() {
	graft.Register(graft.Node[ports.HeaderProvisioner]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.HeaderProvisioner, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			cacheRoot, err := os.UserCacheDir()
			if err != nil {
				cacheRoot = os.TempDir()
			}
			cacheDir := filepath.Join(cacheRoot, "rebuild", "headers")

			return NewProvisioner(cacheDir, log, true), nil
		},
	})
}
