package scheduler

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/rebuild/internal/adapters/abicache"  //nolint:depguard // Wired in engine wiring
	"go.trai.ch/rebuild/internal/adapters/gyp"       //nolint:depguard // Wired in engine wiring
	"go.trai.ch/rebuild/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/rebuild/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/rebuild/internal/core/ports"
)

// NodeID is the unique identifier for the scheduler Graft node.
const NodeID graft.ID = "engine.scheduler"

func init() {
	graft.Register(graft.Node[*Scheduler]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			abicache.NodeID,
			gyp.NodeID,
			telemetry.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Scheduler, error) {
			cache, err := graft.Dep[ports.ABICache](ctx)
			if err != nil {
				return nil, err
			}

			invoker, err := graft.Dep[ports.BuildInvoker](ctx)
			if err != nil {
				return nil, err
			}

			events, err := graft.Dep[ports.EventSink](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewScheduler(cache, invoker, events, log), nil
		},
	})
}
