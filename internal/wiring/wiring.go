// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/rebuild/internal/adapters/abicache"
	_ "go.trai.ch/rebuild/internal/adapters/config"
	_ "go.trai.ch/rebuild/internal/adapters/fs"
	_ "go.trai.ch/rebuild/internal/adapters/gyp"
	_ "go.trai.ch/rebuild/internal/adapters/headers"
	_ "go.trai.ch/rebuild/internal/adapters/logger"
	_ "go.trai.ch/rebuild/internal/adapters/manifest"
	_ "go.trai.ch/rebuild/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/rebuild/internal/app"
	_ "go.trai.ch/rebuild/internal/engine/scheduler"
	_ "go.trai.ch/rebuild/internal/engine/walker"
)
