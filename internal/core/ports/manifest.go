// Package ports defines the core interfaces for the application.
package ports

import "go.trai.ch/rebuild/internal/core/domain"

// ManifestReader reads a package manifest from an installed package
// directory. The on-disk descriptor format is owned by the package manager;
// this port only surfaces the fields the rebuild engine needs.
//
//go:generate mockgen -source=manifest.go -destination=mocks/mock_manifest.go -package=mocks
type ManifestReader interface {
	// Read loads the manifest of the package installed at dir.
	// It returns domain.ErrManifestReadFailed or
	// domain.ErrManifestParseFailed wrapped with path metadata on failure.
	Read(dir string) (*domain.Manifest, error)
}
