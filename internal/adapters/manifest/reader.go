// Package manifest reads installed package descriptors.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.trai.ch/rebuild/internal/core/domain"
	"go.trai.ch/rebuild/internal/core/ports"
	"go.trai.ch/zerr"
)

// descriptorName is the package descriptor filename fixed by the package
// manager's on-disk format.
const descriptorName = "package.json"

// cacheSize bounds the manifest read cache. Deeply nested trees revisit the
// same hoisted directories many times during a walk.
const cacheSize = 1024

var _ ports.ManifestReader = (*Reader)(nil)

// Reader implements ports.ManifestReader for JSON package descriptors, with
// an LRU cache keyed by the package directory.
type Reader struct {
	cache *lru.Cache[string, *domain.Manifest]
}

// NewReader creates a new Reader.
func NewReader() (*Reader, error) {
	cache, err := lru.New[string, *domain.Manifest](cacheSize)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create manifest cache")
	}
	return &Reader{cache: cache}, nil
}

// descriptor is the raw wire shape of the fields the engine needs.
type descriptor struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Dependencies         map[string]string `json:"dependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	Gypfile              bool              `json:"gypfile"`
}

// Read loads the manifest of the package installed at dir. Results are
// cached for the lifetime of the Reader; one orchestration run never
// observes a mid-walk manifest edit.
func (r *Reader) Read(dir string) (*domain.Manifest, error) {
	dir = filepath.Clean(dir)
	if m, ok := r.cache.Get(dir); ok {
		return m, nil
	}

	path := filepath.Join(dir, descriptorName)
	data, err := os.ReadFile(path) //nolint:gosec // Path derives from the walked tree
	if err != nil {
		return nil, zerr.With(zerr.With(domain.ErrManifestReadFailed, "cause", err.Error()), "path", path)
	}

	var d descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, zerr.With(zerr.With(domain.ErrManifestParseFailed, "cause", err.Error()), "path", path)
	}

	m := &domain.Manifest{
		Name:                 d.Name,
		Version:              d.Version,
		Dependencies:         d.Dependencies,
		OptionalDependencies: d.OptionalDependencies,
		DevDependencies:      d.DevDependencies,
		Gypfile:              d.Gypfile,
	}
	r.cache.Add(dir, m)
	return m, nil
}
