// Package walker discovers native addon modules in an installed dependency
// tree.
package walker

import (
	"os"
	"path/filepath"
	"sort"

	"go.trai.ch/rebuild/internal/core/domain"
	"go.trai.ch/rebuild/internal/core/ports"
	"go.trai.ch/zerr"
)

// installDirName is the per-package directory nested installs live under,
// fixed by the package manager's layout.
const installDirName = "node_modules"

// descriptorName is the native build descriptor marking a package as a
// native addon.
const descriptorName = "binding.gyp"

// prebuildDirName is the conventional directory provider-downloaded
// prebuilt binaries live in.
const prebuildDirName = "prebuilds"

// Walker traverses an installed tree and yields the native addon candidates
// reachable through required or optional dependency edges. Development-only
// subtrees are never entered, at the root or anywhere below.
type Walker struct {
	reader ports.ManifestReader
}

// NewWalker creates a new Walker.
func NewWalker(reader ports.ManifestReader) *Walker {
	return &Walker{reader: reader}
}

// Walk traverses the tree rooted at root. The candidate set depends only on
// the tree's structure and dependency-class annotations, not on traversal
// order: dependency names are visited sorted and each physical directory
// exactly once.
//
// Structural errors below the root abort only the affected subtree and are
// collected in the report; an unreadable root manifest fails the walk.
func (w *Walker) Walk(root string) (*domain.WalkReport, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve build path"), "path", root)
	}

	rootManifest, err := w.reader.Read(absRoot)
	if err != nil {
		return nil, err
	}

	state := &walkState{
		walker:  w,
		root:    absRoot,
		visited: make(map[string]bool),
	}
	state.walkDeps(absRoot, rootManifest)

	sort.Slice(state.candidates, func(i, j int) bool {
		return state.candidates[i].Path.String() < state.candidates[j].Path.String()
	})

	return &domain.WalkReport{
		Candidates: state.candidates,
		Errors:     state.errs,
	}, nil
}

type walkState struct {
	walker     *Walker
	root       string
	visited    map[string]bool
	candidates []domain.ModuleCandidate
	errs       []error
}

// walkDeps visits the required and optional dependencies declared by the
// manifest of the package installed at dir. Development dependencies are
// filtered out here, at every level.
func (s *walkState) walkDeps(dir string, m *domain.Manifest) {
	names := make(map[string]bool)
	for name := range m.DependenciesOf(domain.ClassRequired) {
		names[name] = true
	}
	for name := range m.DependenciesOf(domain.ClassOptional) {
		names[name] = true
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	for _, name := range sorted {
		// A declared dependency with no physical install is normal: the
		// install step may have pruned a failed optional dependency, and
		// installation is a precondition we do not re-verify.
		depDir, ok := s.resolve(dir, name)
		if !ok {
			continue
		}
		s.visit(depDir, name)
	}
}

// resolve finds the physical install directory for a dependency of the
// package at fromDir: the nearest node_modules/<name> walking from fromDir
// up to the walk root. A nested private copy shadows a hoisted one. Scoped
// names ("@scope/name") resolve as a single unit below node_modules.
func (s *walkState) resolve(fromDir, name string) (string, bool) {
	dir := fromDir
	for {
		candidate := filepath.Join(dir, installDirName, name)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, true
		}
		if dir == s.root {
			return "", false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// visit classifies one physical package copy and recurses into its own
// dependencies. Each physical location is walked once; the same logical
// name at other locations is classified independently.
func (s *walkState) visit(dir, name string) {
	if s.visited[dir] {
		return
	}
	s.visited[dir] = true

	m, err := s.walker.reader.Read(dir)
	if err != nil {
		// Structural error: skip this subtree, keep walking siblings.
		s.errs = append(s.errs, err)
		return
	}

	if hasNativeAddon(dir, m) {
		s.candidates = append(s.candidates, domain.ModuleCandidate{
			Name: domain.NewInternedString(name),
			Path: domain.NewInternedString(dir),
		})
	}

	s.walkDeps(dir, m)
}

// hasNativeAddon reports whether the package at dir contains a native
// addon: a build descriptor, a prebuilt-binary directory, or the manifest
// flag some packages set instead of shipping a root-level descriptor.
func hasNativeAddon(dir string, m *domain.Manifest) bool {
	if m.Gypfile {
		return true
	}
	if _, err := os.Stat(filepath.Join(dir, descriptorName)); err == nil {
		return true
	}
	if info, err := os.Stat(filepath.Join(dir, prebuildDirName)); err == nil && info.IsDir() {
		return true
	}
	return false
}
