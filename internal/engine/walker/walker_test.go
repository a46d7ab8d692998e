package walker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/rebuild/internal/adapters/manifest"
	"go.trai.ch/rebuild/internal/core/domain"
)

func newTestWalker(t *testing.T) *Walker {
	t.Helper()
	reader, err := manifest.NewReader()
	require.NoError(t, err)
	return NewWalker(reader)
}

// writePackage creates an installed package directory with the given
// descriptor content and optional extra files.
func writePackage(t *testing.T, dir, descriptor string, extras ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(descriptor), 0o644))
	for _, extra := range extras {
		path := filepath.Join(dir, extra)
		if filepath.Ext(extra) == "" {
			require.NoError(t, os.MkdirAll(path, 0o755))
			continue
		}
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	}
}

func candidateNames(report *domain.WalkReport) []string {
	names := make([]string, 0, len(report.Candidates))
	for _, c := range report.Candidates {
		names = append(names, c.Name.String())
	}
	return names
}

func TestWalkFindsNativeModules(t *testing.T) {
	root := t.TempDir()
	nm := filepath.Join(root, "node_modules")

	writePackage(t, root, `{
		"name": "host-app",
		"dependencies": {"leveldown": "^6.0.0", "express": "^4.0.0"},
		"optionalDependencies": {"bcrypt": "^5.0.0"},
		"devDependencies": {"ffi-napi": "^4.0.0"}
	}`)

	// Required, ships a build descriptor.
	writePackage(t, filepath.Join(nm, "leveldown"), `{"name": "leveldown"}`, "binding.gyp")
	// Required, pure JS.
	writePackage(t, filepath.Join(nm, "express"), `{"name": "express"}`)
	// Optional, ships prebuilt binaries only.
	writePackage(t, filepath.Join(nm, "bcrypt"), `{"name": "bcrypt"}`, "prebuilds")
	// Development-only: installed and native, but never a candidate.
	writePackage(t, filepath.Join(nm, "ffi-napi"), `{"name": "ffi-napi"}`, "binding.gyp")

	report, err := newTestWalker(t).Walk(root)
	require.NoError(t, err)
	assert.Empty(t, report.Errors)
	assert.Equal(t, []string{"bcrypt", "leveldown"}, candidateNames(report))
}

func TestWalkGypfileManifestFlag(t *testing.T) {
	root := t.TempDir()

	writePackage(t, root, `{"name": "host", "dependencies": {"@scope/native": "1.0.0"}}`)
	writePackage(t, filepath.Join(root, "node_modules", "@scope", "native"),
		`{"name": "@scope/native", "gypfile": true}`)

	report, err := newTestWalker(t).Walk(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"@scope/native"}, candidateNames(report))
}

func TestWalkNestedDuplicateCopies(t *testing.T) {
	root := t.TempDir()
	nm := filepath.Join(root, "node_modules")

	writePackage(t, root, `{"name": "host", "dependencies": {"leveldown": "6.0.0", "serialport": "10.0.0"}}`)
	writePackage(t, filepath.Join(nm, "leveldown"), `{"name": "leveldown"}`, "binding.gyp")
	writePackage(t, filepath.Join(nm, "serialport"), `{"name": "serialport", "dependencies": {"leveldown": "5.0.0"}}`)
	// Private nested copy shadowing the hoisted one.
	writePackage(t, filepath.Join(nm, "serialport", "node_modules", "leveldown"),
		`{"name": "leveldown"}`, "binding.gyp")

	report, err := newTestWalker(t).Walk(root)
	require.NoError(t, err)

	// One candidate per physical copy.
	assert.Equal(t, []string{"leveldown", "leveldown"}, candidateNames(report))
	assert.NotEqual(t, report.Candidates[0].Path, report.Candidates[1].Path)
}

func TestWalkHoistedResolutionDeduplicates(t *testing.T) {
	root := t.TempDir()
	nm := filepath.Join(root, "node_modules")

	writePackage(t, root, `{"name": "host", "dependencies": {"a": "1.0.0", "b": "1.0.0", "native": "1.0.0"}}`)
	writePackage(t, filepath.Join(nm, "a"), `{"name": "a", "dependencies": {"native": "1.0.0"}}`)
	writePackage(t, filepath.Join(nm, "b"), `{"name": "b", "dependencies": {"native": "1.0.0"}}`)
	writePackage(t, filepath.Join(nm, "native"), `{"name": "native"}`, "binding.gyp")

	report, err := newTestWalker(t).Walk(root)
	require.NoError(t, err)

	// Both a and b resolve upward to the single hoisted copy.
	assert.Equal(t, []string{"native"}, candidateNames(report))
}

func TestWalkDevEdgesExcludedAtEveryLevel(t *testing.T) {
	root := t.TempDir()
	nm := filepath.Join(root, "node_modules")

	writePackage(t, root, `{"name": "host", "dependencies": {"lib": "1.0.0"}}`)
	writePackage(t, filepath.Join(nm, "lib"),
		`{"name": "lib", "devDependencies": {"nested-dev": "1.0.0"}}`)
	writePackage(t, filepath.Join(nm, "lib", "node_modules", "nested-dev"),
		`{"name": "nested-dev"}`, "binding.gyp")

	report, err := newTestWalker(t).Walk(root)
	require.NoError(t, err)
	assert.Empty(t, candidateNames(report))
}

func TestWalkMissingInstallSkippedSilently(t *testing.T) {
	root := t.TempDir()

	writePackage(t, root, `{"name": "host", "dependencies": {"ghost": "1.0.0"}}`)

	report, err := newTestWalker(t).Walk(root)
	require.NoError(t, err)
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.Candidates)
}

func TestWalkMalformedManifestAbortsOnlySubtree(t *testing.T) {
	root := t.TempDir()
	nm := filepath.Join(root, "node_modules")

	writePackage(t, root, `{"name": "host", "dependencies": {"broken": "1.0.0", "native": "1.0.0"}}`)
	writePackage(t, filepath.Join(nm, "broken"), `{not json`)
	writePackage(t, filepath.Join(nm, "native"), `{"name": "native"}`, "binding.gyp")

	report, err := newTestWalker(t).Walk(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"native"}, candidateNames(report))
	require.Len(t, report.Errors, 1)
	assert.ErrorIs(t, report.Errors[0], domain.ErrManifestParseFailed)
}

func TestWalkUnreadableRootFailsWalk(t *testing.T) {
	root := t.TempDir()

	_, err := newTestWalker(t).Walk(root)
	assert.ErrorIs(t, err, domain.ErrManifestReadFailed)
}

func TestWalkDeterministicOrder(t *testing.T) {
	root := t.TempDir()
	nm := filepath.Join(root, "node_modules")

	writePackage(t, root, `{"name": "host", "dependencies": {"zeta": "1.0.0", "alpha": "1.0.0", "mid": "1.0.0"}}`)
	writePackage(t, filepath.Join(nm, "zeta"), `{"name": "zeta"}`, "binding.gyp")
	writePackage(t, filepath.Join(nm, "alpha"), `{"name": "alpha"}`, "binding.gyp")
	writePackage(t, filepath.Join(nm, "mid"), `{"name": "mid"}`, "binding.gyp")

	first, err := newTestWalker(t).Walk(root)
	require.NoError(t, err)
	second, err := newTestWalker(t).Walk(root)
	require.NoError(t, err)

	assert.Equal(t, first.Candidates, second.Candidates)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, candidateNames(first))
}
