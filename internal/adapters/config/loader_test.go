package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/rebuild/internal/core/domain"
)

func TestLoadDefaults(t *testing.T) {
	loader := &Loader{}

	opts, err := loader.Load(t.TempDir())
	require.NoError(t, err)

	assert.Empty(t, opts.Target.Version)
	assert.NotEmpty(t, opts.Target.Arch)
	assert.False(t, opts.Force)
	assert.Empty(t, opts.OnlyModules)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("REBUILD_RUNTIME_VERSION", "37.2.3")
	t.Setenv("REBUILD_ARCH", "arm64")
	t.Setenv("REBUILD_DIST_URL", "https://mirror.example/headers")

	loader := &Loader{}
	opts, err := loader.Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "37.2.3", opts.Target.Version)
	assert.Equal(t, domain.ArchARM64, opts.Target.Arch)
	assert.Equal(t, "https://mirror.example/headers", opts.DistURL)
}

func TestLoadFromYAML(t *testing.T) {
	cwd := t.TempDir()
	content := `version: "38.0.0"
arch: ia32
debug: true
force: true
compiler: clang
only:
  - leveldown
  - bcrypt
distUrl: https://mirror.example/headers
`
	require.NoError(t, os.WriteFile(filepath.Join(cwd, Filename), []byte(content), 0o644))

	loader := &Loader{}
	opts, err := loader.Load(cwd)
	require.NoError(t, err)

	assert.Equal(t, "38.0.0", opts.Target.Version)
	assert.Equal(t, domain.ArchIA32, opts.Target.Arch)
	assert.True(t, opts.Target.Debug)
	assert.Equal(t, "clang", opts.Target.Compiler)
	assert.True(t, opts.Force)
	assert.Equal(t, []string{"leveldown", "bcrypt"}, opts.OnlyModules)
	assert.Equal(t, "https://mirror.example/headers", opts.DistURL)
}

func TestLoadYAMLOverridesEnvironment(t *testing.T) {
	t.Setenv("REBUILD_RUNTIME_VERSION", "37.2.3")

	cwd := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cwd, Filename), []byte(`version: "38.0.0"`), 0o644))

	loader := &Loader{}
	opts, err := loader.Load(cwd)
	require.NoError(t, err)
	assert.Equal(t, "38.0.0", opts.Target.Version)
}

func TestLoadRejectsUnsupportedArch(t *testing.T) {
	cwd := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cwd, Filename), []byte(`arch: mips`), 0o644))

	loader := &Loader{}
	_, err := loader.Load(cwd)
	assert.ErrorIs(t, err, domain.ErrUnsupportedArch)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	cwd := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cwd, Filename), []byte("version: [broken"), 0o644))

	loader := &Loader{}
	_, err := loader.Load(cwd)
	assert.Error(t, err)
}

func TestLoadReadsDotEnv(t *testing.T) {
	t.Cleanup(func() {
		// godotenv mutates the process environment.
		_ = os.Unsetenv("REBUILD_RUNTIME_VERSION")
	})

	cwd := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cwd, ".env"),
		[]byte("REBUILD_RUNTIME_VERSION=35.7.5\n"), 0o644))

	loader := &Loader{}
	opts, err := loader.Load(cwd)
	require.NoError(t, err)
	assert.Equal(t, "35.7.5", opts.Target.Version)
}
