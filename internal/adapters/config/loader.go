// Package config resolves run options from configuration files.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/joho/godotenv"
	"go.trai.ch/rebuild/internal/core/domain"
	"go.trai.ch/rebuild/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Filename is the optional project-level configuration file.
const Filename = "rebuild.yaml"

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader. Precedence (low to high): built-in
// defaults, .env file, rebuild.yaml, then CLI flags applied by the command
// layer. Everything is resolved here, once; the engine never reads process
// environment itself.
type Loader struct {
	Filename string
}

// SetFilename overrides the configuration filename. Applied by the CLI's
// --config flag before Load.
func (l *Loader) SetFilename(name string) {
	l.Filename = name
}

// schema is the rebuild.yaml wire shape.
type schema struct {
	Version  string   `yaml:"version"`
	Arch     string   `yaml:"arch"`
	Debug    bool     `yaml:"debug"`
	Force    bool     `yaml:"force"`
	Only     []string `yaml:"only"`
	Compiler string   `yaml:"compiler"`
	DistURL  string   `yaml:"distUrl"`
}

// Load reads configuration from cwd and returns the defaults a CLI
// invocation starts from. Target validation is deferred to the app so flags
// can still fill required fields.
func (l *Loader) Load(cwd string) (*ports.RunOptions, error) {
	// Optional .env for local overrides; absence is not an error.
	_ = godotenv.Load(filepath.Join(cwd, ".env"))

	opts := &ports.RunOptions{
		Target: domain.TargetIdentity{
			Version: os.Getenv("REBUILD_RUNTIME_VERSION"),
			Arch:    hostArch(),
		},
		DistURL: os.Getenv("REBUILD_DIST_URL"),
	}
	if a := os.Getenv("REBUILD_ARCH"); a != "" {
		arch, err := domain.ParseArch(a)
		if err != nil {
			return nil, err
		}
		opts.Target.Arch = arch
	}

	name := l.Filename
	if name == "" {
		name = Filename
	}
	data, err := os.ReadFile(filepath.Join(cwd, name)) //nolint:gosec // Path is provided by the user
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return opts, nil
		}
		return nil, zerr.Wrap(err, "failed to read config file")
	}

	var s schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, zerr.Wrap(err, "failed to parse config file")
	}

	if s.Version != "" {
		opts.Target.Version = s.Version
	}
	if s.Arch != "" {
		arch, err := domain.ParseArch(s.Arch)
		if err != nil {
			return nil, err
		}
		opts.Target.Arch = arch
	}
	if s.Debug {
		opts.Target.Debug = true
	}
	if s.Compiler != "" {
		opts.Target.Compiler = s.Compiler
	}
	if s.Force {
		opts.Force = true
	}
	if len(s.Only) > 0 {
		opts.OnlyModules = s.Only
	}
	if s.DistURL != "" {
		opts.DistURL = s.DistURL
	}

	return opts, nil
}

// hostArch maps the host CPU to a supported target arch, defaulting to x64
// when the host is outside the supported set.
func hostArch() domain.Arch {
	arch, err := domain.ParseArch(runtime.GOARCH)
	if err != nil {
		return domain.ArchX64
	}
	return arch
}
