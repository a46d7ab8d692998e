// Package gyp drives the external node-gyp toolchain to rebuild one native
// addon module.
package gyp

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.trai.ch/rebuild/internal/core/domain"
	"go.trai.ch/rebuild/internal/core/ports"
	"go.trai.ch/zerr"
)

// descriptorName is the native build descriptor the toolchain consumes.
const descriptorName = "binding.gyp"

// defaultToolchain is the build driver binary. Overridable for tests.
const defaultToolchain = "node-gyp"

var _ ports.BuildInvoker = (*Invoker)(nil)

// Invoker implements ports.BuildInvoker by spawning the node-gyp toolchain
// per module with a target-specific environment.
type Invoker struct {
	cache     ports.ABICache
	headers   ports.HeaderProvisioner
	hasher    ports.ArtifactHasher
	logger    ports.Logger
	toolchain string
}

// NewInvoker creates a new Invoker.
func NewInvoker(
	cache ports.ABICache,
	headers ports.HeaderProvisioner,
	hasher ports.ArtifactHasher,
	logger ports.Logger,
) *Invoker {
	return &Invoker{
		cache:     cache,
		headers:   headers,
		hasher:    hasher,
		logger:    logger,
		toolchain: defaultToolchain,
	}
}

// SetToolchain overrides the build driver binary. Used by tests.
func (i *Invoker) SetToolchain(bin string) {
	i.toolchain = bin
}

// Build rebuilds the candidate for target, replaces any stale prebuilt
// artifact, and records the new ABI identity in the cache.
func (i *Invoker) Build(ctx context.Context, candidate domain.ModuleCandidate, target domain.TargetIdentity) error {
	moduleDir := candidate.Path.String()

	if _, err := os.Stat(filepath.Join(moduleDir, descriptorName)); err != nil {
		werr := zerr.With(domain.ErrDescriptorMissing, "module", candidate.Name.String())
		return zerr.With(werr, "path", moduleDir)
	}

	// The bundle cache is shared and acquire-once; concurrent builds for the
	// same identity serialize only on first use.
	nodedir, err := i.headers.Ensure(ctx, target)
	if err != nil {
		return err
	}

	prior := i.snapshotArtifacts(moduleDir, target)

	if err := i.runToolchain(ctx, candidate, target, moduleDir, nodedir); err != nil {
		return err
	}

	if err := i.syncArtifacts(candidate, moduleDir, target, prior); err != nil {
		return err
	}

	// Record only after the rebuilt binary is in place. A failed write
	// surfaces as a warning on the outcome, not as a build failure.
	return i.cache.Record(candidate, target)
}

// runToolchain spawns the external build driver for one module.
func (i *Invoker) runToolchain(
	ctx context.Context,
	candidate domain.ModuleCandidate,
	target domain.TargetIdentity,
	moduleDir, nodedir string,
) error {
	args := buildArgs(target, nodedir)

	cmd := exec.CommandContext(ctx, i.toolchain, args...) //nolint:gosec // Toolchain binary is configuration, not user input
	cmd.Dir = moduleDir
	cmd.Env = buildEnv(os.Environ(), target)
	cmd.Stdout = &logWriter{logger: i.logger, module: candidate.Name.String(), level: "info"}
	cmd.Stderr = &logWriter{logger: i.logger, module: candidate.Name.String(), level: "error"}

	if err := cmd.Run(); err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		werr := zerr.With(domain.ErrBuildFailed, "cause", err.Error())
		werr = zerr.With(werr, "exit_code", exitCode)
		werr = zerr.With(werr, "module", candidate.Name.String())
		werr = zerr.With(werr, "path", moduleDir)
		return zerr.With(werr, "target", target.String())
	}
	return nil
}

// buildArgs constructs the toolchain invocation for a target identity.
func buildArgs(target domain.TargetIdentity, nodedir string) []string {
	args := []string{
		"rebuild",
		"--target=" + target.Version,
		"--arch=" + string(target.Arch),
		"--nodedir=" + nodedir,
	}
	if target.Debug {
		args = append(args, "--debug")
	} else {
		args = append(args, "--release")
	}
	return args
}

// buildEnv derives the child process environment. A compiler override
// replaces the default compiler/linker; everything else passes through so
// toolchain discovery (python, make) keeps working.
func buildEnv(base []string, target domain.TargetIdentity) []string {
	if target.Compiler == "" {
		return base
	}

	cc := target.Compiler
	cxx := cxxFor(cc)

	env := make([]string, 0, len(base)+4)
	for _, entry := range base {
		k, _, ok := strings.Cut(entry, "=")
		if ok && (k == "CC" || k == "CXX" || k == "CC.target" || k == "CXX.target") {
			continue
		}
		env = append(env, entry)
	}
	return append(env,
		"CC="+cc,
		"CXX="+cxx,
		"CC.target="+cc,
		"CXX.target="+cxx,
	)
}

// cxxFor maps a C compiler to its C++ companion.
func cxxFor(cc string) string {
	base := filepath.Base(cc)
	switch {
	case strings.HasPrefix(base, "clang"):
		return strings.Replace(cc, "clang", "clang++", 1)
	case strings.HasPrefix(base, "gcc"):
		return strings.Replace(cc, "gcc", "g++", 1)
	default:
		return cc
	}
}

// snapshotArtifacts hashes the module's current addon binaries so the
// rebuild can report whether it actually changed anything.
func (i *Invoker) snapshotArtifacts(moduleDir string, target domain.TargetIdentity) map[string]uint64 {
	prior := make(map[string]uint64)
	for _, path := range findAddonBinaries(filepath.Join(moduleDir, "build", target.Configuration())) {
		if h, err := i.hasher.ComputeFileHash(path); err == nil {
			prior[filepath.Base(path)] = h
		}
	}
	return prior
}

// syncArtifacts replaces stale prebuilt binaries with the rebuilt ones and
// logs whether each artifact changed.
func (i *Invoker) syncArtifacts(
	candidate domain.ModuleCandidate,
	moduleDir string,
	target domain.TargetIdentity,
	prior map[string]uint64,
) error {
	built := findAddonBinaries(filepath.Join(moduleDir, "build", target.Configuration()))
	if len(built) == 0 {
		werr := zerr.With(zerr.New("toolchain reported success but produced no addon binary"), "module", candidate.Name.String())
		return zerr.With(werr, "path", moduleDir)
	}

	prebuilt := findAddonBinaries(filepath.Join(moduleDir, "prebuilds"))

	for _, path := range built {
		base := filepath.Base(path)

		h, err := i.hasher.ComputeFileHash(path)
		if err != nil {
			return err
		}
		if old, ok := prior[base]; ok && old == h {
			i.logger.Info(candidate.Name.String() + ": " + base + " unchanged by rebuild")
		} else {
			i.logger.Info(candidate.Name.String() + ": rebuilt " + base + " for " + target.String())
		}

		// A provider-downloaded prebuilt of the same addon would shadow the
		// rebuilt binary at load time; overwrite it in place.
		for _, stale := range prebuilt {
			if filepath.Base(stale) != base {
				continue
			}
			if err := copyFile(path, stale); err != nil {
				return zerr.With(zerr.Wrap(err, "failed to replace prebuilt binary"), "path", stale)
			}
		}
	}
	return nil
}

// findAddonBinaries lists compiled addon binaries (*.node) under root,
// recursively. A missing root yields nil.
func findAddonBinaries(root string) []string {
	var out []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil //nolint:nilerr // Unreadable entries are simply not artifacts
		}
		if strings.HasSuffix(d.Name(), ".node") {
			out = append(out, path)
		}
		return nil
	})
	return out
}

func copyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // Paths derive from the walked tree
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck // Best effort close in defer

	info, err := in.Stat()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.ReadFrom(in); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Chmod(info.Mode()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

// logWriter splits child process output into lines for the logger port.
type logWriter struct {
	logger ports.Logger
	module string
	level  string
}

func (w *logWriter) Write(p []byte) (int, error) {
	msg := strings.TrimSuffix(string(p), "\n")
	for _, line := range strings.Split(msg, "\n") {
		if line == "" {
			continue
		}
		if w.level == "error" {
			w.logger.Warn(fmt.Sprintf("[%s] %s", w.module, line))
		} else {
			w.logger.Info(fmt.Sprintf("[%s] %s", w.module, line))
		}
	}
	return len(p), nil
}
