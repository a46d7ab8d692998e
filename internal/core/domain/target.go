// Package domain contains the core domain models for the native addon
// rebuild engine.
package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// Arch identifies a CPU architecture an addon binary can target.
type Arch string

const (
	// ArchX64 is 64-bit x86.
	ArchX64 Arch = "x64"
	// ArchIA32 is 32-bit x86.
	ArchIA32 Arch = "ia32"
	// ArchARM64 is 64-bit ARM.
	ArchARM64 Arch = "arm64"
	// ArchARMv7 is 32-bit ARM with hardware floats.
	ArchARMv7 Arch = "armv7l"
)

// ParseArch converts a string to an Arch.
// It returns ErrUnsupportedArch for anything outside the supported set.
func ParseArch(s string) (Arch, error) {
	switch Arch(s) {
	case ArchX64, ArchIA32, ArchARM64, ArchARMv7:
		return Arch(s), nil
	}
	// Common aliases from Go and uname naming.
	switch s {
	case "amd64", "x86_64":
		return ArchX64, nil
	case "386", "x86":
		return ArchIA32, nil
	case "aarch64":
		return ArchARM64, nil
	case "arm":
		return ArchARMv7, nil
	}
	return "", zerr.With(ErrUnsupportedArch, "arch", s)
}

// TargetIdentity is the ABI a rebuilt addon must be compatible with.
// It is immutable for the duration of one orchestration run.
//
// Two identities are compatible iff all four fields match exactly; a debug
// build is never equivalent to a release build of the same version and arch.
type TargetIdentity struct {
	// Version is the runtime version the addon is compiled against,
	// without a leading "v" (e.g. "37.2.3").
	Version string

	// Arch is the target CPU architecture.
	Arch Arch

	// Debug selects the debug build configuration.
	Debug bool

	// Compiler optionally substitutes the default native compiler with an
	// alternative toolchain shipped alongside the target runtime
	// (e.g. "clang"). Empty means the platform default.
	Compiler string
}

// NewTargetIdentity normalizes and validates a target identity.
func NewTargetIdentity(version string, arch Arch, debug bool, compiler string) (TargetIdentity, error) {
	t := TargetIdentity{
		Version:  strings.TrimPrefix(strings.TrimSpace(version), "v"),
		Arch:     arch,
		Debug:    debug,
		Compiler: compiler,
	}
	if err := t.Validate(); err != nil {
		return TargetIdentity{}, err
	}
	return t, nil
}

// Validate checks that the identity is well formed.
func (t TargetIdentity) Validate() error {
	if t.Version == "" || strings.ContainsAny(t.Version, " /\\") {
		return zerr.With(ErrInvalidVersion, "version", t.Version)
	}
	if _, err := ParseArch(string(t.Arch)); err != nil {
		return err
	}
	return nil
}

// Matches reports whether two identities are ABI-compatible.
// Equality is exact on every field.
func (t TargetIdentity) Matches(other TargetIdentity) bool {
	return t == other
}

// Configuration returns the build configuration directory name used by the
// native toolchain ("Debug" or "Release").
func (t TargetIdentity) Configuration() string {
	if t.Debug {
		return "Debug"
	}
	return "Release"
}

// String renders a compact identity tag, e.g. "v37.2.3-arm64-debug".
func (t TargetIdentity) String() string {
	var b strings.Builder
	b.WriteString("v")
	b.WriteString(t.Version)
	b.WriteString("-")
	b.WriteString(string(t.Arch))
	if t.Debug {
		b.WriteString("-debug")
	}
	if t.Compiler != "" {
		b.WriteString("-")
		b.WriteString(t.Compiler)
	}
	return b.String()
}
