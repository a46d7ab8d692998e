package domain

import "go.trai.ch/zerr"

var (
	// ErrInvalidVersion is returned when a runtime version string is empty or malformed.
	ErrInvalidVersion = zerr.New("invalid runtime version")

	// ErrUnsupportedArch is returned when a target architecture is outside the supported set.
	ErrUnsupportedArch = zerr.New("unsupported target architecture")

	// ErrManifestReadFailed is returned when a package manifest cannot be read.
	ErrManifestReadFailed = zerr.New("failed to read package manifest")

	// ErrManifestParseFailed is returned when a package manifest cannot be parsed.
	ErrManifestParseFailed = zerr.New("failed to parse package manifest")

	// ErrDescriptorMissing is returned when a module has no native build descriptor to build from.
	ErrDescriptorMissing = zerr.New("native build descriptor missing")

	// ErrBuildFailed is returned when the native toolchain exits non-zero for a module.
	ErrBuildFailed = zerr.New("native build failed")

	// ErrHeadersUnavailable is returned when the header bundle for the target
	// identity cannot be provisioned. No module build can proceed without it.
	ErrHeadersUnavailable = zerr.New("runtime headers unavailable")

	// ErrRecordWriteFailed is returned when an ABI cache record cannot be
	// persisted after a successful build. It is surfaced as a warning on the
	// module's outcome, never as a build failure.
	ErrRecordWriteFailed = zerr.New("failed to write ABI cache record")

	// ErrRebuildFailed is the aggregate error of a run in which at least one
	// module build failed.
	ErrRebuildFailed = zerr.New("rebuild failed")
)
