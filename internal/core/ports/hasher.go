package ports

// ArtifactHasher computes content hashes of build artifacts. It is used only
// to compare a rebuilt binary against the artifact it replaces; ABI
// compatibility itself is decided by the cache record, not by content.
//
//go:generate mockgen -destination=mocks/mock_hasher.go -package=mocks -source=hasher.go
type ArtifactHasher interface {
	// ComputeFileHash returns the content hash of the file at path.
	ComputeFileHash(path string) (uint64, error)
}
