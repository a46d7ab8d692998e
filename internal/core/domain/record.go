package domain

import "time"

// CacheRecord is the persisted per-module record of the target identity the
// module was last successfully built for. It is created or overwritten only
// on build success; an absent record means "never matched".
type CacheRecord struct {
	Version  string    `json:"version"`
	Arch     Arch      `json:"arch"`
	Debug    bool      `json:"debug"`
	Compiler string    `json:"compiler,omitzero"`
	BuiltAt  time.Time `json:"built_at,omitzero"`
}

// NewCacheRecord captures a target identity at the given time.
func NewCacheRecord(target TargetIdentity, at time.Time) CacheRecord {
	return CacheRecord{
		Version:  target.Version,
		Arch:     target.Arch,
		Debug:    target.Debug,
		Compiler: target.Compiler,
		BuiltAt:  at,
	}
}

// Matches reports whether the record covers the given target identity.
// All four identity fields must match exactly.
func (r CacheRecord) Matches(target TargetIdentity) bool {
	return r.Version == target.Version &&
		r.Arch == target.Arch &&
		r.Debug == target.Debug &&
		r.Compiler == target.Compiler
}
