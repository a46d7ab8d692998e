// Package abicache persists per-module ABI compatibility records.
package abicache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/rebuild/internal/core/domain"
	"go.trai.ch/rebuild/internal/core/ports"
	"go.trai.ch/zerr"
)

// recordName is the record filename, stored alongside the module's build
// output so it travels with the physical copy it describes.
const recordName = ".abi-target.json"

var _ ports.ABICache = (*Cache)(nil)

// Cache implements ports.ABICache with one JSON record per module, stored at
// <module>/build/.abi-target.json. Records are local to each physical copy;
// staleness from manual edits is an accepted risk, not guarded against.
type Cache struct{}

// NewCache creates a new Cache.
func NewCache() *Cache {
	return &Cache{}
}

// recordPath returns the record location for a candidate.
func recordPath(candidate domain.ModuleCandidate) string {
	return filepath.Join(candidate.Path.String(), "build", recordName)
}

// ShouldBuild reports whether the candidate needs a build for target.
// A missing, unreadable or corrupt record counts as "never matched".
func (c *Cache) ShouldBuild(candidate domain.ModuleCandidate, target domain.TargetIdentity, force bool) bool {
	if force {
		return true
	}

	data, err := os.ReadFile(recordPath(candidate)) //nolint:gosec // Path derives from the walked tree
	if err != nil {
		return true
	}

	var record domain.CacheRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return true
	}

	return !record.Matches(target)
}

// Record persists the target identity for the candidate. The record is
// written to a temporary file in the same directory and renamed into place,
// so a partial write is never observable as a valid record.
func (c *Cache) Record(candidate domain.ModuleCandidate, target domain.TargetIdentity) error {
	record := domain.NewCacheRecord(target, time.Now().UTC())

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return wrapWriteErr(err, candidate)
	}

	path := recordPath(candidate)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return wrapWriteErr(err, candidate)
	}

	tmp, err := os.CreateTemp(dir, recordName+".*.tmp")
	if err != nil {
		return wrapWriteErr(err, candidate)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return wrapWriteErr(err, candidate)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return wrapWriteErr(err, candidate)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return wrapWriteErr(err, candidate)
	}

	return nil
}

func wrapWriteErr(err error, candidate domain.ModuleCandidate) error {
	werr := zerr.With(domain.ErrRecordWriteFailed, "cause", err.Error())
	werr = zerr.With(werr, "module", candidate.Name.String())
	return zerr.With(werr, "path", candidate.Path.String())
}
