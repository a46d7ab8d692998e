package abicache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/rebuild/internal/core/domain"
)

func testCandidate(t *testing.T) domain.ModuleCandidate {
	t.Helper()
	return domain.ModuleCandidate{
		Name: domain.NewInternedString("leveldown"),
		Path: domain.NewInternedString(t.TempDir()),
	}
}

func testTarget() domain.TargetIdentity {
	return domain.TargetIdentity{Version: "37.2.3", Arch: domain.ArchX64}
}

func TestShouldBuildWithoutRecord(t *testing.T) {
	cache := NewCache()
	assert.True(t, cache.ShouldBuild(testCandidate(t), testTarget(), false))
}

func TestShouldBuildAfterRecord(t *testing.T) {
	cache := NewCache()
	candidate := testCandidate(t)
	target := testTarget()

	require.NoError(t, cache.Record(candidate, target))
	assert.False(t, cache.ShouldBuild(candidate, target, false))
}

func TestShouldBuildForceBypassesRecord(t *testing.T) {
	cache := NewCache()
	candidate := testCandidate(t)
	target := testTarget()

	require.NoError(t, cache.Record(candidate, target))
	assert.True(t, cache.ShouldBuild(candidate, target, true))
}

func TestShouldBuildPerFieldMismatch(t *testing.T) {
	cache := NewCache()
	candidate := testCandidate(t)
	recorded := domain.TargetIdentity{Version: "37.2.3", Arch: domain.ArchX64, Compiler: "clang"}
	require.NoError(t, cache.Record(candidate, recorded))

	tests := []struct {
		name   string
		mutate func(*domain.TargetIdentity)
	}{
		{name: "version", mutate: func(t *domain.TargetIdentity) { t.Version = "37.2.4" }},
		{name: "arch", mutate: func(t *domain.TargetIdentity) { t.Arch = domain.ArchARM64 }},
		{name: "debug", mutate: func(t *domain.TargetIdentity) { t.Debug = true }},
		{name: "compiler", mutate: func(t *domain.TargetIdentity) { t.Compiler = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := recorded
			tt.mutate(&target)
			assert.True(t, cache.ShouldBuild(candidate, target, false))
		})
	}
}

func TestShouldBuildCorruptRecord(t *testing.T) {
	cache := NewCache()
	candidate := testCandidate(t)

	path := filepath.Join(candidate.Path.String(), "build", recordName)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0o644))

	assert.True(t, cache.ShouldBuild(candidate, testTarget(), false))
}

func TestRecordOverwritesPrevious(t *testing.T) {
	cache := NewCache()
	candidate := testCandidate(t)

	first := testTarget()
	second := domain.TargetIdentity{Version: "38.0.0", Arch: domain.ArchARM64, Debug: true}

	require.NoError(t, cache.Record(candidate, first))
	require.NoError(t, cache.Record(candidate, second))

	assert.True(t, cache.ShouldBuild(candidate, first, false))
	assert.False(t, cache.ShouldBuild(candidate, second, false))

	// The record on disk holds exactly one identity and no temp residue.
	entries, err := os.ReadDir(filepath.Join(candidate.Path.String(), "build"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, recordName, entries[0].Name())

	data, err := os.ReadFile(filepath.Join(candidate.Path.String(), "build", recordName))
	require.NoError(t, err)
	var record domain.CacheRecord
	require.NoError(t, json.Unmarshal(data, &record))
	assert.True(t, record.Matches(second))
	assert.False(t, record.BuiltAt.IsZero())
}

func TestRecordWriteFailureIsTagged(t *testing.T) {
	cache := NewCache()
	candidate := testCandidate(t)

	// Occupy the record's parent path with a file so MkdirAll fails.
	require.NoError(t, os.WriteFile(filepath.Join(candidate.Path.String(), "build"), []byte("x"), 0o644))

	err := cache.Record(candidate, testTarget())
	assert.ErrorIs(t, err, domain.ErrRecordWriteFailed)
}
