package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/rebuild/internal/adapters/abicache"
	"go.trai.ch/rebuild/internal/adapters/manifest"
	"go.trai.ch/rebuild/internal/core/domain"
	"go.trai.ch/rebuild/internal/core/ports"
	"go.trai.ch/rebuild/internal/core/ports/mocks"
	"go.trai.ch/rebuild/internal/engine/scheduler"
	"go.trai.ch/rebuild/internal/engine/walker"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type recordingSink struct {
	mu     sync.Mutex
	events []domain.LifecycleEvent
}

func (s *recordingSink) Publish(event domain.LifecycleEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) kindsFor(name string) []domain.EventKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kinds []domain.EventKind
	for _, e := range s.events {
		if e.Candidate.Name.String() == name {
			kinds = append(kinds, e.Kind)
		}
	}
	return kinds
}

type nopLogger struct{}

func (nopLogger) Info(string) {}
func (nopLogger) Warn(string) {}
func (nopLogger) Error(error) {}

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

func newTestApp(t *testing.T, invoker ports.BuildInvoker, headers ports.HeaderProvisioner, sink ports.EventSink) *App {
	t.Helper()
	reader, err := manifest.NewReader()
	require.NoError(t, err)
	sched := scheduler.NewScheduler(abicache.NewCache(), invoker, sink, nopLogger{})
	return New(walker.NewWalker(reader), sched, headers, nopLogger{})
}

func testTarget() domain.TargetIdentity {
	return domain.TargetIdentity{Version: "37.2.3", Arch: domain.ArchX64}
}

func TestRebuildEndToEnd(t *testing.T) {
	root := t.TempDir()
	nm := filepath.Join(root, "node_modules")

	writePackage(t, root, `{
		"name": "host-app",
		"dependencies": {"leveldown": "^6.0.0"},
		"optionalDependencies": {"bcrypt": "^5.0.0"},
		"devDependencies": {"ffi-napi": "^4.0.0"}
	}`)
	writePackage(t, filepath.Join(nm, "leveldown"), `{"name": "leveldown"}`, "binding.gyp")
	writePackage(t, filepath.Join(nm, "bcrypt"), `{"name": "bcrypt"}`, "prebuilds")
	writePackage(t, filepath.Join(nm, "ffi-napi"), `{"name": "ffi-napi"}`, "binding.gyp")

	target := testTarget()

	// bcrypt already carries a matching record and must be skipped.
	bcrypt := domain.ModuleCandidate{
		Name: domain.NewInternedString("bcrypt"),
		Path: domain.NewInternedString(filepath.Join(nm, "bcrypt")),
	}
	require.NoError(t, abicache.NewCache().Record(bcrypt, target))

	ctrl := gomock.NewController(t)
	invoker := mocks.NewMockBuildInvoker(ctrl)
	headers := mocks.NewMockHeaderProvisioner(ctrl)
	sink := &recordingSink{}

	headers.EXPECT().Ensure(gomock.Any(), target).Return(t.TempDir(), nil)
	invoker.EXPECT().
		Build(gomock.Any(), gomock.Any(), target).
		DoAndReturn(func(_ context.Context, c domain.ModuleCandidate, _ domain.TargetIdentity) error {
			assert.Equal(t, "leveldown", c.Name.String())
			return nil
		})

	application := newTestApp(t, invoker, headers, sink)
	result, err := application.Rebuild(context.Background(), root, ports.RunOptions{Target: target})
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 2)
	byName := make(map[string]domain.OutcomeStatus, 2)
	for _, o := range result.Outcomes {
		byName[o.Candidate.Name.String()] = o.Status
	}
	assert.Equal(t, domain.OutcomeBuilt, byName["leveldown"])
	assert.Equal(t, domain.OutcomeSkipped, byName["bcrypt"])

	assert.Equal(t, []domain.EventKind{domain.EventFound, domain.EventSkip}, sink.kindsFor("bcrypt"))
	assert.Equal(t, []domain.EventKind{domain.EventFound, domain.EventStart, domain.EventDone}, sink.kindsFor("leveldown"))
	// Development-only subtrees never surface.
	assert.Empty(t, sink.kindsFor("ffi-napi"))
}

func TestRebuildValidatesTarget(t *testing.T) {
	ctrl := gomock.NewController(t)
	invoker := mocks.NewMockBuildInvoker(ctrl)
	headers := mocks.NewMockHeaderProvisioner(ctrl)

	application := newTestApp(t, invoker, headers, &recordingSink{})
	_, err := application.Rebuild(context.Background(), t.TempDir(),
		ports.RunOptions{Target: domain.TargetIdentity{Arch: domain.ArchX64}})
	assert.ErrorIs(t, err, domain.ErrInvalidVersion)
}

func TestRebuildHeadersUnavailableIsFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	invoker := mocks.NewMockBuildInvoker(ctrl)
	headers := mocks.NewMockHeaderProvisioner(ctrl)
	target := testTarget()

	headers.EXPECT().Ensure(gomock.Any(), target).
		Return("", zerr.With(domain.ErrHeadersUnavailable, "cause", "dist server unreachable"))

	application := newTestApp(t, invoker, headers, &recordingSink{})
	result, err := application.Rebuild(context.Background(), t.TempDir(), ports.RunOptions{Target: target})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrHeadersUnavailable)
}

func TestRebuildSurfacesWalkErrors(t *testing.T) {
	root := t.TempDir()
	nm := filepath.Join(root, "node_modules")

	writePackage(t, root, `{"name": "host", "dependencies": {"broken": "1.0.0", "native": "1.0.0"}}`)
	writePackage(t, filepath.Join(nm, "broken"), `{not json`)
	writePackage(t, filepath.Join(nm, "native"), `{"name": "native"}`, "binding.gyp")

	target := testTarget()

	ctrl := gomock.NewController(t)
	invoker := mocks.NewMockBuildInvoker(ctrl)
	headers := mocks.NewMockHeaderProvisioner(ctrl)

	headers.EXPECT().Ensure(gomock.Any(), target).Return(t.TempDir(), nil)
	invoker.EXPECT().Build(gomock.Any(), gomock.Any(), target).Return(nil)

	application := newTestApp(t, invoker, headers, &recordingSink{})
	result, err := application.Rebuild(context.Background(), root, ports.RunOptions{Target: target})
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, domain.OutcomeBuilt, result.Outcomes[0].Status)
	require.Len(t, result.WalkErrors, 1)
	assert.ErrorIs(t, result.WalkErrors[0], domain.ErrManifestParseFailed)
}
