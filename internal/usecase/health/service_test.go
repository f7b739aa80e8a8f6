package health

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/gamedex/internal/domain/feature"
	"github.com/kailas-cloud/gamedex/internal/domain/generation"
	"github.com/kailas-cloud/gamedex/internal/index/ivf"
	"github.com/kailas-cloud/gamedex/internal/usecase/indexing"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockSnapshots struct {
	snap *indexing.Snapshot
}

func (m *mockSnapshots) Current() *indexing.Snapshot { return m.snap }

func liveSnapshot(t *testing.T) *indexing.Snapshot {
	t.Helper()
	vecs := []feature.Vector{{Values: []float32{0, 1}, Version: "test@0"}}
	idx := ivf.New(ivf.Config{Clusters: 1}, 2, "test@0")
	if err := idx.Train(vecs); err != nil {
		t.Fatalf("train: %v", err)
	}
	if _, err := idx.Add(vecs); err != nil {
		t.Fatalf("add: %v", err)
	}
	snap, err := indexing.NewSnapshot(generation.Record{Generation: "g1"}, idx, []int64{42})
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return snap
}

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPinger{}, &mockPinger{}, &mockSnapshots{snap: liveSnapshot(t)})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, name := range []string{CheckCatalog, CheckRegistry, CheckIndex} {
		if r.Checks[name] != CheckOK {
			t.Errorf("expected %s %q, got %q", name, CheckOK, r.Checks[name])
		}
	}
	if r.Generation != "g1" {
		t.Errorf("generation = %q", r.Generation)
	}
}

func TestCheck_Degraded(t *testing.T) {
	tests := []struct {
		name     string
		catalog  error
		registry error
		snap     bool
		failing  string
	}{
		{"catalog down", errors.New("database is locked"), nil, true, CheckCatalog},
		{"registry down", nil, errors.New("conn refused"), true, CheckRegistry},
		{"no snapshot", nil, nil, false, CheckIndex},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			snaps := &mockSnapshots{}
			if tc.snap {
				snaps.snap = liveSnapshot(t)
			}
			svc := New(&mockPinger{err: tc.catalog}, &mockPinger{err: tc.registry}, snaps)
			r := svc.Check(context.Background())

			if r.Status != Degraded {
				t.Errorf("expected %q, got %q", Degraded, r.Status)
			}
			if r.Checks[tc.failing] != CheckError {
				t.Errorf("expected %s %q, got %q", tc.failing, CheckError, r.Checks[tc.failing])
			}
		})
	}
}

func TestCheck_AllFail(t *testing.T) {
	svc := New(
		&mockPinger{err: errors.New("db down")},
		&mockPinger{err: errors.New("redis down")},
		&mockSnapshots{},
	)
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Generation != "" {
		t.Errorf("generation = %q, want empty", r.Generation)
	}
}

func TestCheck_NoRegistry(t *testing.T) {
	svc := New(&mockPinger{}, nil, &mockSnapshots{snap: liveSnapshot(t)})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks[CheckRegistry]; ok {
		t.Error("registry check should be absent when registry is nil")
	}
}

type blockingPinger struct{}

func (blockingPinger) Ping(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestCheck_PingTimeout(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the ping timeout")
	}
	svc := New(&mockPinger{}, blockingPinger{}, &mockSnapshots{snap: liveSnapshot(t)})
	r := svc.Check(context.Background())

	if r.Status != Degraded || r.Checks[CheckRegistry] != CheckError {
		t.Errorf("report = %+v", r)
	}
	if r.Vectors != 1 {
		t.Errorf("vectors = %d, want 1", r.Vectors)
	}
}
