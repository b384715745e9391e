package coach

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func tempSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "coach.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "state", "coach.json"))
	if _, err := store.Load(ctx); !errors.Is(err, ErrNoState) {
		t.Fatalf("expected ErrNoState, got %v", err)
	}

	c := New(store, WithIdealSteps(map[int]int{1: 10}))
	c.RecordMissionRun(1, summary(50, 30, 0))
	if err := c.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	again := New(store)
	if rec, ok := again.Mission(1); !ok || rec.Attempts != 1 {
		t.Fatalf("expected restored mission, got %+v", rec)
	}
}

func TestFileStoreCarriesDecisionCount(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "coach.json")
	c := New(NewFileStore(path), WithSeed(9))
	c.ChooseCoachPlan(2)
	c.NextConcept([]string{"bellman"})
	if err := c.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := New(NewFileStore(path), WithSeed(9)).Snapshot().Decisions; got != 2 {
		t.Fatalf("expected 2 decisions after reopening, got %d", got)
	}
}

func TestNilSQLiteStoreClose(t *testing.T) {
	var s *SQLiteStore
	if err := s.Close(); err != nil {
		t.Fatalf("closing a nil store should be a no-op, got %v", err)
	}
}

func TestSQLiteStoreVersions(t *testing.T) {
	ctx := context.Background()
	s := tempSQLite(t)
	if _, err := s.Load(ctx); !errors.Is(err, ErrNoState) {
		t.Fatalf("expected ErrNoState on a fresh db, got %v", err)
	}

	if err := s.Save(ctx, []byte(`{"missions":{}}`)); err != nil {
		t.Fatalf("Save v1: %v", err)
	}
	if err := s.Save(ctx, []byte(`{"missions":{"1":{"attempts":1,"status":"practicing"}}}`)); err != nil {
		t.Fatalf("Save v2: %v", err)
	}
	versions, err := s.ListVersions(ctx)
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(versions))
	}
	if !versions[0].Active || versions[0].ParentID != versions[1].ID {
		t.Fatalf("newest version should be active and point at its parent: %+v", versions)
	}

	c := New(s)
	if rec, ok := c.Mission(1); !ok || rec.Status != StatusPracticing {
		t.Fatalf("expected the newest blob, got %+v", rec)
	}

	if err := s.Rollback(ctx, versions[1].ID); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if _, ok := New(s).Mission(1); ok {
		t.Fatal("rollback should restore the older, empty state")
	}
	if err := s.Rollback(ctx, "missing"); err == nil {
		t.Fatal("rollback to an unknown version should fail")
	}
}

func TestSQLiteStoreRunLog(t *testing.T) {
	ctx := context.Background()
	s := tempSQLite(t)
	c := New(s, WithIdealSteps(map[int]int{3: 20}))

	for _, rate := range []float64{20, 60} {
		sum := summary(rate, 40, 10)
		rec := c.RecordMissionRun(3, sum)
		id, err := s.LogRun(ctx, 3, "q-learning", sum, rec)
		if err != nil {
			t.Fatalf("LogRun: %v", err)
		}
		if id == "" {
			t.Fatal("expected a run id")
		}
	}
	if _, err := s.LogRun(ctx, 4, "sarsa", summary(0, 0, 0), MissionRecord{Status: StatusPracticing}); err != nil {
		t.Fatalf("LogRun: %v", err)
	}

	runs, err := s.Runs(ctx, 3)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs for level 3, got %d", len(runs))
	}
	if runs[0].Summary.SuccessRate != 20 || runs[1].Summary.SuccessRate != 60 {
		t.Fatalf("runs out of order: %+v", runs)
	}
	if !runs[0].Summary.HasAvgStepsOnSuccess || runs[0].Summary.AvgStepsOnSuccess != 40 {
		t.Fatalf("average steps not stored: %+v", runs[0].Summary)
	}

	other, err := s.Runs(ctx, 4)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(other) != 1 || other[0].Summary.HasAvgStepsOnSuccess {
		t.Fatalf("unexpected level 4 runs: %+v", other)
	}
}
