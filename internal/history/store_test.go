package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RecordAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	records := []Record{
		{ProjectPath: "/p/a", Platforms: "win,linux", StartedAt: base, FinishedAt: base.Add(time.Minute), Success: true, OutputBytes: 120},
		{ProjectPath: "/p/b", Platforms: "linux", StartedAt: base.Add(time.Hour), FinishedAt: base.Add(time.Hour + time.Second), FailedStage: "installing-dependencies"},
		{ProjectPath: "/p/a", Platforms: "mac", StartedAt: base.Add(2 * time.Hour), FinishedAt: base.Add(2*time.Hour + 5*time.Second)},
	}
	for _, rec := range records {
		if err := s.Record(ctx, rec); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	all, err := s.List(ctx, "", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}
	if all[0].Platforms != "mac" || all[2].Platforms != "win,linux" {
		t.Errorf("not newest first: %+v", all)
	}
	for _, rec := range all {
		if rec.ID == "" {
			t.Error("record without ID")
		}
	}

	onlyA, err := s.List(ctx, "/p/a", 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(onlyA) != 1 || onlyA[0].Platforms != "mac" {
		t.Fatalf("List(/p/a, 1) = %+v", onlyA)
	}

	first := all[2]
	if !first.Success || first.OutputBytes != 120 || first.Duration() != time.Minute {
		t.Errorf("round trip lost data: %+v", first)
	}
	if !first.StartedAt.Equal(base) {
		t.Errorf("StartedAt = %v, want %v", first.StartedAt, base)
	}
	if all[1].FailedStage != "installing-dependencies" || all[1].Success {
		t.Errorf("failed build = %+v", all[1])
	}
}

func TestStore_RecordRequiresProject(t *testing.T) {
	s := openTestStore(t)
	if err := s.Record(context.Background(), Record{}); err == nil {
		t.Error("expected error for empty project path")
	}
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	if err := s.Record(context.Background(), Record{ProjectPath: "/p", StartedAt: now, FinishedAt: now}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.List(context.Background(), "/p", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("after reopen len = %d, want 1", len(got))
	}
}
