package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"absentee/internal/adapters/storage"
	"absentee/internal/domain/absentee"
	"absentee/internal/domain/roster"
)

func openStore(t *testing.T) *SQLStore {
	t.Helper()
	ctx := context.Background()
	db, dialect, err := storage.Open(ctx, "sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(ctx, db, dialect); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSQLStore(db, dialect)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func buildReport(t *testing.T, id string, people ...roster.Person) absentee.Report {
	t.Helper()
	draft, err := absentee.ComputeDraft(roster.Roster{People: people}, day(2024, 3, 11), absentee.DefaultSettings())
	if err != nil {
		t.Fatalf("compute draft: %v", err)
	}
	r, err := absentee.Finalize(draft, nil)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	r.ID = id
	r.FinalizedAt = time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC)
	r.FinalizedBy = "admin@example.com"
	return r
}

func named(first, last string, attended time.Time) roster.Person {
	return roster.Person{FirstName: first, LastName: last, FullName: roster.FullName(first, last), LastAttended: attended}
}

// TestLatest_Empty verifies ErrNotFound before the first report.
func TestLatest_Empty(t *testing.T) {
	s := openStore(t)
	if _, err := s.Latest(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

// TestReplace_RoundTrip verifies weeks and entries come back in order.
func TestReplace_RoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	want := buildReport(t, "r1",
		named("Jordan", "Lee", day(2024, 2, 26)),
		named("Ana", "Silva", day(2024, 2, 25)),
		named("Sam", "Ortiz", day(2024, 1, 15)),
	)

	if err := s.Replace(ctx, want); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	got, err := s.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}

	if got.ID != "r1" || got.FinalizedBy != "admin@example.com" || !got.FinalizedAt.Equal(want.FinalizedAt) {
		t.Errorf("header = %+v", got)
	}
	if !got.ReferenceSunday.Equal(day(2024, 3, 10)) {
		t.Errorf("reference sunday = %v", got.ReferenceSunday)
	}
	if len(got.Weeks) != len(want.Weeks) {
		t.Fatalf("weeks = %d, want %d", len(got.Weeks), len(want.Weeks))
	}
	for i, w := range want.Weeks {
		g := got.Weeks[i]
		if g.Label != w.Label || g.Offset != w.Offset || len(g.Dates) != len(w.Dates) {
			t.Errorf("week %d = %+v, want %+v", i, g, w)
		}
		if len(g.Cohort) != len(w.Cohort) {
			t.Errorf("week %q cohort = %v, want %v", w.Label, g.Cohort.Names(), w.Cohort.Names())
			continue
		}
		for j := range w.Cohort {
			if g.Cohort[j].Name != w.Cohort[j].Name || !g.Cohort[j].LastAttended.Equal(w.Cohort[j].LastAttended) {
				t.Errorf("entry %d of %q = %+v, want %+v", j, w.Label, g.Cohort[j], w.Cohort[j])
			}
		}
	}
	if names := got.Weeks[0].Cohort.Names(); len(names) != 2 || names[0] != "Ana Silva" {
		t.Errorf("first week = %v, want [Ana Silva Jordan Lee]", names)
	}
}

// TestReplace_Overwrites verifies only the most recent report is kept.
func TestReplace_Overwrites(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if err := s.Replace(ctx, buildReport(t, "r1", named("Jordan", "Lee", day(2024, 2, 26)))); err != nil {
		t.Fatalf("first Replace: %v", err)
	}
	if err := s.Replace(ctx, buildReport(t, "r2")); err != nil {
		t.Fatalf("second Replace: %v", err)
	}

	got, err := s.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got.ID != "r2" {
		t.Errorf("id = %q, want r2", got.ID)
	}
	for _, w := range got.Weeks {
		if len(w.Cohort) != 0 {
			t.Errorf("week %q should be empty, got %v", w.Label, w.Cohort.Names())
		}
	}
}

// TestReplace_FailureKeepsPrevious verifies a failed write rolls back completely.
func TestReplace_FailureKeepsPrevious(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if err := s.Replace(ctx, buildReport(t, "r1", named("Jordan", "Lee", day(2024, 2, 26)))); err != nil {
		t.Fatalf("first Replace: %v", err)
	}

	bad := buildReport(t, "r2", named("Ana", "Silva", day(2024, 2, 25)))
	// duplicate key within one week violates the entry primary key
	bad.Weeks[0].Cohort = append(bad.Weeks[0].Cohort, bad.Weeks[0].Cohort[0])
	if err := s.Replace(ctx, bad); err == nil {
		t.Fatal("expected Replace to fail on duplicate entry")
	}

	got, err := s.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got.ID != "r1" {
		t.Errorf("id = %q, want r1 (previous report must survive)", got.ID)
	}
	if names := got.Weeks[0].Cohort.Names(); len(names) != 1 || names[0] != "Jordan Lee" {
		t.Errorf("first week = %v, want [Jordan Lee]", names)
	}
}

// TestReplace_RequiresID verifies reports without an ID are refused.
func TestReplace_RequiresID(t *testing.T) {
	s := openStore(t)
	if err := s.Replace(context.Background(), absentee.Report{}); err == nil {
		t.Error("expected error for missing id")
	}
}
