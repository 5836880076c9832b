package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"absentee/internal/domain/absentee"
	"absentee/internal/domain/roster"
)

// mockDraftSaver implements DraftSaver for testing.
type mockDraftSaver struct {
	drafts map[string]absentee.Draft
}

func (m *mockDraftSaver) Put(sessionID string, d absentee.Draft) {
	m.drafts[sessionID] = d
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testPerson(first, last string, attended time.Time) roster.Person {
	return roster.Person{
		FirstName:    first,
		LastName:     last,
		FullName:     roster.FullName(first, last),
		LastAttended: attended,
	}
}

func testRoster() roster.Roster {
	return roster.Roster{People: []roster.Person{
		testPerson("Jordan", "Lee", day(2024, 2, 26)),
		testPerson("Ana", "Silva", day(2024, 2, 25)),
		testPerson("Sam", "Ortiz", day(2024, 2, 18)),
		testPerson("Kai", "Moana", time.Time{}),
	}, NeverAttended: 1}
}

// TestExecuteComputeDraft_StoresDraft tests the draft is identified and kept for the session.
func TestExecuteComputeDraft_StoresDraft(t *testing.T) {
	saver := &mockDraftSaver{drafts: make(map[string]absentee.Draft)}
	draft, err := ExecuteComputeDraft(context.Background(), ComputeDraftInput{
		Roster:    testRoster(),
		Anchor:    day(2024, 3, 11),
		Settings:  absentee.DefaultSettings(),
		SessionID: "sess-1",
	}, ComputeDraftDeps{
		Drafts:     saver,
		GenerateID: testID,
		Now:        testNow,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if draft.ID != "test-id-001" {
		t.Errorf("expected ID=test-id-001, got %s", draft.ID)
	}
	if !draft.CreatedAt.Equal(testTime) {
		t.Errorf("expected CreatedAt=%s, got %s", testTime, draft.CreatedAt)
	}
	if len(draft.Weeks) != 7 {
		t.Fatalf("expected 7 weeks, got %d", len(draft.Weeks))
	}
	if got := draft.Weeks[0].Cohort.Names(); len(got) != 2 {
		t.Errorf("expected 2 people two weeks ago, got %v", got)
	}
	if draft.Stats.People != 4 || draft.Stats.NeverAttended != 1 {
		t.Errorf("unexpected stats: %+v", draft.Stats)
	}
	stored, ok := saver.drafts["sess-1"]
	if !ok {
		t.Fatal("expected draft to be stored for the session")
	}
	if stored.ID != draft.ID {
		t.Errorf("stored draft ID=%s, want %s", stored.ID, draft.ID)
	}
}

// TestExecuteComputeDraft_NoSaver tests batch use without a draft store.
func TestExecuteComputeDraft_NoSaver(t *testing.T) {
	draft, err := ExecuteComputeDraft(context.Background(), ComputeDraftInput{
		Roster:   testRoster(),
		Anchor:   day(2024, 3, 11),
		Settings: absentee.DefaultSettings(),
	}, ComputeDraftDeps{GenerateID: testID, Now: testNow})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if draft.ReferenceSunday.Weekday() != time.Sunday {
		t.Errorf("expected a Sunday, got %s", draft.ReferenceSunday.Weekday())
	}
}

// TestExecuteComputeDraft_InvalidSettings tests that bad settings store nothing.
func TestExecuteComputeDraft_InvalidSettings(t *testing.T) {
	saver := &mockDraftSaver{drafts: make(map[string]absentee.Draft)}
	_, err := ExecuteComputeDraft(context.Background(), ComputeDraftInput{
		Roster:    testRoster(),
		Anchor:    day(2024, 3, 11),
		Settings:  absentee.Settings{Offsets: []int{3, 2}, WindowDays: 3},
		SessionID: "sess-1",
	}, ComputeDraftDeps{Drafts: saver, GenerateID: testID, Now: testNow})
	var settingsErr *absentee.SettingsError
	if !errors.As(err, &settingsErr) {
		t.Fatalf("expected SettingsError, got %v", err)
	}
	if len(saver.drafts) != 0 {
		t.Error("expected no draft stored")
	}
}
