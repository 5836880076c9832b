package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"absentee/internal/domain/absentee"
	"absentee/internal/domain/roster"
	"absentee/internal/observability"
)

// DraftSaver keeps a draft for later curation.
type DraftSaver interface {
	Put(sessionID string, d absentee.Draft)
}

// ComputeDraftInput carries a normalized roster and the operator's anchor.
type ComputeDraftInput struct {
	Roster    roster.Roster
	Anchor    time.Time
	Settings  absentee.Settings
	SessionID string
}

// ComputeDraftDeps holds dependencies for ComputeDraft.
// Drafts may be nil when the caller curates in-process (batch runs).
type ComputeDraftDeps struct {
	Drafts     DraftSaver
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteComputeDraft builds the per-week cohorts for one roster and anchor.
// PRE: Input.Settings pass Validate; GenerateID and Now are set
// POST: Returns a draft with an ID; when Drafts is set it is stored under SessionID
// INVARIANT: the roster is not modified
func ExecuteComputeDraft(_ context.Context, input ComputeDraftInput, deps ComputeDraftDeps) (absentee.Draft, error) {
	start := time.Now()
	draft, err := absentee.ComputeDraft(input.Roster, input.Anchor, input.Settings)
	if err != nil {
		return absentee.Draft{}, err
	}
	draft.ID = deps.GenerateID()
	draft.CreatedAt = deps.Now()

	if deps.Drafts != nil {
		deps.Drafts.Put(input.SessionID, draft)
	}

	observability.DraftsComputedTotal.Inc()
	observability.DraftComputeDuration.Observe(time.Since(start).Seconds())

	total := 0
	for _, w := range draft.Weeks {
		total += len(w.Cohort)
	}
	slog.Info("report_draft_computed",
		"draft_id", draft.ID,
		"anchor", draft.Anchor.Format(absentee.DateLayout),
		"reference_sunday", draft.ReferenceSunday.Format(absentee.DateLayout),
		"weeks", len(draft.Weeks),
		"entries", total,
		"people", draft.Stats.People,
	)
	return draft, nil
}
