package projections

import (
	"context"
	"errors"

	"absentee/internal/domain/absentee"
)

// ErrDraftNotFound is returned when the session holds no draft with the requested ID,
// either because it expired or because it belongs to another session.
var ErrDraftNotFound = errors.New("draft not found or expired; upload the roster again")

// DraftLookup defines the draft store interface needed by GetDraftReview.
type DraftLookup interface {
	Get(sessionID, draftID string) (absentee.Draft, bool)
}

// GetDraftReviewQuery carries input for the review projection.
type GetDraftReviewQuery struct {
	SessionID string
	DraftID   string
}

// GetDraftReviewDeps holds dependencies for GetDraftReview.
type GetDraftReviewDeps struct {
	Drafts DraftLookup
}

// DraftReviewResult is a draft laid out for the curation form.
type DraftReviewResult struct {
	DraftID         string
	Anchor          string
	ReferenceSunday string
	WindowDays      int
	Weeks           []WeekView
	Summary         string
	Draft           absentee.Draft
}

// QueryGetDraftReview returns the session's draft with every entry pre-selected as absent.
// PRE: query.SessionID identifies the caller's session
// POST: returns ErrDraftNotFound unless the draft belongs to that session and is live
func QueryGetDraftReview(_ context.Context, query GetDraftReviewQuery, deps GetDraftReviewDeps) (DraftReviewResult, error) {
	d, ok := deps.Drafts.Get(query.SessionID, query.DraftID)
	if !ok {
		return DraftReviewResult{}, ErrDraftNotFound
	}
	return DraftReviewResult{
		DraftID:         d.ID,
		Anchor:          formatDate(d.Anchor),
		ReferenceSunday: formatDate(d.ReferenceSunday),
		WindowDays:      d.WindowDays,
		Weeks:           weekViews(d.Weeks),
		Summary:         summaryMarkdown(d.Anchor, d.ReferenceSunday, d.Weeks, d.Stats),
		Draft:           d,
	}, nil
}

// SelectionsFromForm rebuilds curation selections from the review form.
// Every label in weeks is treated as edited, so a week with nothing checked
// becomes an empty selection.
// POST: values that are not "label|key" fail with *absentee.CurationError listing them all
func SelectionsFromForm(weeks, kept []string) (absentee.Selections, error) {
	sel := make(absentee.Selections, len(weeks))
	for _, label := range weeks {
		if label != "" {
			sel[label] = []string{}
		}
	}
	var malformed []string
	for _, v := range kept {
		label, key, ok := ParseSelectionValue(v)
		if !ok {
			malformed = append(malformed, v)
			continue
		}
		sel[label] = append(sel[label], key)
	}
	if len(malformed) > 0 {
		return nil, &absentee.CurationError{Malformed: malformed}
	}
	return sel, nil
}
