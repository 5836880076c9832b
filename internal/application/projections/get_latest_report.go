package projections

import (
	"context"
	"errors"
	"time"

	reportStore "absentee/internal/adapters/storage/report"
	"absentee/internal/domain/absentee"
)

// LatestReportStore defines the store interface needed by GetLatestReport.
type LatestReportStore interface {
	Latest(ctx context.Context) (absentee.Report, error)
}

// GetLatestReportDeps holds dependencies for GetLatestReport.
type GetLatestReportDeps struct {
	ReportStore LatestReportStore
}

// LatestReportResult is the most recent finalized report, ready to render.
type LatestReportResult struct {
	Found           bool       `json:"found"`
	ID              string     `json:"id,omitempty"`
	Anchor          string     `json:"anchor,omitempty"`
	ReferenceSunday string     `json:"reference_sunday,omitempty"`
	FinalizedAt     time.Time  `json:"finalized_at"`
	FinalizedBy     string     `json:"finalized_by,omitempty"`
	Total           int        `json:"total"`
	Weeks           []WeekView `json:"weeks"`
	Summary         string     `json:"summary,omitempty"`
	// Report is the domain value, kept for the workbook download.
	Report absentee.Report `json:"-"`
}

// QueryGetLatestReport returns the stored report.
// PRE: deps.ReportStore is set
// POST: Found is false, with no error, when nothing has been finalized yet
func QueryGetLatestReport(ctx context.Context, deps GetLatestReportDeps) (LatestReportResult, error) {
	r, err := deps.ReportStore.Latest(ctx)
	if errors.Is(err, reportStore.ErrNotFound) {
		return LatestReportResult{Weeks: []WeekView{}}, nil
	}
	if err != nil {
		return LatestReportResult{}, err
	}

	return LatestReportResult{
		Found:           true,
		ID:              r.ID,
		Anchor:          formatDate(r.Anchor),
		ReferenceSunday: formatDate(r.ReferenceSunday),
		FinalizedAt:     r.FinalizedAt,
		FinalizedBy:     r.FinalizedBy,
		Total:           r.Total(),
		Weeks:           weekViews(r.Weeks),
		Summary:         summaryMarkdown(r.Anchor, r.ReferenceSunday, r.Weeks, r.Stats),
		Report:          r,
	}, nil
}
