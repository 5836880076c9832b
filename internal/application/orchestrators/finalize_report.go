package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"absentee/internal/domain/absentee"
	"absentee/internal/observability"
)

// ReportReplacer persists the latest report.
type ReportReplacer interface {
	Replace(ctx context.Context, r absentee.Report) error
}

// FinalizeReportInput carries the draft under review and the operator's choices.
type FinalizeReportInput struct {
	Draft       absentee.Draft
	Selections  absentee.Selections
	FinalizedBy string
	// Source labels the channel in metrics: "web" or "cli".
	Source string
}

// FinalizeReportDeps holds dependencies for FinalizeReport.
// ReportStore may be nil when the report is only exported.
type FinalizeReportDeps struct {
	ReportStore ReportReplacer
	GenerateID  func() string
	Now         func() time.Time
}

// ExecuteFinalizeReport applies curation and persists the result.
// PRE: Input.Draft came from ExecuteComputeDraft
// POST: Returns the curated report; when ReportStore is set it replaces the stored report
// INVARIANT: a *absentee.CurationError leaves the stored report untouched
func ExecuteFinalizeReport(ctx context.Context, input FinalizeReportInput, deps FinalizeReportDeps) (absentee.Report, error) {
	report, err := absentee.Finalize(input.Draft, input.Selections)
	if err != nil {
		var curationErr *absentee.CurationError
		if errors.As(err, &curationErr) {
			observability.CurationErrorsTotal.Inc()
			slog.Info("report_curation_rejected", "draft_id", input.Draft.ID, "error", err.Error())
		}
		return absentee.Report{}, err
	}

	report.ID = deps.GenerateID()
	report.FinalizedAt = deps.Now()
	report.FinalizedBy = input.FinalizedBy

	if deps.ReportStore != nil {
		if err := deps.ReportStore.Replace(ctx, report); err != nil {
			return absentee.Report{}, fmt.Errorf("store report: %w", err)
		}
	}

	source := input.Source
	if source == "" {
		source = "web"
	}
	observability.ReportsFinalizedTotal.WithLabelValues(source).Inc()

	removed := 0
	for _, w := range report.Weeks {
		removed += w.Removed
	}
	slog.Info("report_finalized",
		"report_id", report.ID,
		"draft_id", report.DraftID,
		"by", report.FinalizedBy,
		"entries", report.Total(),
		"removed", removed,
		"stored", deps.ReportStore != nil,
	)
	return report, nil
}
