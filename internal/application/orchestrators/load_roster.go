package orchestrators

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"absentee/internal/adapters/rostersource"
	"absentee/internal/domain/roster"
	"absentee/internal/observability"
)

// LoadRosterInput carries an uploaded roster file.
// PRE: Reader yields a .csv, .xlsx or .xls file; Filename is the client-supplied name
type LoadRosterInput struct {
	Reader   io.Reader
	Filename string
}

// ExecuteLoadRoster reads and normalizes a roster upload.
// PRE: Input.Reader is non-nil
// POST: Returns the normalized roster, or *roster.SchemaError / *roster.DateParseError /
//
//	a rostersource error describing why the file was rejected
//
// INVARIANT: no partial roster is ever returned
func ExecuteLoadRoster(_ context.Context, input LoadRosterInput) (roster.Roster, error) {
	table, err := rostersource.Read(input.Reader, input.Filename)
	if err != nil {
		observability.RosterRejectedTotal.WithLabelValues("format").Inc()
		slog.Info("roster_rejected", "file", input.Filename, "reason", "format", "error", err.Error())
		return roster.Roster{}, err
	}

	r, err := roster.NormalizeNumbered(table.Header, table.Rows, table.RowNumbers)
	if err != nil {
		reason := "schema"
		var dateErr *roster.DateParseError
		if errors.As(err, &dateErr) {
			reason = "date"
		}
		observability.RosterRejectedTotal.WithLabelValues(reason).Inc()
		slog.Info("roster_rejected", "file", input.Filename, "format", table.Format, "reason", reason, "error", err.Error())
		return roster.Roster{}, err
	}

	observability.RosterRowsTotal.WithLabelValues("accepted").Add(float64(r.Len() - r.NeverAttended))
	observability.RosterRowsTotal.WithLabelValues("never_attended").Add(float64(r.NeverAttended))
	slog.Info("roster_loaded",
		"file", input.Filename,
		"format", table.Format,
		"people", r.Len(),
		"never_attended", r.NeverAttended,
		"has_ids", r.HasIDs,
	)
	return r, nil
}

// IsRosterRejection reports whether err describes a bad upload rather than a server fault.
func IsRosterRejection(err error) bool {
	var (
		schemaErr *roster.SchemaError
		dateErr   *roster.DateParseError
	)
	return errors.As(err, &schemaErr) ||
		errors.As(err, &dateErr) ||
		errors.Is(err, rostersource.ErrEmpty) ||
		errors.Is(err, rostersource.ErrUnsupportedFormat) ||
		errors.Is(err, rostersource.ErrUnreadable)
}
