package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"absentee/internal/adapters/storage"
	"absentee/internal/domain/absentee"
)

const timeLayout = "2006-01-02T15:04:05.999999999Z07:00"

// SQLStore implements Store on SQLite or Postgres.
type SQLStore struct {
	db      storage.SQLDB
	dialect storage.Dialect
}

// NewSQLStore creates a report store. dialect selects placeholder syntax.
func NewSQLStore(db storage.SQLDB, dialect storage.Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func (s *SQLStore) q(query string) string {
	return s.dialect.Rebind(query)
}

// Replace deletes the previous report and inserts r.
// PRE: r.ID is non-empty; week labels are unique
// POST: Latest returns r
// INVARIANT: on any error the previous report is left intact
func (s *SQLStore) Replace(ctx context.Context, r absentee.Report) error {
	if r.ID == "" {
		return errors.New("report id is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{"DELETE FROM report_entry", "DELETE FROM report_week", "DELETE FROM report"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear previous report: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, s.q(`INSERT INTO report
		(id, draft_id, anchor, reference_sunday, window_days, people, never_attended, has_ids, finalized_at, finalized_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		r.ID,
		r.DraftID,
		formatDate(r.Anchor),
		formatDate(r.ReferenceSunday),
		r.WindowDays,
		r.Stats.People,
		r.Stats.NeverAttended,
		boolInt(r.Stats.HasIDs),
		r.FinalizedAt.UTC().Format(timeLayout),
		r.FinalizedBy,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	weekStmt, err := tx.PrepareContext(ctx, s.q(`INSERT INTO report_week
		(report_id, label, position, offset_weeks, window_start, window_end, removed)
		VALUES (?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("prepare week insert: %w", err)
	}
	defer weekStmt.Close()

	entryStmt, err := tx.PrepareContext(ctx, s.q(`INSERT INTO report_entry
		(report_id, week_label, position, entry_key, name, person_id, last_attended)
		VALUES (?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return fmt.Errorf("prepare entry insert: %w", err)
	}
	defer entryStmt.Close()

	for i, w := range r.Weeks {
		if _, err := weekStmt.ExecContext(ctx, r.ID, w.Label, i, w.Offset,
			formatDate(w.Start), formatDate(w.End()), w.Removed); err != nil {
			return fmt.Errorf("insert week %q: %w", w.Label, err)
		}
		for j, e := range w.Cohort {
			if _, err := entryStmt.ExecContext(ctx, r.ID, w.Label, j, e.Key, e.Name, e.PersonID, formatDate(e.LastAttended)); err != nil {
				return fmt.Errorf("insert entry %q in %q: %w", e.Key, w.Label, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

// Latest loads the stored report with weeks and entries in their original order.
// POST: returns ErrNotFound when nothing has been stored
func (s *SQLStore) Latest(ctx context.Context) (absentee.Report, error) {
	var (
		r                              absentee.Report
		anchor, reference, finalizedAt string
		hasIDs                         int
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, draft_id, anchor, reference_sunday, window_days,
		people, never_attended, has_ids, finalized_at, finalized_by FROM report LIMIT 1`).Scan(
		&r.ID, &r.DraftID, &anchor, &reference, &r.WindowDays,
		&r.Stats.People, &r.Stats.NeverAttended, &hasIDs, &finalizedAt, &r.FinalizedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return absentee.Report{}, ErrNotFound
	}
	if err != nil {
		return absentee.Report{}, fmt.Errorf("load report: %w", err)
	}
	r.Stats.HasIDs = hasIDs != 0
	r.Anchor, _ = parseDate(anchor)
	r.ReferenceSunday, _ = parseDate(reference)
	r.FinalizedAt, _ = time.Parse(timeLayout, finalizedAt)

	if r.Weeks, err = s.loadWeeks(ctx, r.ID); err != nil {
		return absentee.Report{}, err
	}
	if err := s.loadEntries(ctx, &r); err != nil {
		return absentee.Report{}, err
	}
	return r, nil
}

func (s *SQLStore) loadWeeks(ctx context.Context, reportID string) ([]absentee.Week, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT label, offset_weeks, window_start, window_end, removed
		FROM report_week WHERE report_id = ? ORDER BY position`), reportID)
	if err != nil {
		return nil, fmt.Errorf("load weeks: %w", err)
	}
	defer rows.Close()

	var weeks []absentee.Week
	for rows.Next() {
		var (
			w          absentee.Week
			start, end string
		)
		if err := rows.Scan(&w.Label, &w.Offset, &start, &end, &w.Removed); err != nil {
			return nil, fmt.Errorf("scan week: %w", err)
		}
		w.Start, _ = parseDate(start)
		last, _ := parseDate(end)
		for d := w.Start; !d.After(last); d = d.AddDate(0, 0, 1) {
			w.Dates = append(w.Dates, d)
		}
		w.Cohort = absentee.Cohort{}
		weeks = append(weeks, w)
	}
	return weeks, rows.Err()
}

func (s *SQLStore) loadEntries(ctx context.Context, r *absentee.Report) error {
	byLabel := make(map[string]int, len(r.Weeks))
	for i, w := range r.Weeks {
		byLabel[w.Label] = i
	}

	rows, err := s.db.QueryContext(ctx, s.q(`SELECT week_label, entry_key, name, person_id, last_attended
		FROM report_entry WHERE report_id = ? ORDER BY week_label, position`), r.ID)
	if err != nil {
		return fmt.Errorf("load entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			label, lastAttended string
			e                   absentee.Entry
		)
		if err := rows.Scan(&label, &e.Key, &e.Name, &e.PersonID, &lastAttended); err != nil {
			return fmt.Errorf("scan entry: %w", err)
		}
		e.LastAttended, _ = parseDate(lastAttended)
		i, ok := byLabel[label]
		if !ok {
			continue
		}
		r.Weeks[i].Cohort = append(r.Weeks[i].Cohort, e)
	}
	return rows.Err()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(absentee.DateLayout)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(absentee.DateLayout, s)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
