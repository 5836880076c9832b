package report

import (
	"context"
	"errors"

	"absentee/internal/domain/absentee"
)

// ErrNotFound is returned by Latest before any report has been finalized.
var ErrNotFound = errors.New("no report has been finalized yet")

// Store persists the most recent finalized report.
type Store interface {
	// Replace swaps the stored report for r in one transaction.
	Replace(ctx context.Context, r absentee.Report) error
	Latest(ctx context.Context) (absentee.Report, error)
}
