package roster

import (
	"fmt"
	"strings"
)

// RowError describes a problem with a single source row.
type RowError struct {
	Row     int
	Value   string
	Message string
}

func (e RowError) String() string {
	if e.Value == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Message)
	}
	return fmt.Sprintf("row %d: %s (%q)", e.Row, e.Message, e.Value)
}

// SchemaError is returned when the roster does not have the required shape:
// required columns are missing, or rows carry no name at all.
type SchemaError struct {
	Missing []string
	Rows    []RowError
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("roster is missing required column(s): %s (expected %s)",
			strings.Join(e.Missing, ", "), strings.Join(RequiredColumns, ", ")))
	}
	if len(e.Rows) > 0 {
		parts = append(parts, joinRows("invalid row(s)", e.Rows))
	}
	return strings.Join(parts, "; ")
}

// DateParseError is returned when one or more last-attended values cannot be
// read as calendar dates. The whole run is rejected; every failing row is listed.
type DateParseError struct {
	Rows []RowError
}

// Error implements the error interface.
func (e *DateParseError) Error() string {
	return joinRows("unparseable last attended date(s)", e.Rows)
}

func joinRows(prefix string, rows []RowError) string {
	const shown = 10
	msgs := make([]string, 0, shown)
	for i, r := range rows {
		if i == shown {
			msgs = append(msgs, fmt.Sprintf("and %d more", len(rows)-shown))
			break
		}
		msgs = append(msgs, r.String())
	}
	return fmt.Sprintf("%s: %s", prefix, strings.Join(msgs, "; "))
}
