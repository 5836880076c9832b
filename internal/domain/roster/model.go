package roster

import (
	"strings"
	"time"
)

// Column names as they appear in the roster source. Matching is done on the
// normalized form (see NormalizeHeader), so "first_name" and "FIRST NAME" match too.
const (
	ColumnFirstName    = "First Name"
	ColumnLastName     = "Last Name"
	ColumnLastAttended = "Last Attended Date"
)

// RequiredColumns lists the columns every roster must carry, in display order.
var RequiredColumns = []string{ColumnFirstName, ColumnLastName, ColumnLastAttended}

// idColumns are accepted spellings of the optional stable person identifier.
var idColumns = []string{"ID", "Person ID", "Member ID", "PersonID"}

// Person is one roster row after normalization.
type Person struct {
	Row          int // 1-indexed source row, header is row 1
	ID           string
	FirstName    string
	LastName     string
	FullName     string
	LastAttended time.Time // zero when the source cell was blank
}

// HasAttended reports whether a last-attended date was recorded.
// INVARIANT: Person fields are not mutated
func (p Person) HasAttended() bool {
	return !p.LastAttended.IsZero()
}

// Key returns the grouping key: the stable ID when the roster supplies one,
// otherwise the full name. Two people sharing a name and lacking IDs collapse
// into one key; that is a known limitation of name-based rosters.
func (p Person) Key() string {
	if p.ID != "" {
		return p.ID
	}
	return p.FullName
}

// Roster is the normalized population for one report run.
type Roster struct {
	People        []Person
	HasIDs        bool
	NeverAttended int
}

// Len returns the number of people in the roster.
func (r Roster) Len() int {
	return len(r.People)
}

// FullName joins trimmed first and last names with a single space.
// Internal whitespace is left alone.
func FullName(first, last string) string {
	return strings.TrimSpace(first) + " " + strings.TrimSpace(last)
}

// NormalizeHeader lowercases a header and strips spaces, underscores and hyphens.
func NormalizeHeader(value string) string {
	value = strings.TrimPrefix(value, "\ufeff")
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.ReplaceAll(value, " ", "")
	value = strings.ReplaceAll(value, "_", "")
	value = strings.ReplaceAll(value, "-", "")
	return value
}
