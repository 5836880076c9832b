package absentee

import (
	"sort"
	"time"

	"absentee/internal/domain/roster"
)

// Entry is one member of a cohort. Key is the person ID when the roster has
// one, otherwise the full name.
type Entry struct {
	Key          string    `json:"key"`
	Name         string    `json:"name"`
	PersonID     string    `json:"person_id,omitempty"`
	LastAttended time.Time `json:"last_attended"`
}

// Cohort is a deduplicated, name-ordered list of entries.
type Cohort []Entry

// Names returns the display names in cohort order.
func (c Cohort) Names() []string {
	names := make([]string, len(c))
	for i, e := range c {
		names[i] = e.Name
	}
	return names
}

// Keys returns the grouping keys in cohort order.
func (c Cohort) Keys() []string {
	keys := make([]string, len(c))
	for i, e := range c {
		keys[i] = e.Key
	}
	return keys
}

// Contains reports whether key is in the cohort.
func (c Cohort) Contains(key string) bool {
	for _, e := range c {
		if e.Key == key {
			return true
		}
	}
	return false
}

// CohortForWindow scans the roster for people whose last-attended date is one
// of the window dates.
// POST: a key appears iff at least one person with that key matched; sorted by name then key
func CohortForWindow(r roster.Roster, w Window) Cohort {
	var matches []roster.Person
	for _, p := range r.People {
		if p.HasAttended() && w.Contains(p.LastAttended) {
			matches = append(matches, p)
		}
	}
	return buildCohort(matches)
}

// dateIndex buckets people by last-attended day so each window is a handful of map lookups.
type dateIndex map[time.Time][]roster.Person

func indexByDate(r roster.Roster) dateIndex {
	idx := make(dateIndex)
	for _, p := range r.People {
		if !p.HasAttended() {
			continue
		}
		d := roster.DateOnly(p.LastAttended)
		idx[d] = append(idx[d], p)
	}
	return idx
}

func (idx dateIndex) cohort(w Window) Cohort {
	var matches []roster.Person
	for _, d := range w.Dates {
		matches = append(matches, idx[d]...)
	}
	return buildCohort(matches)
}

func buildCohort(people []roster.Person) Cohort {
	byKey := make(map[string]Entry, len(people))
	for _, p := range people {
		key := p.Key()
		existing, ok := byKey[key]
		if ok && !p.LastAttended.After(existing.LastAttended) {
			continue
		}
		byKey[key] = Entry{
			Key:          key,
			Name:         p.FullName,
			PersonID:     p.ID,
			LastAttended: p.LastAttended,
		}
	}
	cohort := make(Cohort, 0, len(byKey))
	for _, e := range byKey {
		cohort = append(cohort, e)
	}
	sortCohort(cohort)
	return cohort
}

func sortCohort(c Cohort) {
	sort.Slice(c, func(i, j int) bool {
		if c[i].Name != c[j].Name {
			return c[i].Name < c[j].Name
		}
		return c[i].Key < c[j].Key
	})
}
