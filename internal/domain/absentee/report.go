package absentee

import (
	"sort"
	"time"

	"absentee/internal/domain/roster"
)

// Week pairs a window with its cohort.
type Week struct {
	Offset int         `json:"offset"`
	Label  string      `json:"label"`
	Start  time.Time   `json:"start"`
	Dates  []time.Time `json:"dates"`
	Cohort Cohort      `json:"entries"`
	// Removed counts entries the operator deselected; zero on a draft.
	Removed int `json:"removed"`
}

// End returns the last window date.
func (w Week) End() time.Time {
	if len(w.Dates) == 0 {
		return w.Start
	}
	return w.Dates[len(w.Dates)-1]
}

// Stats summarises the roster a draft was computed from.
type Stats struct {
	People        int  `json:"people"`
	NeverAttended int  `json:"never_attended"`
	HasIDs        bool `json:"has_ids"`
}

// Draft holds the raw cohorts awaiting curation.
type Draft struct {
	ID              string    `json:"id"`
	Anchor          time.Time `json:"anchor"`
	ReferenceSunday time.Time `json:"reference_sunday"`
	WindowDays      int       `json:"window_days"`
	Weeks           []Week    `json:"weeks"`
	Stats           Stats     `json:"stats"`
	CreatedAt       time.Time `json:"created_at"`
}

// Week returns the week with the given label.
func (d Draft) Week(label string) (Week, bool) {
	return findWeek(d.Weeks, label)
}

// Labels returns the week labels in offset order.
func (d Draft) Labels() []string {
	return labels(d.Weeks)
}

// Report is a curated draft: the people confirmed absent per week.
type Report struct {
	ID              string    `json:"id"`
	DraftID         string    `json:"draft_id"`
	Anchor          time.Time `json:"anchor"`
	ReferenceSunday time.Time `json:"reference_sunday"`
	WindowDays      int       `json:"window_days"`
	Weeks           []Week    `json:"weeks"`
	Stats           Stats     `json:"stats"`
	FinalizedAt     time.Time `json:"finalized_at"`
	FinalizedBy     string    `json:"finalized_by"`
}

// Week returns the week with the given label.
func (r Report) Week(label string) (Week, bool) {
	return findWeek(r.Weeks, label)
}

// Labels returns the week labels in offset order.
func (r Report) Labels() []string {
	return labels(r.Weeks)
}

// Total returns the number of entries across all weeks.
func (r Report) Total() int {
	n := 0
	for _, w := range r.Weeks {
		n += len(w.Cohort)
	}
	return n
}

// ComputeDraft builds the raw cohort for every configured offset.
// PRE: roster is normalized; settings pass Validate
// POST: one week per offset in offset order, including empty weeks
func ComputeDraft(r roster.Roster, anchor time.Time, settings Settings) (Draft, error) {
	ref := ReferenceSunday(anchor)
	windows, err := Windows(ref, settings)
	if err != nil {
		return Draft{}, err
	}
	idx := indexByDate(r)

	weeks := make([]Week, 0, len(windows))
	for _, w := range windows {
		weeks = append(weeks, Week{
			Offset: w.Offset,
			Label:  w.Label(),
			Start:  w.Start,
			Dates:  w.Dates,
			Cohort: idx.cohort(w),
		})
	}

	return Draft{
		Anchor:          roster.DateOnly(anchor),
		ReferenceSunday: ref,
		WindowDays:      settings.WindowDays,
		Weeks:           weeks,
		Stats: Stats{
			People:        r.Len(),
			NeverAttended: r.NeverAttended,
			HasIDs:        r.HasIDs,
		},
	}, nil
}

// Selections maps a week label to the cohort keys the operator confirms absent.
// A label that is absent from the map keeps its whole cohort.
type Selections map[string][]string

// Finalize applies operator selections to a draft.
// PRE: draft came from ComputeDraft
// POST: every draft week is present; each cohort is a subset of the raw one
// INVARIANT: selections naming unknown weeks or keys fail with *CurationError and nothing is applied
func Finalize(draft Draft, selections Selections) (Report, error) {
	known := make(map[string]Week, len(draft.Weeks))
	for _, w := range draft.Weeks {
		known[w.Label] = w
	}

	curationErr := &CurationError{}
	for label, keys := range selections {
		w, ok := known[label]
		if !ok {
			curationErr.UnknownWeeks = append(curationErr.UnknownWeeks, label)
			continue
		}
		for _, key := range keys {
			if !w.Cohort.Contains(key) {
				curationErr.add(label, key)
			}
		}
	}
	if curationErr.HasProblems() {
		sort.Strings(curationErr.UnknownWeeks)
		return Report{}, curationErr
	}

	weeks := make([]Week, 0, len(draft.Weeks))
	for _, w := range draft.Weeks {
		keys, edited := selections[w.Label]
		if !edited {
			weeks = append(weeks, copyWeek(w, w.Cohort))
			continue
		}
		keep := make(map[string]bool, len(keys))
		for _, k := range keys {
			keep[k] = true
		}
		kept := make(Cohort, 0, len(keys))
		for _, e := range w.Cohort {
			if keep[e.Key] {
				kept = append(kept, e)
			}
		}
		weeks = append(weeks, copyWeek(w, kept))
	}

	return Report{
		DraftID:         draft.ID,
		Anchor:          draft.Anchor,
		ReferenceSunday: draft.ReferenceSunday,
		WindowDays:      draft.WindowDays,
		Weeks:           weeks,
		Stats:           draft.Stats,
	}, nil
}

// SelectAll returns selections that keep every raw cohort unchanged.
func SelectAll(draft Draft) Selections {
	sel := make(Selections, len(draft.Weeks))
	for _, w := range draft.Weeks {
		sel[w.Label] = w.Cohort.Keys()
	}
	return sel
}

// Exclude converts "actually present" keys per week into selections of the remaining keys.
// Unknown weeks or keys are passed through so Finalize reports them.
func Exclude(draft Draft, present map[string][]string) Selections {
	sel := make(Selections, len(present))
	for label, drop := range present {
		w, ok := draft.Week(label)
		if !ok {
			sel[label] = nil
			continue
		}
		skip := make(map[string]bool, len(drop))
		for _, k := range drop {
			skip[k] = true
		}
		keep := make([]string, 0, len(w.Cohort))
		for _, e := range w.Cohort {
			if !skip[e.Key] {
				keep = append(keep, e.Key)
			}
		}
		for _, k := range drop {
			if !w.Cohort.Contains(k) {
				keep = append(keep, k)
			}
		}
		sel[label] = keep
	}
	return sel
}

func copyWeek(w Week, cohort Cohort) Week {
	out := w
	out.Dates = append([]time.Time(nil), w.Dates...)
	out.Cohort = append(Cohort{}, cohort...)
	out.Removed = len(w.Cohort) - len(cohort)
	return out
}

func findWeek(weeks []Week, label string) (Week, bool) {
	for _, w := range weeks {
		if w.Label == label {
			return w, true
		}
	}
	return Week{}, false
}

func labels(weeks []Week) []string {
	out := make([]string, len(weeks))
	for i, w := range weeks {
		out[i] = w.Label
	}
	return out
}
