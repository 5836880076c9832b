package projections

import (
	"fmt"
	"strings"
	"time"

	"absentee/internal/domain/absentee"
)

// SelectionSeparator joins a week label and an entry key in one form value.
// Labels never contain it, so the first occurrence splits the pair.
const SelectionSeparator = "|"

// EntryView is one person in a week as shown on a page.
type EntryView struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	PersonID     string `json:"person_id,omitempty"`
	LastAttended string `json:"last_attended"`
	// Value is the checkbox value submitted when the entry is kept.
	Value string `json:"-"`
}

// WeekView is one week of a draft or report as shown on a page.
type WeekView struct {
	Label   string      `json:"label"`
	Offset  int         `json:"offset"`
	Start   string      `json:"start"`
	End     string      `json:"end"`
	Dates   []string    `json:"dates"`
	Count   int         `json:"count"`
	Removed int         `json:"removed"`
	Entries []EntryView `json:"entries"`
}

// SelectionValue encodes a label and key as a form value.
func SelectionValue(label, key string) string {
	return label + SelectionSeparator + key
}

// ParseSelectionValue splits a form value built by SelectionValue.
func ParseSelectionValue(value string) (label, key string, ok bool) {
	label, key, ok = strings.Cut(value, SelectionSeparator)
	if !ok || label == "" || key == "" {
		return "", "", false
	}
	return label, key, true
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(absentee.DateLayout)
}

func weekViews(weeks []absentee.Week) []WeekView {
	views := make([]WeekView, len(weeks))
	for i, w := range weeks {
		dates := make([]string, len(w.Dates))
		for j, d := range w.Dates {
			dates[j] = formatDate(d)
		}
		entries := make([]EntryView, len(w.Cohort))
		for j, e := range w.Cohort {
			entries[j] = EntryView{
				Key:          e.Key,
				Name:         e.Name,
				PersonID:     e.PersonID,
				LastAttended: formatDate(e.LastAttended),
				Value:        SelectionValue(w.Label, e.Key),
			}
		}
		views[i] = WeekView{
			Label:   w.Label,
			Offset:  w.Offset,
			Start:   formatDate(w.Start),
			End:     formatDate(w.End()),
			Dates:   dates,
			Count:   len(w.Cohort),
			Removed: w.Removed,
			Entries: entries,
		}
	}
	return views
}

// summaryMarkdown describes a run in a few lines of markdown for the page header.
func summaryMarkdown(anchor, ref time.Time, weeks []absentee.Week, stats absentee.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Reference Sunday:** %s (anchor %s)\n\n", formatDate(ref), formatDate(anchor))

	total := 0
	for _, w := range weeks {
		total += len(w.Cohort)
		noun := "people"
		if len(w.Cohort) == 1 {
			noun = "person"
		}
		fmt.Fprintf(&b, "- **%s**: last attended %s to %s, %d %s", w.Label, formatDate(w.Start), formatDate(w.End()), len(w.Cohort), noun)
		if w.Removed > 0 {
			fmt.Fprintf(&b, " (%d marked present)", w.Removed)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n%d of %d people fall in a window.", total, stats.People)
	if stats.NeverAttended > 0 {
		fmt.Fprintf(&b, " %d have no last attended date and are not listed.", stats.NeverAttended)
	}
	if !stats.HasIDs {
		b.WriteString(" The roster has no ID column, so people are matched by name.")
	}
	b.WriteString("\n")
	return b.String()
}
