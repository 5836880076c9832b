package absentee

import (
	"fmt"
	"sort"
	"strings"
)

// SettingsError is returned for invalid offsets or window lengths.
type SettingsError struct {
	Message string
}

// Error implements the error interface.
func (e *SettingsError) Error() string {
	return "invalid report settings: " + e.Message
}

// CurationError is returned when operator selections do not fit the draft they
// claim to edit, which points at a stale review page or a corrupted edit list.
type CurationError struct {
	UnknownWeeks []string
	// UnknownKeys maps a week label to keys that are not in its raw cohort.
	UnknownKeys map[string][]string
	// Malformed holds submitted selection values that name no week and key.
	Malformed []string
}

func (e *CurationError) add(label, key string) {
	if e.UnknownKeys == nil {
		e.UnknownKeys = make(map[string][]string)
	}
	e.UnknownKeys[label] = append(e.UnknownKeys[label], key)
}

// HasProblems reports whether any unknown week or key was recorded.
func (e *CurationError) HasProblems() bool {
	return len(e.UnknownWeeks) > 0 || len(e.UnknownKeys) > 0 || len(e.Malformed) > 0
}

// Error implements the error interface.
func (e *CurationError) Error() string {
	var parts []string
	if len(e.Malformed) > 0 {
		parts = append(parts, fmt.Sprintf("malformed selection(s): %q", e.Malformed))
	}
	if len(e.UnknownWeeks) > 0 {
		parts = append(parts, fmt.Sprintf("unknown week(s): %s", strings.Join(e.UnknownWeeks, ", ")))
	}
	labels := make([]string, 0, len(e.UnknownKeys))
	for label := range e.UnknownKeys {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		parts = append(parts, fmt.Sprintf("not in %q: %s", label, strings.Join(e.UnknownKeys[label], ", ")))
	}
	return "selection does not match the draft: " + strings.Join(parts, "; ")
}
