package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"absentee/internal/domain/absentee"
)

// curationFile is the YAML shape read by --curation.
type curationFile struct {
	// Keep lists the keys confirmed absent for a week.
	Keep map[string][]string `yaml:"keep"`
	// Exclude lists the keys of people who were actually present.
	Exclude map[string][]string `yaml:"exclude"`
}

// LoadCuration reads a curation file and turns it into selections for draft.
// Unknown weeks or keys are left in place so Finalize reports them together.
func LoadCuration(path string, draft absentee.Draft) (absentee.Selections, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, err
	}
	return ParseCuration(raw, draft)
}

// ParseCuration decodes curation YAML. A week may appear under keep or exclude, not both.
func ParseCuration(raw []byte, draft absentee.Draft) (absentee.Selections, error) {
	var file curationFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse curation: %w", err)
	}

	var both []string
	for label := range file.Exclude {
		if _, ok := file.Keep[label]; ok {
			both = append(both, label)
		}
	}
	if len(both) > 0 {
		sort.Strings(both)
		return nil, fmt.Errorf("curation lists %q under both keep and exclude", both)
	}

	sel := absentee.Exclude(draft, file.Exclude)
	for label, keys := range file.Keep {
		sel[label] = append([]string{}, keys...)
	}
	return sel, nil
}
