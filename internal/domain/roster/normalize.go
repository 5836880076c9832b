package roster

import (
	"errors"
	"fmt"
	"strings"
)

// Normalize turns raw tabular rows into a Roster.
// PRE: header is the first source row; rows are the data rows that follow it
// POST: returns *SchemaError when required columns are missing or a row has no name,
//
//	*DateParseError when any last-attended value is unparseable; no partial roster is returned
//
// INVARIANT: fully blank rows are ignored; blank dates are kept as "never attended"
func Normalize(header []string, rows [][]string) (Roster, error) {
	return NormalizeNumbered(header, rows, nil)
}

// NormalizeNumbered is Normalize with the source line of each row, so errors and
// Person.Row point at the line in the uploaded file. A nil lines slice numbers
// rows from 2, directly under the header.
// PRE: lines is nil or has one entry per row
func NormalizeNumbered(header []string, rows [][]string, lines []int) (Roster, error) {
	if lines != nil && len(lines) != len(rows) {
		return Roster{}, fmt.Errorf("roster: %d line numbers for %d rows", len(lines), len(rows))
	}

	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		key := NormalizeHeader(h)
		if _, exists := colIdx[key]; !exists {
			colIdx[key] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := colIdx[NormalizeHeader(col)]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return Roster{}, &SchemaError{Missing: missing}
	}

	idIdx := -1
	for _, col := range idColumns {
		if i, ok := colIdx[NormalizeHeader(col)]; ok {
			idIdx = i
			break
		}
	}

	getCol := func(row []string, col string) string {
		i, ok := colIdx[NormalizeHeader(col)]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var (
		result     Roster
		nameErrors []RowError
		dateErrors []RowError
	)
	result.People = make([]Person, 0, len(rows))

	for i, row := range rows {
		rowNum := i + 2
		if lines != nil {
			rowNum = lines[i]
		}
		if isBlankRow(row) {
			continue
		}

		first := getCol(row, ColumnFirstName)
		last := getCol(row, ColumnLastName)
		if strings.TrimSpace(first) == "" && strings.TrimSpace(last) == "" {
			nameErrors = append(nameErrors, RowError{Row: rowNum, Message: "first and last name are both empty"})
			continue
		}

		p := Person{
			Row:       rowNum,
			FirstName: strings.TrimSpace(first),
			LastName:  strings.TrimSpace(last),
			FullName:  FullName(first, last),
		}
		if idIdx >= 0 && idIdx < len(row) {
			p.ID = strings.TrimSpace(row[idIdx])
			if p.ID != "" {
				result.HasIDs = true
			}
		}

		rawDate := getCol(row, ColumnLastAttended)
		parsed, err := ParseDate(rawDate)
		switch {
		case errors.Is(err, ErrEmptyDate):
			result.NeverAttended++
		case err != nil:
			dateErrors = append(dateErrors, RowError{Row: rowNum, Value: strings.TrimSpace(rawDate), Message: err.Error()})
			continue
		default:
			p.LastAttended = parsed
		}

		result.People = append(result.People, p)
	}

	if len(nameErrors) > 0 {
		return Roster{}, &SchemaError{Rows: nameErrors}
	}
	if len(dateErrors) > 0 {
		return Roster{}, &DateParseError{Rows: dateErrors}
	}
	return result, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
