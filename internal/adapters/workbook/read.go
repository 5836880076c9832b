package workbook

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"absentee/internal/domain/absentee"
)

// ErrNoWeeks is returned when a workbook has no week sheets at all.
var ErrNoWeeks = errors.New("workbook has no week sheets")

// Read restores a report from a workbook produced by Write. Workbooks without
// an Index sheet are accepted too; each sheet then becomes a week labelled by
// its sheet name.
// POST: weeks come back in sheet order with labels, names and IDs as written;
// last-attended dates are not stored and come back zero
func Read(r io.Reader) (absentee.Report, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return absentee.Report{}, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	var report absentee.Report
	if idx, _ := f.GetSheetIndex(IndexSheet); idx >= 0 {
		report, err = readIndexed(f)
	} else {
		report, err = readBare(f)
	}
	if err != nil {
		return absentee.Report{}, err
	}
	if len(report.Weeks) == 0 {
		return absentee.Report{}, ErrNoWeeks
	}
	return report, nil
}

func readIndexed(f *excelize.File) (absentee.Report, error) {
	rows, err := f.GetRows(IndexSheet)
	if err != nil {
		return absentee.Report{}, fmt.Errorf("read index: %w", err)
	}
	var report absentee.Report
	inMeta := false
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) == 0 || strings.TrimSpace(strings.Join(row, "")) == "" {
			inMeta = true
			continue
		}
		if inMeta {
			if err := readMeta(&report, row); err != nil {
				return absentee.Report{}, err
			}
			continue
		}
		w, sheet, err := parseIndexRow(row, i+1)
		if err != nil {
			return absentee.Report{}, err
		}
		w.Cohort, err = readCohort(f, sheet)
		if err != nil {
			return absentee.Report{}, err
		}
		report.Weeks = append(report.Weeks, w)
	}
	if len(report.Weeks) > 0 {
		report.WindowDays = len(report.Weeks[0].Dates)
	}
	return report, nil
}

func parseIndexRow(row []string, rowNum int) (absentee.Week, string, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	sheet, label := cell(0), cell(1)
	if sheet == "" || label == "" {
		return absentee.Week{}, "", fmt.Errorf("index row %d: sheet and week are required", rowNum)
	}
	offset, err := strconv.Atoi(cell(2))
	if err != nil {
		return absentee.Week{}, "", fmt.Errorf("index row %d: offset %q: %w", rowNum, cell(2), err)
	}
	start, err := time.Parse(absentee.DateLayout, cell(3))
	if err != nil {
		return absentee.Week{}, "", fmt.Errorf("index row %d: window start: %w", rowNum, err)
	}
	end, err := time.Parse(absentee.DateLayout, cell(4))
	if err != nil {
		return absentee.Week{}, "", fmt.Errorf("index row %d: window end: %w", rowNum, err)
	}
	if end.Before(start) {
		return absentee.Week{}, "", fmt.Errorf("index row %d: window ends before it starts", rowNum)
	}

	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return absentee.Week{Offset: offset, Label: label, Start: start, Dates: dates}, sheet, nil
}

func readMeta(report *absentee.Report, row []string) error {
	if len(row) < 2 {
		return nil
	}
	value := strings.TrimSpace(row[1])
	var err error
	switch strings.TrimSpace(row[0]) {
	case metaAnchor:
		report.Anchor, err = parseOptionalDate(value)
	case metaReference:
		report.ReferenceSunday, err = parseOptionalDate(value)
	case metaFinalized:
		if value != "" {
			report.FinalizedAt, err = time.Parse("2006-01-02 15:04:05", value)
		}
	}
	if err != nil {
		return fmt.Errorf("index metadata %q: %w", row[0], err)
	}
	return nil
}

func readBare(f *excelize.File) (absentee.Report, error) {
	var report absentee.Report
	for _, sheet := range f.GetSheetList() {
		cohort, err := readCohort(f, sheet)
		if err != nil {
			return absentee.Report{}, err
		}
		report.Weeks = append(report.Weeks, absentee.Week{Label: sheet, Cohort: cohort})
	}
	return report, nil
}

// readCohort reads a week sheet. The key is the ID when the row has one, else the name.
func readCohort(f *excelize.File, sheet string) (absentee.Cohort, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	cohort := absentee.Cohort{}
	if len(rows) == 0 {
		return cohort, nil
	}
	nameCol, idCol := -1, -1
	for i, h := range rows[0] {
		switch strings.TrimSpace(h) {
		case ColumnName:
			nameCol = i
		case ColumnID:
			idCol = i
		}
	}
	if nameCol < 0 {
		return nil, fmt.Errorf("sheet %q has no %s column", sheet, ColumnName)
	}
	for _, row := range rows[1:] {
		if nameCol >= len(row) || strings.TrimSpace(row[nameCol]) == "" {
			continue
		}
		e := absentee.Entry{Name: row[nameCol], Key: row[nameCol]}
		if idCol >= 0 && idCol < len(row) && row[idCol] != "" {
			e.PersonID = row[idCol]
			e.Key = row[idCol]
		}
		cohort = append(cohort, e)
	}
	return cohort, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(absentee.DateLayout)
}

func parseOptionalDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(absentee.DateLayout, value)
}
