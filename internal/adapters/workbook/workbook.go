// Package workbook writes finalized reports as .xlsx workbooks, one sheet per
// week, and reads them back.
package workbook

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"absentee/internal/domain/absentee"
)

const (
	// FileName is the download name offered to operators.
	FileName = "Absentee_Report.xlsx"
	// ContentType is the MIME type for .xlsx downloads.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	// IndexSheet maps sheet names back to full week labels.
	IndexSheet = "Index"
	// MaxSheetName is Excel's sheet name length limit.
	MaxSheetName = 31

	ColumnName = "Name"
	ColumnID   = "ID"
)

var indexHeader = []any{"Sheet", "Week", "Offset", "Window Start", "Window End", "Count"}

// Metadata rows under the index table.
const (
	metaAnchor    = "Anchor"
	metaReference = "Reference Sunday"
	metaFinalized = "Finalized At"
)

var invalidSheetChars = strings.NewReplacer(":", "", `\`, "", "/", "", "?", "", "*", "", "[", "", "]", "")

// SheetName makes a label safe for use as a sheet name: forbidden characters
// removed, surrounding apostrophes trimmed, cut to 31 characters.
func SheetName(label string) string {
	name := invalidSheetChars.Replace(label)
	name = strings.Trim(strings.TrimSpace(name), "'")
	if name == "" {
		name = "Week"
	}
	return truncate(name, MaxSheetName)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimRight(string(r[:n]), " ")
}

// sheetNamer hands out unique sheet names. Excel compares sheet names case-insensitively.
type sheetNamer struct {
	used map[string]bool
}

func newSheetNamer(reserved ...string) *sheetNamer {
	n := &sheetNamer{used: make(map[string]bool)}
	for _, r := range reserved {
		n.used[strings.ToLower(r)] = true
	}
	return n
}

func (n *sheetNamer) next(label string) string {
	base := SheetName(label)
	name := base
	for i := 2; n.used[strings.ToLower(name)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		name = truncate(base, MaxSheetName-len(suffix)) + suffix
	}
	n.used[strings.ToLower(name)] = true
	return name
}

// Build lays the report out as a workbook.
// PRE: report weeks are in offset order
// POST: one sheet per week in report order, followed by the Index sheet; empty weeks get a header-only sheet
func Build(report absentee.Report) (*excelize.File, error) {
	f := excelize.NewFile()
	defaultSheet := f.GetSheetName(0)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	namer := newSheetNamer(IndexSheet, defaultSheet)
	sheets := make([]string, len(report.Weeks))
	for i, w := range report.Weeks {
		sheets[i] = namer.next(w.Label)
		if _, err := f.NewSheet(sheets[i]); err != nil {
			return nil, fmt.Errorf("create sheet %q: %w", sheets[i], err)
		}
		if err := writeWeek(f, sheets[i], w, headerStyle); err != nil {
			return nil, err
		}
	}

	if _, err := f.NewSheet(IndexSheet); err != nil {
		return nil, fmt.Errorf("create index sheet: %w", err)
	}
	if err := writeIndex(f, report, sheets, headerStyle); err != nil {
		return nil, err
	}

	if err := f.DeleteSheet(defaultSheet); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}
	f.SetActiveSheet(0)
	return f, nil
}

// Write streams the report workbook to w.
func Write(w io.Writer, report absentee.Report) error {
	f, err := Build(report)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeWeek(f *excelize.File, sheet string, w absentee.Week, headerStyle int) error {
	withIDs := false
	for _, e := range w.Cohort {
		if e.PersonID != "" {
			withIDs = true
			break
		}
	}

	header := []any{ColumnName}
	if withIDs {
		header = append(header, ColumnID)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %q header: %w", sheet, err)
	}
	lastCol := "A1"
	if withIDs {
		lastCol = "B1"
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol, headerStyle); err != nil {
		return fmt.Errorf("style %q header: %w", sheet, err)
	}

	for i, e := range w.Cohort {
		row := []any{e.Name}
		if withIDs {
			row = append(row, e.PersonID)
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %q row %d: %w", sheet, i+2, err)
		}
	}
	return f.SetColWidth(sheet, "A", "B", 28)
}

func writeIndex(f *excelize.File, report absentee.Report, sheets []string, headerStyle int) error {
	if err := f.SetSheetRow(IndexSheet, "A1", &indexHeader); err != nil {
		return fmt.Errorf("write index header: %w", err)
	}
	if err := f.SetCellStyle(IndexSheet, "A1", "F1", headerStyle); err != nil {
		return fmt.Errorf("style index header: %w", err)
	}
	for i, w := range report.Weeks {
		row := []any{
			sheets[i],
			w.Label,
			w.Offset,
			w.Start.Format(absentee.DateLayout),
			w.End().Format(absentee.DateLayout),
			len(w.Cohort),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(IndexSheet, cell, &row); err != nil {
			return fmt.Errorf("write index row: %w", err)
		}
	}

	meta := [][]any{
		{metaAnchor, formatDate(report.Anchor)},
		{metaReference, formatDate(report.ReferenceSunday)},
	}
	if !report.FinalizedAt.IsZero() {
		meta = append(meta, []any{metaFinalized, report.FinalizedAt.UTC().Format("2006-01-02 15:04:05")})
	}
	// one blank row separates the table from the metadata
	start := len(report.Weeks) + 3
	for i, m := range meta {
		cell, _ := excelize.CoordinatesToCellName(1, start+i)
		if err := f.SetSheetRow(IndexSheet, cell, &m); err != nil {
			return fmt.Errorf("write index metadata: %w", err)
		}
	}
	return f.SetColWidth(IndexSheet, "A", "B", 40)
}
