// Package rostersource reads roster uploads (.csv, .xlsx, .xls) into a header
// row plus data rows. It does no interpretation of the cells; that is the
// roster package's job.
package rostersource

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Format identifies a supported roster file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

// MaxRows bounds the number of source rows, header included, read from any format.
const MaxRows = 100000

var (
	// ErrEmpty is returned when the file has no header row.
	ErrEmpty = errors.New("roster file is empty")
	// ErrUnsupportedFormat is returned for extensions other than csv, xlsx and xls.
	ErrUnsupportedFormat = errors.New("unsupported roster format: upload a .csv, .xlsx or .xls file")
	// ErrUnreadable wraps parser failures on a file of a supported type.
	ErrUnreadable = errors.New("roster file could not be read")
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// Table is the raw content of the first sheet.
type Table struct {
	Format Format
	Header []string
	Rows   [][]string
	// HeaderRow is the 1-based source line of Header.
	HeaderRow int
	// RowNumbers holds the 1-based source line of each entry in Rows.
	RowNumbers []int
}

// DetectFormat picks a format from the file extension, falling back to the
// leading bytes when the name carries no extension.
func DetectFormat(filename string, head []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	case "":
		switch {
		case bytes.HasPrefix(head, zipMagic):
			return FormatXLSX, nil
		case bytes.HasPrefix(head, oleMagic):
			return FormatXLS, nil
		default:
			return FormatCSV, nil
		}
	default:
		return "", ErrUnsupportedFormat
	}
}

// Read loads the first sheet of a roster file.
// PRE: filename is the client-supplied name, used only for format detection
// POST: Header is the first non-empty row; Rows are everything after it;
// more than MaxRows source rows fail with ErrUnreadable instead of being cut short
func Read(r io.Reader, filename string) (Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Table{}, fmt.Errorf("read roster: %w", err)
	}
	format, err := DetectFormat(filename, data)
	if err != nil {
		return Table{}, err
	}

	var (
		rows  [][]string
		lines []int
	)
	switch format {
	case FormatCSV:
		rows, lines, err = readCSV(data)
	case FormatXLSX:
		rows, err = readXLSX(data)
	case FormatXLS:
		rows, err = readXLS(data)
	}
	if err == nil {
		err = checkRowCount(len(rows))
	}
	if err != nil {
		return Table{}, fmt.Errorf("%w as %s: %v", ErrUnreadable, format, err)
	}
	if lines == nil {
		lines = sheetLines(len(rows))
	}

	for len(rows) > 0 && blank(rows[0]) {
		rows, lines = rows[1:], lines[1:]
	}
	if len(rows) == 0 {
		return Table{}, ErrEmpty
	}
	return Table{
		Format:     format,
		Header:     rows[0],
		Rows:       rows[1:],
		HeaderRow:  lines[0],
		RowNumbers: lines[1:],
	}, nil
}

func checkRowCount(n int) error {
	if n > MaxRows {
		return fmt.Errorf("roster exceeds %d rows", MaxRows)
	}
	return nil
}

// sheetLines numbers spreadsheet rows, where row i is line i+1.
func sheetLines(n int) []int {
	lines := make([]int, n)
	for i := range lines {
		lines[i] = i + 1
	}
	return lines
}

// readCSV returns each record with the line it starts on. Empty lines are
// skipped by encoding/csv, so the line numbers are not contiguous.
func readCSV(data []byte) ([][]string, []int, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var (
		rows  [][]string
		lines []int
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, lines, nil
		}
		if err != nil {
			return nil, nil, err
		}
		if len(rows) == MaxRows {
			return nil, nil, checkRowCount(MaxRows + 1)
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, rec)
		lines = append(lines, line)
	}
}

// readXLSX returns raw cell values so date cells come back as serial numbers
// rather than whatever display format the workbook happens to use.
func readXLSX(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no worksheet found")
	}
	return file.GetRows(sheetName, excelize.Options{RawCellValue: true})
}

// readXLS converts panics from the legacy parser into errors; it panics on
// some truncated files instead of reporting them.
func readXLS(data []byte) (rows [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("corrupt workbook: %v", r)
		}
	}()
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	sheet := workbook.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("no worksheet found")
	}
	// ReadAllCells would concatenate every sheet; only the first one is the roster.
	last := int(sheet.MaxRow)
	if err := checkRowCount(last + 1); err != nil {
		return nil, err
	}
	rows = make([][]string, 0, last+1)
	for i := 0; i <= last; i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for j := 0; j < row.LastCol(); j++ {
			cells = append(cells, row.Col(j))
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
