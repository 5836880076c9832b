package roster

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ErrEmptyDate is returned by ParseDate for a blank cell.
var ErrEmptyDate = errors.New("empty date")

// dateLayouts are tried in order. US month-first forms win over day-first ones
// because the roster exports this system reads are US-formatted.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"1/2/2006",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1-2-2006",
	"1-2-06",
	"2006/1/2",
	"1/2/06",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Mon, Jan 2, 2006",
}

// Excel serial numbers outside this range are not treated as dates (1954..2119).
const (
	minExcelSerial = 20000
	maxExcelSerial = 80000
)

// ParseDate reads a last-attended cell into a calendar date at UTC midnight.
// Time of day, when present, is dropped.
// PRE: none
// POST: returns ErrEmptyDate for blank input, a descriptive error for unsupported formats
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrEmptyDate
	}
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		if serial < minExcelSerial || serial > maxExcelSerial {
			return time.Time{}, fmt.Errorf("number %s is not a spreadsheet date", value)
		}
		parsed, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, err
		}
		return DateOnly(parsed), nil
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return DateOnly(parsed), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date format: %s", value)
}

// DateOnly truncates to the calendar date in the value's own location and
// re-anchors it at UTC midnight, so dates compare with ==.
func DateOnly(value time.Time) time.Time {
	if value.IsZero() {
		return value
	}
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}
