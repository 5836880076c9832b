package workbook

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"absentee/internal/domain/absentee"
	"absentee/internal/domain/roster"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleReport(t *testing.T, people ...roster.Person) absentee.Report {
	t.Helper()
	draft, err := absentee.ComputeDraft(roster.Roster{People: people}, day(2024, 3, 11), absentee.DefaultSettings())
	require.NoError(t, err)
	report, err := absentee.Finalize(draft, nil)
	require.NoError(t, err)
	report.FinalizedAt = time.Date(2024, 3, 11, 9, 30, 0, 0, time.UTC)
	return report
}

func person(first, last, id string, attended time.Time) roster.Person {
	return roster.Person{FirstName: first, LastName: last, FullName: roster.FullName(first, last), ID: id, LastAttended: attended}
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"2 weeks ago (2024-02-25 - 2024-02-27)", "2 weeks ago (2024-02-25 - 2024-"},
		{"a/b\\c?d*e[f]g:h", "abcdefgh"},
		{"'quoted'", "quoted"},
		{"[]", "Week"},
		{"short", "short"},
	}
	for _, tt := range tests {
		got := SheetName(tt.label)
		assert.Equal(t, tt.want, got, tt.label)
		assert.LessOrEqual(t, len([]rune(got)), MaxSheetName)
	}
}

func TestSheetNamer_DeduplicatesAfterTruncation(t *testing.T) {
	n := newSheetNamer(IndexSheet)
	long := strings.Repeat("x", 40)
	first := n.next(long + "a")
	second := n.next(long + "b")
	third := n.next("index")

	assert.Equal(t, strings.Repeat("x", 31), first)
	assert.Equal(t, strings.Repeat("x", 27)+" (2)", second)
	assert.Equal(t, "index (2)", third)
	assert.Len(t, second, MaxSheetName)
}

func TestBuild_SheetLayout(t *testing.T) {
	report := sampleReport(t,
		person("Jordan", "Lee", "", day(2024, 2, 26)),
		person("Ana", "Silva", "", day(2024, 2, 25)),
	)
	f, err := Build(report)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Len(t, sheets, 8)
	assert.Equal(t, "2 weeks ago (2024-02-25 - 2024-", sheets[0])
	assert.Equal(t, IndexSheet, sheets[7])

	rows, err := f.GetRows(sheets[0])
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Name"}, {"Ana Silva"}, {"Jordan Lee"}}, rows)

	empty, err := f.GetRows(sheets[1])
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Name"}}, empty)
}

func TestBuild_IDColumnWhenPresent(t *testing.T) {
	report := sampleReport(t, person("Jordan", "Lee", "p-9", day(2024, 2, 26)))
	f, err := Build(report)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetList()[0])
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Name", "ID"}, {"Jordan Lee", "p-9"}}, rows)
}

func TestRoundTrip(t *testing.T) {
	report := sampleReport(t,
		person("Jordan", "Lee", "", day(2024, 2, 26)),
		person("Jordan", "Lee", "", day(2024, 2, 27)),
		person("Ana", "Silva", "", day(2024, 2, 25)),
		person("Sam", "Ortiz", "", day(2024, 1, 15)),
	)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, report))

	got, err := Read(&buf)
	require.NoError(t, err)

	assert.Equal(t, report.Labels(), got.Labels())
	assert.True(t, got.Anchor.Equal(report.Anchor))
	assert.True(t, got.ReferenceSunday.Equal(report.ReferenceSunday))
	assert.True(t, got.FinalizedAt.Equal(report.FinalizedAt))
	assert.Equal(t, report.WindowDays, got.WindowDays)
	for i, w := range report.Weeks {
		assert.Equal(t, w.Offset, got.Weeks[i].Offset)
		assert.Equal(t, w.Dates, got.Weeks[i].Dates)
		assert.Equal(t, w.Cohort.Names(), got.Weeks[i].Cohort.Names(), w.Label)
		assert.Equal(t, w.Cohort.Keys(), got.Weeks[i].Cohort.Keys(), w.Label)
	}
	// "Jordan Lee" appears once
	assert.Equal(t, []string{"Ana Silva", "Jordan Lee"}, got.Weeks[0].Cohort.Names())
}

func TestRead_WithoutIndex(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Name"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Jordan Lee"}))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	got, err := Read(&buf)
	require.NoError(t, err)
	require.Len(t, got.Weeks, 1)
	assert.Equal(t, "Sheet1", got.Weeks[0].Label)
	assert.Equal(t, []string{"Jordan Lee"}, got.Weeks[0].Cohort.Names())
}

func TestRead_RejectsSheetWithoutNameColumn(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Person"}))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	_, err := Read(&buf)
	assert.ErrorContains(t, err, "no Name column")
}
