package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"absentee/internal/adapters/rostersource"
	"absentee/internal/domain/roster"
)

var testTime = time.Date(2024, 3, 11, 9, 30, 0, 0, time.UTC)

func testNow() time.Time { return testTime }

func testID() string { return "test-id-001" }

// TestExecuteLoadRoster_CSV tests a well-formed CSV upload.
func TestExecuteLoadRoster_CSV(t *testing.T) {
	body := "First Name,Last Name,Last Attended Date\n" +
		"Jordan,Lee,2024-02-26\n" +
		"Ana,Silva,\n" +
		",,\n"
	r, err := ExecuteLoadRoster(context.Background(), LoadRosterInput{
		Reader:   strings.NewReader(body),
		Filename: "roster.csv",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Len() != 2 {
		t.Errorf("expected 2 people, got %d", r.Len())
	}
	if r.NeverAttended != 1 {
		t.Errorf("expected NeverAttended=1, got %d", r.NeverAttended)
	}
	if r.HasIDs {
		t.Error("expected HasIDs=false")
	}
}

// TestExecuteLoadRoster_MissingColumn tests that a schema problem rejects the file.
func TestExecuteLoadRoster_MissingColumn(t *testing.T) {
	_, err := ExecuteLoadRoster(context.Background(), LoadRosterInput{
		Reader:   strings.NewReader("First Name,Last Name\nJordan,Lee\n"),
		Filename: "roster.csv",
	})
	var schemaErr *roster.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if !IsRosterRejection(err) {
		t.Error("expected IsRosterRejection=true")
	}
}

// TestExecuteLoadRoster_BadDate tests that one bad date rejects the whole run.
func TestExecuteLoadRoster_BadDate(t *testing.T) {
	body := "First Name,Last Name,Last Attended Date\n" +
		"Jordan,Lee,2024-02-26\n" +
		"Ana,Silva,sometime\n"
	_, err := ExecuteLoadRoster(context.Background(), LoadRosterInput{
		Reader:   strings.NewReader(body),
		Filename: "roster.csv",
	})
	var dateErr *roster.DateParseError
	if !errors.As(err, &dateErr) {
		t.Fatalf("expected DateParseError, got %v", err)
	}
	if len(dateErr.Rows) != 1 || dateErr.Rows[0].Row != 3 {
		t.Errorf("expected row 3 reported, got %+v", dateErr.Rows)
	}
}

// TestExecuteLoadRoster_UnsupportedFormat tests the extension check.
func TestExecuteLoadRoster_UnsupportedFormat(t *testing.T) {
	_, err := ExecuteLoadRoster(context.Background(), LoadRosterInput{
		Reader:   strings.NewReader("hello"),
		Filename: "roster.pdf",
	})
	if !errors.Is(err, rostersource.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if !IsRosterRejection(err) {
		t.Error("expected IsRosterRejection=true")
	}
}

// TestIsRosterRejection_ServerFault tests that unrelated errors are not rejections.
func TestIsRosterRejection_ServerFault(t *testing.T) {
	if IsRosterRejection(errors.New("disk on fire")) {
		t.Error("expected IsRosterRejection=false")
	}
}

// TestExecuteLoadRoster_ErrorRowsMatchFileLines tests leading blank lines do not shift reported rows.
func TestExecuteLoadRoster_ErrorRowsMatchFileLines(t *testing.T) {
	body := "\n\nFirst Name,Last Name,Last Attended Date\n" +
		"Jordan,Lee,someday\n"
	_, err := ExecuteLoadRoster(context.Background(), LoadRosterInput{
		Reader:   strings.NewReader(body),
		Filename: "roster.csv",
	})
	var dateErr *roster.DateParseError
	if !errors.As(err, &dateErr) {
		t.Fatalf("expected DateParseError, got %v", err)
	}
	if dateErr.Rows[0].Row != 4 {
		t.Errorf("expected row 4, got %d", dateErr.Rows[0].Row)
	}
}
