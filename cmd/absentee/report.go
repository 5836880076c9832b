package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"absentee/internal/adapters/workbook"
	reportStore "absentee/internal/adapters/storage/report"
	"absentee/internal/application/orchestrators"
	"absentee/internal/domain/absentee"
)

//nolint:gochecknoglobals // Cobra flags are typically global
var (
	reportRoster   string
	reportAnchor   string
	reportCuration string
	reportOut      string
	reportPersist  bool
)

//nolint:gochecknoglobals // Cobra commands are typically global
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build a report from a roster file without the web service",
	Long: `Reads a roster, computes the weekly cohorts for the anchor date, applies an
optional curation file and writes the workbook.

A curation file lists, per week label, either the keys to keep or the keys
of people who were actually present. Weeks it does not mention keep their
whole cohort.

  keep:
    "2 weeks ago (2024-02-25 - 2024-02-27)":
      - Ana Silva
  exclude:
    "3 weeks ago (2024-02-18 - 2024-02-20)":
      - Sam Ortiz`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportRoster, "roster", "", "roster file (.csv, .xlsx or .xls)")
	reportCmd.Flags().StringVar(&reportAnchor, "anchor", "", "anchor date YYYY-MM-DD (default today)")
	reportCmd.Flags().StringVar(&reportCuration, "curation", "", "curation YAML file")
	reportCmd.Flags().StringVar(&reportOut, "out", workbook.FileName, "output workbook path")
	reportCmd.Flags().BoolVar(&reportPersist, "store", false, "also replace the stored latest report")
	_ = reportCmd.MarkFlagRequired("roster")
}

func runReport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	anchor := time.Now()
	if reportAnchor != "" {
		anchor, err = time.Parse(absentee.DateLayout, reportAnchor)
		if err != nil {
			return fmt.Errorf("--anchor must be YYYY-MM-DD: %w", err)
		}
	}

	var store orchestrators.ReportReplacer
	if reportPersist {
		db, err := openDatabase(ctx, cfg, nil)
		if err != nil {
			return err
		}
		defer db.Close()
		store = reportStore.NewSQLStore(db, db.Dialect())
	}

	report, err := buildReport(ctx, reportRoster, anchor, cfg.Report.Settings(), reportCuration, store)
	if err != nil {
		return err
	}

	if err := writeWorkbook(reportOut, report); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d weeks, %d people\n", reportOut, len(report.Weeks), report.Total())
	return nil
}

// buildReport runs the load, compute and finalize steps for one roster file.
// store may be nil, in which case nothing is persisted.
func buildReport(ctx context.Context, rosterPath string, anchor time.Time, settings absentee.Settings, curationPath string, store orchestrators.ReportReplacer) (absentee.Report, error) {
	f, err := os.Open(rosterPath) //nolint:gosec // operator-supplied path
	if err != nil {
		return absentee.Report{}, err
	}
	defer f.Close()

	ros, err := orchestrators.ExecuteLoadRoster(ctx, orchestrators.LoadRosterInput{
		Reader:   f,
		Filename: filepath.Base(rosterPath),
	})
	if err != nil {
		return absentee.Report{}, err
	}

	newID := func() string { return uuid.New().String() }
	draft, err := orchestrators.ExecuteComputeDraft(ctx, orchestrators.ComputeDraftInput{
		Roster:   ros,
		Anchor:   anchor,
		Settings: settings,
	}, orchestrators.ComputeDraftDeps{GenerateID: newID, Now: time.Now})
	if err != nil {
		return absentee.Report{}, err
	}

	var selections absentee.Selections
	if curationPath != "" {
		selections, err = LoadCuration(curationPath, draft)
		if err != nil {
			return absentee.Report{}, err
		}
	}

	by := os.Getenv("USER")
	if by == "" {
		by = "cli"
	}
	return orchestrators.ExecuteFinalizeReport(ctx, orchestrators.FinalizeReportInput{
		Draft:       draft,
		Selections:  selections,
		FinalizedBy: by,
		Source:      "cli",
	}, orchestrators.FinalizeReportDeps{
		ReportStore: store,
		GenerateID:  newID,
		Now:         time.Now,
	})
}

func writeWorkbook(path string, report absentee.Report) error {
	out, err := os.Create(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return err
	}
	if err := workbook.Write(out, report); err != nil {
		_ = out.Close()
		return fmt.Errorf("write workbook: %w", err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	slog.Info("workbook_written", "path", path, "weeks", len(report.Weeks))
	return nil
}
