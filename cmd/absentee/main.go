// Command absentee builds weekly absentee reports from a member roster, either
// through the operator web service or as a one-shot batch run.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

//nolint:gochecknoglobals // Global vars needed for cobra CLI
var cfgFile string

//nolint:gochecknoglobals // Cobra commands are typically global
var rootCmd = &cobra.Command{
	Use:     "absentee",
	Short:   "Weekly absentee reports from a member roster",
	Version: version,
	Long: `absentee buckets members by the week they last attended, counted back
from the Sunday on or before an anchor date, lets an operator confirm who was
really absent, and exports the result as Absentee_Report.xlsx.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./absentee.yaml)")
	rootCmd.AddCommand(serveCmd, reportCmd, operatorCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
