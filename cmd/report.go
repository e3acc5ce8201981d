package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/farelog/internal/expense"
	"github.com/theirongolddev/farelog/internal/report"
)

var flagReportOut string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export the expense history as an xlsx workbook",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&flagReportOut, "out", "o", "", "Output path (default report.file_name)")
	rootCmd.AddCommand(reportCmd)
}

func runReport(_ *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	history := s.svc.History()
	if len(history) == 0 {
		fmt.Println("  " + expense.MsgNoReport)
		return nil
	}

	data, err := report.Render(history, report.Options{CurrencySymbol: s.cfg.Report.CurrencySymbol})
	if err != nil {
		return err
	}

	out := flagReportOut
	if out == "" {
		out = s.cfg.Report.FileName
	}
	if out == "" {
		out = report.FileName
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil { //nolint:gosec // report is meant to be shared
		return fmt.Errorf("writing report: %w", err)
	}

	info("  Wrote %s (%d records)\n", out, len(history))
	return nil
}
