package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/farelog/internal/cli"
	"github.com/theirongolddev/farelog/internal/tui"
)

var (
	flagAddEmployee string
	flagAddFrom     string
	flagAddTo       string
	flagAddDate     string
	flagAddNoInput  bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a trip for an employee",
	Long: "Look up the fare for a route and append the trip to the expense history.\n" +
		"Missing fields are asked for interactively when running in a terminal.",
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&flagAddEmployee, "employee", "e", "", "Employee name")
	addCmd.Flags().StringVar(&flagAddFrom, "from", "", "Source station")
	addCmd.Flags().StringVar(&flagAddTo, "to", "", "Destination station")
	addCmd.Flags().StringVar(&flagAddDate, "date", "", "Travel date YYYY-MM-DD (default today)")
	addCmd.Flags().BoolVar(&flagAddNoInput, "no-input", false, "Never prompt; fail on missing fields")
	rootCmd.AddCommand(addCmd)
}

func runAdd(_ *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	vals := tui.NewAddValues(time.Now())
	vals.Employee = flagAddEmployee
	vals.Source = flagAddFrom
	vals.Destination = flagAddTo
	if flagAddDate != "" {
		vals.Date = flagAddDate
	}

	if missingDetails(vals) && canPrompt() {
		form := tui.NewAddForm(s.fares, vals)
		if err := form.Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				info("  Cancelled.\n")
				return nil
			}
			return fmt.Errorf("add form: %w", err)
		}
	}

	rec, err := vals.Submit(s.svc)
	if err != nil {
		return err
	}

	info("  Added %s  %s  %s on %s (%s)\n",
		rec.Employee,
		cli.FormatRoute(rec.Source, rec.Destination),
		cli.FormatFare(rec.Fare, s.cfg.Report.CurrencySymbol),
		rec.DateString(),
		rec.Month)
	return nil
}

func missingDetails(v *tui.AddValues) bool {
	return strings.TrimSpace(v.Employee) == "" ||
		strings.TrimSpace(v.Source) == "" ||
		strings.TrimSpace(v.Destination) == ""
}

func canPrompt() bool {
	if flagAddNoInput {
		return false
	}
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
