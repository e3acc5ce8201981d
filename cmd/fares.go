package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/farelog/internal/cli"
	"github.com/theirongolddev/farelog/internal/expense"
	"github.com/theirongolddev/farelog/internal/fare"
)

var faresCmd = &cobra.Command{
	Use:   "fares [SOURCE DESTINATION]",
	Short: "List the fare table or look up one route",
	Args:  cobra.RangeArgs(0, 2),
	RunE:  runFares,
}

func init() {
	rootCmd.AddCommand(faresCmd)
}

func runFares(_ *cobra.Command, args []string) error {
	if len(args) == 1 {
		return &expense.ValidationError{Field: "destination"}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	table, err := fare.Load(cfg.General.FaresFile)
	if err != nil {
		return err
	}
	symbol := cfg.Report.CurrencySymbol

	if len(args) == 2 {
		price, ok := table.Lookup(args[0], args[1])
		if !ok {
			return &expense.RouteNotFoundError{Source: args[0], Destination: args[1]}
		}
		fmt.Printf("  %s  %s\n", cli.FormatRoute(args[0], args[1]), cli.FormatFare(price, symbol))
		return nil
	}

	entries := table.Entries()
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{e.Source, e.Destination, cli.FormatFare(e.Price, symbol)}
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Fare table  %s  (%d routes)", cfg.General.FaresFile, table.Len()),
		Headers: []string{"Source", "Destination", "Price"},
		Rows:    rows,
		Right:   []bool{false, false, true},
	}))
	info("  %d sources, %d destinations\n", len(table.Sources()), len(table.Destinations()))
	return nil
}
