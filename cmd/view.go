package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/farelog/internal/cli"
	"github.com/theirongolddev/farelog/internal/expense"
	"github.com/theirongolddev/farelog/internal/model"
	"github.com/theirongolddev/farelog/internal/pipeline"
)

var (
	flagViewEmployee string
	flagViewMonth    string
	flagViewSince    string
	flagViewUntil    string
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Show the expense history per employee with monthly totals",
	RunE:  runView,
}

func init() {
	viewCmd.Flags().StringVarP(&flagViewEmployee, "employee", "e", "", "Only this employee")
	viewCmd.Flags().StringVarP(&flagViewMonth, "month", "m", "", "Only this month (e.g. March)")
	viewCmd.Flags().StringVar(&flagViewSince, "since", "", "Only trips on or after this date (YYYY-MM-DD)")
	viewCmd.Flags().StringVar(&flagViewUntil, "until", "", "Only trips on or before this date (YYYY-MM-DD)")
	rootCmd.AddCommand(viewCmd)
}

func runView(_ *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	history := s.svc.History()
	if len(history) == 0 {
		fmt.Println()
		fmt.Println("  " + expense.MsgNoHistory)
		return nil
	}

	filtered, err := filterHistory(history, flagViewEmployee, flagViewMonth, flagViewSince, flagViewUntil)
	if err != nil {
		return err
	}
	if len(filtered) == 0 {
		fmt.Println()
		fmt.Println("  No expenses match the selected filters.")
		return nil
	}

	symbol := s.cfg.Report.CurrencySymbol
	summaries := pipeline.AggregateEmployees(filtered)

	fmt.Println()
	fmt.Println(cli.RenderTitle("TRAVEL EXPENSES"))
	fmt.Println()

	for _, es := range summaries {
		fmt.Print(renderEmployeeDetails(es, symbol))
		fmt.Println()
		fmt.Print(renderMonthlyTotals(es, symbol))
		fmt.Println(cli.RenderTotal("Total for "+es.Employee+":", cli.FormatFare(es.Total, symbol)))
		fmt.Println()
	}

	if len(summaries) > 1 {
		fmt.Println(cli.RenderTotal("Grand Total:", cli.FormatFare(pipeline.Total(filtered), symbol)))
		fmt.Println()
	}
	return nil
}

// filterHistory applies the view filters. Empty filters match everything.
func filterHistory(history []model.Expense, employee, month, since, until string) ([]model.Expense, error) {
	from, err := parseBound("since", since)
	if err != nil {
		return nil, err
	}
	to, err := parseBound("until", until)
	if err != nil {
		return nil, err
	}

	filtered := pipeline.FilterByEmployee(history, employee)
	filtered = pipeline.FilterByMonth(filtered, month)
	return pipeline.FilterByDate(filtered, from, to), nil
}

func parseBound(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := model.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s date %q (want YYYY-MM-DD)", flag, value)
	}
	return t, nil
}

func renderEmployeeDetails(es pipeline.EmployeeSummary, symbol string) string {
	var rows [][]string
	for i, mg := range es.Months {
		if i > 0 {
			rows = append(rows, []string{"---"})
		}
		for _, e := range mg.Expenses {
			rows = append(rows, []string{
				e.Employee,
				e.Source,
				e.Destination,
				cli.FormatFare(e.Fare, symbol),
				e.DateString(),
				e.Month,
			})
		}
	}

	return cli.RenderTable(cli.Table{
		Title:   "Expense Details for " + es.Employee,
		Headers: model.Columns,
		Rows:    rows,
		Right:   []bool{false, false, false, true, false, false},
	})
}

func renderMonthlyTotals(es pipeline.EmployeeSummary, symbol string) string {
	rows := make([][]string, 0, len(es.Months))
	for _, mg := range es.Months {
		rows = append(rows, []string{
			mg.Month,
			cli.FormatNumber(int64(len(mg.Expenses))),
			cli.FormatFare(mg.Total, symbol),
		})
	}

	return cli.RenderTable(cli.Table{
		Title:   "Monthly Totals",
		Headers: []string{"Month", "Trips", "Total"},
		Rows:    rows,
	})
}
