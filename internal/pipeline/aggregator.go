// Package pipeline groups the expense history into per-employee, per-month
// summaries for the view command, the API and the workbook report.
package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/farelog/internal/model"
)

// MonthGroup is one employee's expenses for a stored month label.
type MonthGroup struct {
	Month    string          `json:"month"`
	Expenses []model.Expense `json:"expenses"`
	Total    decimal.Decimal `json:"total"`
}

// EmployeeSummary holds one employee's expenses grouped by month.
type EmployeeSummary struct {
	Employee string          `json:"employee"`
	Months   []MonthGroup    `json:"months"`
	Total    decimal.Decimal `json:"total"`
	Trips    int             `json:"trips"`
}

// AggregateEmployees partitions expenses by employee in first-seen order.
// Each employee's records are stable-sorted by date and then grouped by the
// stored Month value, in the order the months are first met after sorting.
// Grouping follows Month, not Date, so a record whose Month disagrees with
// its Date lands in the group its Month names.
func AggregateEmployees(expenses []model.Expense) []EmployeeSummary {
	var order []string
	byEmployee := make(map[string][]model.Expense)

	for _, e := range expenses {
		if _, ok := byEmployee[e.Employee]; !ok {
			order = append(order, e.Employee)
		}
		byEmployee[e.Employee] = append(byEmployee[e.Employee], e)
	}

	summaries := make([]EmployeeSummary, 0, len(order))
	for _, name := range order {
		recs := byEmployee[name]
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].Date.Before(recs[j].Date)
		})

		es := EmployeeSummary{Employee: name, Total: decimal.Zero}
		monthIdx := make(map[string]int)
		for _, e := range recs {
			i, ok := monthIdx[e.Month]
			if !ok {
				i = len(es.Months)
				monthIdx[e.Month] = i
				es.Months = append(es.Months, MonthGroup{Month: e.Month, Total: decimal.Zero})
			}
			mg := &es.Months[i]
			mg.Expenses = append(mg.Expenses, e)
			mg.Total = mg.Total.Add(e.Fare)

			es.Total = es.Total.Add(e.Fare)
			es.Trips++
		}
		summaries = append(summaries, es)
	}

	return summaries
}

// Total sums the fares of expenses.
func Total(expenses []model.Expense) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range expenses {
		sum = sum.Add(e.Fare)
	}
	return sum
}

// Employees returns distinct employee names in first-seen order.
func Employees(expenses []model.Expense) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, e := range expenses {
		if _, ok := seen[e.Employee]; ok {
			continue
		}
		seen[e.Employee] = struct{}{}
		names = append(names, e.Employee)
	}
	return names
}

// FilterByEmployee keeps expenses for one employee. The name is normalized
// the same way records are, so "ALICE" matches "Alice".
func FilterByEmployee(expenses []model.Expense, employee string) []model.Expense {
	if strings.TrimSpace(employee) == "" {
		return expenses
	}
	name := model.NormalizeEmployee(employee)

	var result []model.Expense
	for _, e := range expenses {
		if e.Employee == name {
			result = append(result, e)
		}
	}
	return result
}

// FilterByMonth keeps expenses whose stored month matches, ignoring case.
func FilterByMonth(expenses []model.Expense, month string) []model.Expense {
	if month == "" {
		return expenses
	}
	var result []model.Expense
	for _, e := range expenses {
		if strings.EqualFold(e.Month, month) {
			result = append(result, e)
		}
	}
	return result
}

// FilterByDate keeps expenses dated within [since, until]. A zero bound is open.
func FilterByDate(expenses []model.Expense, since, until time.Time) []model.Expense {
	if since.IsZero() && until.IsZero() {
		return expenses
	}

	var result []model.Expense
	for _, e := range expenses {
		if !since.IsZero() && e.Date.Before(since) {
			continue
		}
		if !until.IsZero() && e.Date.After(until) {
			continue
		}
		result = append(result, e)
	}
	return result
}
