package tui

import (
	"errors"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/farelog/internal/expense"
	"github.com/theirongolddev/farelog/internal/fare"
	"github.com/theirongolddev/farelog/internal/model"
)

// AddValues backs the add-expense form.
type AddValues struct {
	Employee    string
	Source      string
	Destination string
	Date        string
}

// NewAddValues returns form values dated today.
func NewAddValues(now time.Time) *AddValues {
	return &AddValues{Date: now.Format(model.DateLayout)}
}

// NewAddForm builds the add-expense form. Station choices come from the
// fare table in first-seen order.
func NewAddForm(fares *fare.Table, v *AddValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Employee").
				Value(&v.Employee).
				Validate(requireDetail),
			huh.NewSelect[string]().
				Title("Source").
				Options(huh.NewOptions(fares.Sources()...)...).
				Value(&v.Source),
			huh.NewSelect[string]().
				Title("Destination").
				Options(huh.NewOptions(fares.Destinations()...)...).
				Value(&v.Destination),
			huh.NewInput().
				Title("Date").
				Description("YYYY-MM-DD").
				Value(&v.Date).
				Validate(validateDate),
		),
	).WithShowHelp(false)
}

// Submit records the form values through svc.
func (v *AddValues) Submit(svc *expense.Service) (model.Expense, error) {
	date, err := model.ParseDate(v.Date)
	if err != nil {
		return model.Expense{}, &expense.ValidationError{Field: "date"}
	}
	return svc.Add(v.Employee, v.Source, v.Destination, date)
}

func requireDetail(s string) error {
	if model.NormalizeEmployee(s) == "" {
		return errors.New(expense.MsgMissingDetails)
	}
	return nil
}

func validateDate(s string) error {
	if _, err := model.ParseDate(s); err != nil {
		return errors.New("date must be YYYY-MM-DD")
	}
	return nil
}
