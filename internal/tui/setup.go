package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/farelog/internal/config"
	"github.com/theirongolddev/farelog/internal/fare"
	"github.com/theirongolddev/farelog/internal/store"
	"github.com/theirongolddev/farelog/internal/tui/theme"
)

// SetupValues holds the answers of the setup wizard. The form writes into
// it through pointers, so it must outlive the form.
type SetupValues struct {
	FaresFile      string
	HistoryFile    string
	Backend        string
	CurrencySymbol string
	Theme          string
}

// SetupValuesFrom seeds the wizard with the current configuration.
func SetupValuesFrom(cfg config.Config) *SetupValues {
	return &SetupValues{
		FaresFile:      cfg.General.FaresFile,
		HistoryFile:    cfg.General.HistoryFile,
		Backend:        cfg.Storage.Backend,
		CurrencySymbol: cfg.Report.CurrencySymbol,
		Theme:          cfg.Appearance.Theme,
	}
}

// Apply copies the answers onto cfg.
func (v *SetupValues) Apply(cfg config.Config) config.Config {
	cfg.General.FaresFile = strings.TrimSpace(v.FaresFile)
	cfg.General.HistoryFile = strings.TrimSpace(v.HistoryFile)
	cfg.Storage.Backend = v.Backend
	cfg.Report.CurrencySymbol = strings.TrimSpace(v.CurrencySymbol)
	cfg.Appearance.Theme = v.Theme
	return cfg
}

// NewSetupForm builds the setup wizard.
func NewSetupForm(v *SetupValues) *huh.Form {
	themes := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themes = append(themes, huh.NewOption(name, name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to farelog").
				Description("Point farelog at your fare table and expense history."),
			huh.NewInput().
				Title("Fare table").
				Description(".xlsx or .csv with Source, Destination and Price columns").
				Value(&v.FaresFile).
				Validate(validateFaresFile),
			huh.NewInput().
				Title("Expense history").
				Description("CSV file the history is written to").
				Value(&v.HistoryFile).
				Validate(requireValue("history file")),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Storage backend").
				Options(
					huh.NewOption("CSV file", store.BackendCSV),
					huh.NewOption("SQLite database", store.BackendSQLite),
				).
				Value(&v.Backend),
			huh.NewInput().
				Title("Currency symbol").
				Value(&v.CurrencySymbol).
				Validate(requireValue("currency symbol")),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themes...).
				Value(&v.Theme),
		),
	).WithShowHelp(true)
}

func validateFaresFile(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("fare table is required")
	}
	if !fare.Supported(s) {
		return errors.New("fare table must be .xlsx or .csv")
	}
	return nil
}

func requireValue(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(name + " is required")
		}
		return nil
	}
}
