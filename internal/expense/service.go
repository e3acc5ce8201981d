// Package expense owns the add-expense path: validation, fare resolution and
// write-through persistence of the session history.
package expense

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/theirongolddev/farelog/internal/model"
	"github.com/theirongolddev/farelog/internal/store"
)

// User-facing messages for the two error kinds a caller is expected to show.
const (
	MsgMissingDetails = "Please provide all required details."
	MsgRouteNotFound  = "Fare not found for this route."
	MsgNoHistory      = "No expense history found."
	MsgNoReport       = "No expense history found to download."
)

// FareLookup resolves the price of a route.
type FareLookup interface {
	Lookup(source, destination string) (decimal.Decimal, bool)
}

// ValidationError reports a missing or empty required field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("please provide all required details: %s is missing", e.Field)
}

// RouteNotFoundError reports a source/destination pair with no known fare.
type RouteNotFoundError struct {
	Source      string
	Destination string
}

func (e *RouteNotFoundError) Error() string {
	return fmt.Sprintf("fare not found for route %s -> %s", e.Source, e.Destination)
}

// UserMessage maps a validation or route-not-found error to the short
// message shown to the user. ok is false for any other error.
func UserMessage(err error) (msg string, ok bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return MsgMissingDetails, true
	}
	var rnf *RouteNotFoundError
	if errors.As(err, &rnf) {
		return MsgRouteNotFound, true
	}
	return "", false
}

// Service is one session's view of the expense history. It loads the durable
// copy once and writes the full history back after every successful Add, so
// the in-memory and durable copies never diverge.
type Service struct {
	fares   FareLookup
	store   store.Store
	logger  *zap.Logger
	history []model.Expense
}

// NewService loads the durable history and returns a ready session.
func NewService(fares FareLookup, st store.Store, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	history, err := st.Load()
	if err != nil {
		return nil, fmt.Errorf("loading expense history: %w", err)
	}
	logger.Debug("expense history loaded", zap.Int("records", len(history)))

	return &Service{
		fares:   fares,
		store:   st,
		logger:  logger,
		history: history,
	}, nil
}

// Add records a trip. On any error no record is kept in memory; when the
// store write fails the append is rolled back and the error returned.
func (s *Service) Add(employee, source, destination string, date time.Time) (model.Expense, error) {
	employee = model.NormalizeEmployee(employee)

	switch {
	case employee == "":
		return model.Expense{}, &ValidationError{Field: "employee"}
	case strings.TrimSpace(source) == "":
		return model.Expense{}, &ValidationError{Field: "source"}
	case strings.TrimSpace(destination) == "":
		return model.Expense{}, &ValidationError{Field: "destination"}
	case date.IsZero():
		return model.Expense{}, &ValidationError{Field: "date"}
	}

	fare, ok := s.fares.Lookup(source, destination)
	if !ok {
		s.logger.Debug("route not found",
			zap.String("source", source),
			zap.String("destination", destination))
		return model.Expense{}, &RouteNotFoundError{Source: source, Destination: destination}
	}

	rec := model.NewExpense(employee, source, destination, fare, date)

	prevLen := len(s.history)
	s.history = append(s.history, rec)
	if err := s.store.Save(s.history); err != nil {
		s.history = s.history[:prevLen]
		return model.Expense{}, fmt.Errorf("saving expense history: %w", err)
	}

	s.logger.Debug("expense added",
		zap.String("employee", rec.Employee),
		zap.String("route", rec.Source+" -> "+rec.Destination),
		zap.String("fare", rec.Fare.StringFixed(2)),
		zap.String("date", rec.DateString()))

	return rec, nil
}

// History returns a copy of the session history in insertion order.
func (s *Service) History() []model.Expense {
	out := make([]model.Expense, len(s.history))
	copy(out, s.history)
	return out
}

// Len returns the number of records in the session history.
func (s *Service) Len() int {
	return len(s.history)
}

// Reload replaces the session history with the durable copy.
func (s *Service) Reload() error {
	history, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("loading expense history: %w", err)
	}
	s.history = history
	return nil
}
