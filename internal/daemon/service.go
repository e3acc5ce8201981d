// Package daemon serves the expense history over a local HTTP API.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/theirongolddev/farelog/internal/expense"
	"github.com/theirongolddev/farelog/internal/fare"
	"github.com/theirongolddev/farelog/internal/model"
	"github.com/theirongolddev/farelog/internal/pipeline"
	"github.com/theirongolddev/farelog/internal/report"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Addr           string
	Backend        string
	CurrencySymbol string
	ReportName     string
	EventsBuffer   int
}

// Event is emitted whenever an expense is recorded.
type Event struct {
	ID        int64         `json:"id"`
	Type      string        `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	Expense   model.Expense `json:"expense"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time       `json:"started_at"`
	Backend         string          `json:"backend"`
	FareRoutes      int             `json:"fare_routes"`
	Expenses        int             `json:"expenses"`
	Employees       int             `json:"employees"`
	Total           decimal.Decimal `json:"total"`
	AddedCount      int64           `json:"added_count"`
	LastError       string          `json:"last_error,omitempty"`
	EventCount      int             `json:"event_count"`
	SubscriberCount int             `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API. Handlers that touch the
// expense session hold mu, so concurrent requests never interleave a
// load-append-save cycle.
type Service struct {
	cfg      Config
	fares    *fare.Table
	expenses *expense.Service
	logger   *zap.Logger

	mu         sync.Mutex
	startedAt  time.Time
	addedCount int64
	lastError  string

	evMu        sync.RWMutex
	nextEventID int64
	events      []Event
	nextSubID   int
	subs        map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config, fares *fare.Table, expenses *expense.Service, logger *zap.Logger) *Service {
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.ReportName == "" {
		cfg.ReportName = report.FileName
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		cfg:       cfg,
		fares:     fares,
		expenses:  expenses,
		logger:    logger,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the gin engine serving the API.
func (s *Service) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests)

	r.GET("/healthz", s.handleHealth)
	v1 := r.Group("/v1")
	v1.GET("/status", s.handleStatus)
	v1.GET("/fares", s.handleFares)
	v1.GET("/expenses", s.handleListExpenses)
	v1.POST("/expenses", s.handleAddExpense)
	v1.GET("/report", s.handleReport)
	v1.GET("/events", s.handleEvents)
	v1.GET("/stream", s.handleStream)
	return r
}

// Run serves the API until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.logger.Info("daemon listening", zap.String("addr", s.cfg.Addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("daemon http server: %w", err)
	}
}

func (s *Service) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.logger.Info("request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", c.Writer.Status()),
		zap.Duration("elapsed", time.Since(start)))
}

func (s *Service) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok\n")
}

func (s *Service) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.snapshotStatus())
}

func (s *Service) snapshotStatus() Status {
	s.mu.Lock()
	history := s.expenses.History()
	st := Status{
		StartedAt:  s.startedAt,
		Backend:    s.cfg.Backend,
		FareRoutes: s.fares.Len(),
		Expenses:   len(history),
		Employees:  len(pipeline.Employees(history)),
		Total:      pipeline.Total(history),
		AddedCount: s.addedCount,
		LastError:  s.lastError,
	}
	s.mu.Unlock()

	s.evMu.RLock()
	st.EventCount = len(s.events)
	st.SubscriberCount = len(s.subs)
	s.evMu.RUnlock()
	return st
}

func (s *Service) handleFares(c *gin.Context) {
	source, destination := c.Query("source"), c.Query("destination")
	if source != "" || destination != "" {
		price, ok := s.fares.Lookup(source, destination)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": expense.MsgRouteNotFound})
			return
		}
		c.JSON(http.StatusOK, fare.Entry{Source: source, Destination: destination, Price: price})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"fares":        s.fares.Entries(),
		"sources":      s.fares.Sources(),
		"destinations": s.fares.Destinations(),
	})
}

func (s *Service) handleListExpenses(c *gin.Context) {
	var bounds [2]time.Time
	for i, key := range []string{"since", "until"} {
		v := c.Query(key)
		if v == "" {
			continue
		}
		d, err := model.ParseDate(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s date %q (want YYYY-MM-DD)", key, v)})
			return
		}
		bounds[i] = d
	}

	history, err := s.currentHistory()
	if err != nil {
		s.logger.Error("reload history failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	history = pipeline.FilterByEmployee(history, c.Query("employee"))
	history = pipeline.FilterByMonth(history, c.Query("month"))
	history = pipeline.FilterByDate(history, bounds[0], bounds[1])

	c.JSON(http.StatusOK, gin.H{
		"employees": pipeline.AggregateEmployees(history),
		"total":     pipeline.Total(history),
	})
}

type addRequest struct {
	Employee    string `json:"employee" binding:"required"`
	Source      string `json:"source" binding:"required"`
	Destination string `json:"destination" binding:"required"`
	Date        string `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

func (s *Service) handleAddExpense(c *gin.Context) {
	var req addRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": expense.MsgMissingDetails, "detail": err.Error()})
		return
	}

	date := time.Now()
	if strings.TrimSpace(req.Date) != "" {
		d, err := model.ParseDate(req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": expense.MsgMissingDetails, "detail": err.Error()})
			return
		}
		date = d
	}

	s.mu.Lock()
	rec, err := s.reloadAndAdd(req, date)
	if err == nil {
		s.addedCount++
		s.lastError = ""
	} else if _, known := expense.UserMessage(err); !known {
		s.lastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		var rnf *expense.RouteNotFoundError
		switch msg, known := expense.UserMessage(err); {
		case errors.As(err, &rnf):
			c.JSON(http.StatusNotFound, gin.H{"error": msg})
		case known:
			c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		default:
			s.logger.Error("add expense failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	s.publishEvent(Event{Type: "expense_added", Timestamp: time.Now(), Expense: rec})
	c.JSON(http.StatusCreated, rec)
}

// reloadAndAdd re-reads the durable history before appending, so records
// written by other processes (e.g. "farelog add") survive the rewrite.
// Callers hold mu.
func (s *Service) reloadAndAdd(req addRequest, date time.Time) (model.Expense, error) {
	if err := s.expenses.Reload(); err != nil {
		return model.Expense{}, err
	}
	return s.expenses.Add(req.Employee, req.Source, req.Destination, date)
}

func (s *Service) handleReport(c *gin.Context) {
	history, err := s.currentHistory()
	if err != nil {
		s.logger.Error("reload history failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if len(history) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": expense.MsgNoReport})
		return
	}

	data, err := report.Render(history, report.Options{CurrencySymbol: s.cfg.CurrencySymbol})
	if err != nil {
		s.logger.Error("render report failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.cfg.ReportName))
	c.Data(http.StatusOK, report.ContentType, data)
}

// currentHistory reloads the durable history and returns a copy of it.
func (s *Service) currentHistory() ([]model.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.expenses.Reload(); err != nil {
		return nil, err
	}
	return s.expenses.History(), nil
}

func (s *Service) handleEvents(c *gin.Context) {
	s.evMu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.evMu.RUnlock()

	c.JSON(http.StatusOK, events)
}

func (s *Service) handleStream(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current status immediately.
	c.SSEvent("status", s.snapshotStatus())
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(_ io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev := <-ch:
			c.SSEvent(ev.Type, ev)
			return true
		}
	})
}

func (s *Service) publishEvent(ev Event) {
	s.evMu.Lock()
	s.nextEventID++
	ev.ID = s.nextEventID
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.evMu.Unlock()
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.evMu.Lock()
	defer s.evMu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.evMu.Lock()
	defer s.evMu.Unlock()
	delete(s.subs, id)
}
