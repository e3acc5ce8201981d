package daemon

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/farelog/internal/expense"
	"github.com/theirongolddev/farelog/internal/fare"
	"github.com/theirongolddev/farelog/internal/model"
	"github.com/theirongolddev/farelog/internal/report"
	"github.com/theirongolddev/farelog/internal/store"
)

func testFares() *fare.Table {
	return fare.New([]fare.Entry{
		{Source: "StationA", Destination: "StationB", Price: decimal.RequireFromString("12.50")},
	})
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, _ := newTestServiceAt(t)
	return s
}

// newTestServiceAt also returns the CSV history path backing the service.
func newTestServiceAt(t *testing.T) (*Service, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "history.csv")
	fares := testFares()
	svc, err := expense.NewService(fares, store.NewCSV(path), nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return New(Config{Backend: store.BackendCSV, EventsBuffer: 10}, fares, svc, nil), path
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding %q: %v", w.Body.String(), err)
	}
	return body.Error
}

func TestHealth(t *testing.T) {
	w := do(t, newTestService(t).Handler(), http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK || w.Body.String() != "ok\n" {
		t.Fatalf("healthz = %d %q", w.Code, w.Body.String())
	}
}

func TestAddExpense(t *testing.T) {
	s := newTestService(t)
	h := s.Handler()

	w := do(t, h, http.MethodPost, "/v1/expenses",
		`{"employee":"alice","source":"StationA","destination":"StationB","date":"2024-03-05"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST = %d %s", w.Code, w.Body.String())
	}

	var rec model.Expense
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.Employee != "Alice" || rec.Month != "March" || !rec.Fare.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("record = %+v", rec)
	}

	st := s.snapshotStatus()
	if st.Expenses != 1 || st.AddedCount != 1 || st.EventCount != 1 {
		t.Errorf("status = %+v", st)
	}

	w = do(t, h, http.MethodGet, "/v1/expenses?employee=ALICE", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"employee":"Alice"`) {
		t.Errorf("GET expenses = %d %s", w.Code, w.Body.String())
	}
}

func TestAddExpense_Errors(t *testing.T) {
	h := newTestService(t).Handler()

	cases := []struct {
		name, body string
		code       int
		msg        string
	}{
		{"missing field", `{"employee":"alice","source":"StationA"}`, http.StatusBadRequest, expense.MsgMissingDetails},
		{"blank employee", `{"employee":"  ","source":"StationA","destination":"StationB"}`, http.StatusBadRequest, expense.MsgMissingDetails},
		{"bad date", `{"employee":"a","source":"StationA","destination":"StationB","date":"03/05/2024"}`, http.StatusBadRequest, expense.MsgMissingDetails},
		{"unknown route", `{"employee":"a","source":"StationB","destination":"StationA"}`, http.StatusNotFound, expense.MsgRouteNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/v1/expenses", tc.body)
			if w.Code != tc.code {
				t.Fatalf("code = %d, want %d (%s)", w.Code, tc.code, w.Body.String())
			}
			if got := errorOf(t, w); got != tc.msg {
				t.Errorf("error = %q, want %q", got, tc.msg)
			}
		})
	}
}

func TestListExpenses_DateRange(t *testing.T) {
	h := newTestService(t).Handler()

	for _, date := range []string{"2024-02-28", "2024-03-01", "2024-03-15", "2024-04-02"} {
		w := do(t, h, http.MethodPost, "/v1/expenses",
			`{"employee":"alice","source":"StationA","destination":"StationB","date":"`+date+`"}`)
		if w.Code != http.StatusCreated {
			t.Fatalf("POST %s = %d %s", date, w.Code, w.Body.String())
		}
	}

	w := do(t, h, http.MethodGet, "/v1/expenses?since=2024-03-01&until=2024-03-15", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET = %d %s", w.Code, w.Body.String())
	}
	var body struct {
		Employees []struct {
			Trips int `json:"trips"`
		} `json:"employees"`
		Total decimal.Decimal `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Employees) != 1 || body.Employees[0].Trips != 2 {
		t.Errorf("employees = %+v, want one employee with 2 trips", body.Employees)
	}
	if !body.Total.Equal(decimal.RequireFromString("25")) {
		t.Errorf("total = %s, want 25", body.Total)
	}

	w = do(t, h, http.MethodGet, "/v1/expenses?since=March", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad since = %d, want 400", w.Code)
	}
}

func TestAddExpense_KeepsRecordsFromOtherWriters(t *testing.T) {
	s, path := newTestServiceAt(t)
	h := s.Handler()

	if w := do(t, h, http.MethodPost, "/v1/expenses",
		`{"employee":"alice","source":"StationA","destination":"StationB","date":"2024-03-01"}`); w.Code != http.StatusCreated {
		t.Fatalf("first POST = %d %s", w.Code, w.Body.String())
	}

	// A second session on the same file, as a CLI "add" would open.
	other, err := expense.NewService(testFares(), store.NewCSV(path), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.Add("carol", "StationA", "StationB", time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}

	if w := do(t, h, http.MethodPost, "/v1/expenses",
		`{"employee":"bob","source":"StationA","destination":"StationB","date":"2024-03-03"}`); w.Code != http.StatusCreated {
		t.Fatalf("second POST = %d %s", w.Code, w.Body.String())
	}

	saved, err := store.NewCSV(path).Load()
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range saved {
		names = append(names, e.Employee)
	}
	if got := strings.Join(names, ","); got != "Alice,Carol,Bob" {
		t.Errorf("durable employees = %s, want Alice,Carol,Bob", got)
	}

	w := do(t, h, http.MethodGet, "/v1/expenses?employee=carol", "")
	if !strings.Contains(w.Body.String(), `"employee":"Carol"`) {
		t.Errorf("GET expenses missing Carol: %s", w.Body.String())
	}
}

func TestFares(t *testing.T) {
	h := newTestService(t).Handler()

	w := do(t, h, http.MethodGet, "/v1/fares", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"sources":["StationA"]`) {
		t.Errorf("GET fares = %d %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodGet, "/v1/fares?source=StationB&destination=StationA", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("lookup miss = %d, want 404", w.Code)
	}
}

func TestReport(t *testing.T) {
	h := newTestService(t).Handler()

	w := do(t, h, http.MethodGet, "/v1/report", "")
	if w.Code != http.StatusNotFound || errorOf(t, w) != expense.MsgNoReport {
		t.Fatalf("empty report = %d %s", w.Code, w.Body.String())
	}

	do(t, h, http.MethodPost, "/v1/expenses", `{"employee":"bob","source":"StationA","destination":"StationB"}`)

	w = do(t, h, http.MethodGet, "/v1/report", "")
	if w.Code != http.StatusOK {
		t.Fatalf("report = %d %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != report.ContentType {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != `attachment; filename="total_expense_report.xlsx"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Error("body is not a zip container")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := newTestService(t)
	s.cfg.EventsBuffer = 2

	ch := make(chan Event, 4)
	s.addSubscriber(ch)

	for i := 0; i < 3; i++ {
		s.publishEvent(Event{Type: "expense_added"})
	}

	s.evMu.RLock()
	defer s.evMu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
	if len(ch) != 3 {
		t.Errorf("subscriber got %d events, want 3", len(ch))
	}
}
