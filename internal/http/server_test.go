package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"homeledger/internal/app"
	"homeledger/internal/catalog"
	"homeledger/internal/core"
	"homeledger/internal/ledger"
	"homeledger/internal/report"
	"homeledger/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore(storage.DefaultCategories())
	cat := catalog.New(store)
	day := ledger.NewDaySync(store, cat)
	monthly := report.NewMonthlyAggregator(store)
	controller := app.NewController(
		core.NewCursor(time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)),
		cat, day, monthly, nil)
	if err := controller.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	return NewServer(":0", controller, store), store
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := doJSON(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := doJSON(t, srv, http.MethodGet, "/api/day", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options=%q", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("X-Frame-Options=%q", got)
	}
}

func TestGetCategories(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := doJSON(t, srv, http.MethodGet, "/api/categories", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	var resp struct {
		Categories []core.Category `json:"categories"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Categories) != 12 {
		t.Fatalf("expected 12 categories, got %d", len(resp.Categories))
	}
	if resp.Categories[0].ID != "house-rent" {
		t.Fatalf("expected house-rent first, got %s", resp.Categories[0].ID)
	}
}

func TestAddCategory(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/categories", `{"name":"  "}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("blank name: expected 422, got %d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/categories", `{"name":"Electricity"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var cat core.Category
	if err := json.Unmarshal(rr.Body.Bytes(), &cat); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cat.Name != "Electricity" || cat.SortOrder != 13 {
		t.Fatalf("unexpected category %+v", cat)
	}
}

func TestEditAndSaveDay(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/day/entry", `{"category_id":"grocery","value":"12.50"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("edit: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var day dayResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &day); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if day.DailyTotalCents != 1250 {
		t.Fatalf("daily total=%d, want 1250", day.DailyTotalCents)
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/day/save", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("save: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var saved struct {
		Day             dayResponse `json:"day"`
		MonthTotalCents int64       `json:"month_total_cents"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &saved); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if saved.MonthTotalCents != 1250 {
		t.Fatalf("month total=%d, want 1250", saved.MonthTotalCents)
	}
	if saved.Day.Inputs["grocery"] != "12.50" {
		t.Fatalf("inputs after save: %v", saved.Day.Inputs)
	}
}

func TestSaveWithNothingToSave(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := doJSON(t, srv, http.MethodPost, "/api/day/save", "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
	var resp errorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != "nothing_to_save" {
		t.Fatalf("code=%q", resp.Code)
	}
}

func TestNavigate(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := doJSON(t, srv, http.MethodPost, "/api/day/navigate", `{"delta":-1}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Day dayResponse `json:"day"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Day.Date != "2025-03-06" {
		t.Fatalf("date=%s, want 2025-03-06", resp.Day.Date)
	}
}

func TestSetDateRejectsBadFormat(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := doJSON(t, srv, http.MethodPost, "/api/day/date", `{"date":"07/03/2025"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := doJSON(t, srv, http.MethodGet, "/api/day/save", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
	if rr.Header().Get("Allow") != http.MethodPost {
		t.Fatalf("Allow=%q", rr.Header().Get("Allow"))
	}
}

func TestNoticesDismiss(t *testing.T) {
	srv, _ := newTestServer(t)
	rr := doJSON(t, srv, http.MethodGet, "/api/notices", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodPost, "/api/notices/dismiss", `{"id":1}`)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
}
