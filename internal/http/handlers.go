package http

import (
	"net/http"

	"homeledger/internal/core"
	"homeledger/internal/log"
)

type dayResponse struct {
	Date            string            `json:"date"`
	State           string            `json:"state"`
	Inputs          map[string]string `json:"inputs"`
	DailyTotalCents int64             `json:"daily_total_cents"`
}

func (s *Server) dayPayload() dayResponse {
	inputs := s.controller.Inputs()
	return dayResponse{
		Date:            s.controller.CurrentDay(),
		State:           s.controller.DayState().String(),
		Inputs:          inputs,
		DailyTotalCents: inputs.TotalCents(),
	}
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"categories": s.controller.Categories()})
	case http.MethodPost:
		var req struct {
			Name string `json:"name"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		cat, err := s.controller.AddCategory(r.Context(), req.Name)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		log.FromContext(r.Context()).InfoContext(r.Context(), "Category added",
			"id", cat.ID, "sort_order", cat.SortOrder)
		writeJSON(w, http.StatusCreated, cat)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET or POST")
	}
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}
	writeJSON(w, http.StatusOK, s.dayPayload())
}

func (s *Server) handleDayEntry(w http.ResponseWriter, r *http.Request) {
	if !requirePOST(w, r) {
		return
	}
	var req struct {
		CategoryID string `json:"category_id"`
		Value      string `json:"value"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.CategoryID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "category_id is required")
		return
	}
	if err := s.controller.Edit(req.CategoryID, req.Value); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.dayPayload())
}

func (s *Server) handleDaySave(w http.ResponseWriter, r *http.Request) {
	if !requirePOST(w, r) {
		return
	}
	if err := s.controller.Save(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Day saved",
		log.FieldDate, s.controller.CurrentDay())
	writeJSON(w, http.StatusOK, map[string]any{
		"day":               s.dayPayload(),
		"month_total_cents": s.controller.MonthTotalCents(),
	})
}

func (s *Server) handleDayNavigate(w http.ResponseWriter, r *http.Request) {
	if !requirePOST(w, r) {
		return
	}
	var req struct {
		Delta int `json:"delta"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.controller.Navigate(r.Context(), req.Delta); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"day":               s.dayPayload(),
		"month_total_cents": s.controller.MonthTotalCents(),
	})
}

func (s *Server) handleDayDate(w http.ResponseWriter, r *http.Request) {
	if !requirePOST(w, r) {
		return
	}
	var req struct {
		Date string `json:"date"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	day, err := core.ParseDayKey(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "date must be formatted as 2006-01-02")
		return
	}
	if err := s.controller.SetDate(r.Context(), day); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"day":               s.dayPayload(),
		"month_total_cents": s.controller.MonthTotalCents(),
	})
}

func (s *Server) handleMonthTotal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"month_total_cents": s.controller.MonthTotalCents(),
	})
}

func (s *Server) handleNotices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notices": s.controller.Notices()})
}

func (s *Server) handleNoticeDismiss(w http.ResponseWriter, r *http.Request) {
	if !requirePOST(w, r) {
		return
	}
	var req struct {
		ID int `json:"id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.controller.Dismiss(req.ID)
	w.WriteHeader(http.StatusNoContent)
}
