package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"homeledger/internal/core"
	"homeledger/internal/ledger"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response body", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: message, Code: code})
}

// writeDomainError maps domain errors to HTTP statuses. Unknown errors are
// reported as a store failure rather than leaking internals.
func writeDomainError(w http.ResponseWriter, err error) {
	var partial *ledger.PartialSaveError
	switch {
	case errors.Is(err, core.ErrNothingToSave):
		writeError(w, http.StatusUnprocessableEntity, "nothing_to_save", "no entry has a positive amount")
	case errors.Is(err, core.ErrEmptyName):
		writeError(w, http.StatusUnprocessableEntity, "empty_name", "category name must not be empty")
	case errors.Is(err, core.ErrInvalidAmount):
		writeError(w, http.StatusUnprocessableEntity, "invalid_amount", "amount is not a positive number")
	case errors.Is(err, ledger.ErrSaveInFlight):
		writeError(w, http.StatusConflict, "save_in_flight", "a save is already in progress")
	case errors.Is(err, ledger.ErrNoDayLoaded):
		writeError(w, http.StatusConflict, "no_day_loaded", "no day is loaded")
	case errors.As(err, &partial):
		writeError(w, http.StatusInternalServerError, "partial_save", "save failed after clearing the day; retry to repair")
	case errors.Is(err, core.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "store unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

// decodeBody decodes a small JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return false
	}
	return true
}

func requirePOST(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return false
	}
	return true
}
