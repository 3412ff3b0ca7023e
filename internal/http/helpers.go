package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"contas/internal/core"
	"contas/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrMissingAccount),
		errors.Is(err, core.ErrMissingCategory),
		errors.Is(err, core.ErrMissingHousehold),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrInvalidParcelas),
		errors.Is(err, core.ErrInvalidDateFormat),
		errors.Is(err, core.ErrDescriptionTooLong):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// householdFrom reads the caller's household from the request header. The
// session layer in front of this API resolves users to households.
func householdFrom(r *http.Request) (string, bool) {
	hh := strings.TrimSpace(r.Header.Get("X-Household-ID"))
	return hh, hh != ""
}

// parseYearMonth reads year and month query parameters, defaulting to the
// current calendar month.
func parseYearMonth(r *http.Request) (int, int) {
	now := time.Now()
	year := now.Year()
	month := int(now.Month())
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			month = m
		}
	}
	if month < 1 || month > 12 {
		month = int(now.Month())
	}
	// Stored dates are zero-padded four-digit years, so anything outside that
	// range can never match a row.
	if year < 1 || year > 9999 {
		year = now.Year()
	}
	return year, month
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
