// Package handlers is the HTTP boundary: decode, validate, route into the
// domain engines through the document store, answer with the {ok: ...}
// envelope.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/kardemumma/internal/app"
	"github.com/shrimpsizemoose/kardemumma/internal/fault"
	"github.com/shrimpsizemoose/kardemumma/internal/metrics"
)

type Handler struct {
	service *app.Service
	now     func() time.Time
}

func New(service *app.Service) *Handler {
	return &Handler{
		service: service,
		now:     time.Now,
	}
}

// guard runs the shared request checks: magic headers and, when auth is
// enabled, the token capability check. It reports the subject and role.
func (h *Handler) guard(w http.ResponseWriter, r *http.Request) (subject, role string, ok bool) {
	if !h.service.ValidateHeaders(r.Header) {
		http.Error(w, "these are not the droids you are looking for", http.StatusForbidden)
		return "", "", false
	}

	subject, role, err := h.service.Identify(r)
	if err != nil {
		logger.Error.Printf("Auth failed: %v", err)
		h.fail(w, r, http.StatusUnauthorized, "Unauthorized.")
		return "", "", false
	}
	return subject, role, true
}

func (h *Handler) observe(r *http.Request, status int, start time.Time) {
	metrics.APIRequestDuration.WithLabelValues(
		r.URL.Path,
		r.Method,
		strconv.Itoa(status),
	).Observe(time.Since(start).Seconds())
}

func (h *Handler) ok(w http.ResponseWriter, r *http.Request, payload map[string]interface{}) {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	payload["ok"] = true

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Debug.Printf("Error encoding response: %v", err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"ok":    false,
		"error": msg,
	}); err != nil {
		logger.Debug.Printf("Error encoding response: %v", err)
	}
}

// failErr maps a domain error to its status; infrastructure errors are logged
// and hidden behind a generic 500.
func (h *Handler) failErr(w http.ResponseWriter, r *http.Request, err error) {
	if !fault.IsDomain(err) {
		logger.Error.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		h.fail(w, r, http.StatusInternalServerError, "Internal error.")
		return
	}
	h.fail(w, r, fault.HTTPStatus(err), err.Error())
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.fail(w, r, http.StatusBadRequest, "Invalid request body.")
		return false
	}
	return true
}

// queryInt parses an integer query param within [min, max]; 0 and false when
// absent or out of range.
func queryInt(r *http.Request, name string, min, max int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		return 0, false
	}
	return n, true
}

// querySection reads the section query param. Absent defaults to 1; anything
// present must parse within [1, 99], a bad value is never coerced.
func querySection(r *http.Request) (int, bool) {
	if r.URL.Query().Get("section") == "" {
		return 1, true
	}
	return queryInt(r, "section", 1, 99)
}

// sectionOrDefault keeps the historical "section defaults to 1" behavior.
func sectionOrDefault(section int) int {
	if section == 0 {
		return 1
	}
	return section
}
