package handlers

import (
	"net/http"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/kardemumma/internal/metrics"
	"github.com/shrimpsizemoose/kardemumma/internal/models"
	"github.com/shrimpsizemoose/kardemumma/internal/registry"
	"github.com/shrimpsizemoose/kardemumma/internal/scheduling"
)

func (h *Handler) HandleCreateSheet(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.guard(w, r); !ok {
		return
	}

	var req models.CreateSheetRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.Section = sectionOrDefault(req.Section)
	assignment := models.CleanText(req.Assignment, 100)
	if req.Validate() != nil || assignment == "" {
		h.fail(w, r, http.StatusBadRequest, "Invalid sheet parameters.")
		return
	}

	var id string
	err := h.service.Store.Apply(func(db *models.Database) error {
		var applyErr error
		id, applyErr = registry.CreateSheet(db, &req, assignment)
		return applyErr
	})
	if err != nil {
		h.failErr(w, r, err)
		return
	}

	h.ok(w, r, map[string]interface{}{"id": id})
}

func (h *Handler) HandleListSheets(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.guard(w, r); !ok {
		return
	}

	term, termOK := queryInt(r, "term", 1, 9999)
	section, sectionOK := querySection(r)
	if !termOK || !sectionOK {
		h.fail(w, r, http.StatusBadRequest, "Invalid term/section.")
		return
	}

	db, err := h.service.Store.Load()
	if err != nil {
		h.failErr(w, r, err)
		return
	}

	h.ok(w, r, map[string]interface{}{"sheets": registry.ListSheets(db, term, section)})
}

func (h *Handler) HandleDeleteSheet(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.guard(w, r); !ok {
		return
	}

	sheetID := r.PathValue("id")

	err := h.service.Store.Apply(func(db *models.Database) error {
		return registry.DeleteSheet(db, sheetID)
	})
	if err != nil {
		h.failErr(w, r, err)
		return
	}

	h.ok(w, r, nil)
}

func (h *Handler) HandleCreateSlots(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.observe(r, http.StatusOK, start)
	}()

	if _, _, ok := h.guard(w, r); !ok {
		return
	}

	sheetID := r.PathValue("id")
	var req models.CreateSlotsRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(w, r, http.StatusBadRequest, "Invalid slot parameters.")
		return
	}

	var created []string
	err := h.service.Store.Apply(func(db *models.Database) error {
		var applyErr error
		created, applyErr = scheduling.CreateSlots(db, sheetID, &req)
		return applyErr
	})
	if err != nil {
		h.failErr(w, r, err)
		return
	}

	logger.Debug.Printf("Created %d slots on sheet %s", len(created), sheetID)
	metrics.SlotMutationsTotal.WithLabelValues("create").Add(float64(len(created)))

	h.ok(w, r, map[string]interface{}{"created": created})
}

func (h *Handler) HandleListSlots(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.guard(w, r); !ok {
		return
	}

	db, err := h.service.Store.Load()
	if err != nil {
		h.failErr(w, r, err)
		return
	}

	sheet := db.FindSheet(r.PathValue("id"))
	if sheet == nil {
		h.fail(w, r, http.StatusNotFound, "Sheet not found.")
		return
	}

	h.ok(w, r, map[string]interface{}{"slots": sheet.Slots})
}
