package handlers

import (
	"net/http"

	"github.com/shrimpsizemoose/kardemumma/internal/grading"
	"github.com/shrimpsizemoose/kardemumma/internal/metrics"
	"github.com/shrimpsizemoose/kardemumma/internal/models"
	"github.com/shrimpsizemoose/kardemumma/internal/scheduling"
)

func (h *Handler) HandleUpdateSlot(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.guard(w, r); !ok {
		return
	}

	slotID := r.PathValue("slotId")
	var req models.UpdateSlotRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(w, r, http.StatusBadRequest, "Invalid slot parameters.")
		return
	}

	var view *scheduling.SlotView
	err := h.service.Store.Apply(func(db *models.Database) error {
		var applyErr error
		view, applyErr = scheduling.UpdateSlot(db, slotID, &req)
		return applyErr
	})
	if err != nil {
		h.failErr(w, r, err)
		return
	}

	metrics.SlotMutationsTotal.WithLabelValues("update").Inc()

	h.ok(w, r, map[string]interface{}{"slot": view})
}

func (h *Handler) HandleDeleteSlot(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.guard(w, r); !ok {
		return
	}

	slotID := r.PathValue("slotId")

	err := h.service.Store.Apply(func(db *models.Database) error {
		return scheduling.DeleteSlot(db, slotID)
	})
	if err != nil {
		h.failErr(w, r, err)
		return
	}

	metrics.SlotMutationsTotal.WithLabelValues("delete").Inc()

	h.ok(w, r, nil)
}

func (h *Handler) HandleSlotMembers(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.guard(w, r); !ok {
		return
	}

	db, err := h.service.Store.Load()
	if err != nil {
		h.failErr(w, r, err)
		return
	}

	_, _, slot := db.FindSlot(r.PathValue("slotId"))
	if slot == nil {
		h.fail(w, r, http.StatusNotFound, "Slot not found.")
		return
	}

	h.ok(w, r, map[string]interface{}{"members": slot.Members})
}

// HandleActiveSlot answers "which slot is running right now" across all
// courses and sheets.
func (h *Handler) HandleActiveSlot(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.guard(w, r); !ok {
		return
	}

	db, err := h.service.Store.Load()
	if err != nil {
		h.failErr(w, r, err)
		return
	}

	details, err := grading.ActiveSlot(db, h.now().UnixMilli())
	if err != nil {
		h.failErr(w, r, err)
		return
	}

	h.okDetails(w, r, details)
}

func (h *Handler) HandleNextSlot(w http.ResponseWriter, r *http.Request) {
	h.handleAdjacentSlot(w, r, +1)
}

func (h *Handler) HandlePrevSlot(w http.ResponseWriter, r *http.Request) {
	h.handleAdjacentSlot(w, r, -1)
}

func (h *Handler) handleAdjacentSlot(w http.ResponseWriter, r *http.Request, direction int) {
	if _, _, ok := h.guard(w, r); !ok {
		return
	}

	slotID := r.URL.Query().Get("slotId")
	if slotID == "" {
		h.fail(w, r, http.StatusBadRequest, "Missing slotId.")
		return
	}

	db, err := h.service.Store.Load()
	if err != nil {
		h.failErr(w, r, err)
		return
	}

	details, err := grading.AdjacentSlot(db, slotID, direction)
	if err != nil {
		h.failErr(w, r, err)
		return
	}

	h.okDetails(w, r, details)
}

func (h *Handler) okDetails(w http.ResponseWriter, r *http.Request, d *grading.SlotDetails) {
	h.ok(w, r, map[string]interface{}{
		"sheetId":    d.SheetID,
		"assignment": d.Assignment,
		"slotId":     d.SlotID,
		"slotNumber": d.SlotNumber,
		"slotStart":  d.SlotStart,
		"slotEnd":    d.SlotEnd,
		"duration":   d.Duration,
		"members":    d.Members,
	})
}
