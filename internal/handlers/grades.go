package handlers

import (
	"net/http"
	"time"

	"github.com/shrimpsizemoose/kardemumma/internal/grading"
	"github.com/shrimpsizemoose/kardemumma/internal/metrics"
	"github.com/shrimpsizemoose/kardemumma/internal/models"
)

// HandleGrade is the legacy single-shot grading endpoint: grade mandatory,
// bonus/penalty optional, wide historical parse bounds.
func (h *Handler) HandleGrade(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.observe(r, http.StatusOK, start)
	}()

	subject, _, ok := h.guard(w, r)
	if !ok {
		return
	}

	var req models.GradeRequest
	if !h.decode(w, r, &req) {
		return
	}
	memberID, idOK := models.NormalizeMemberID(req.MemberID)
	if req.Validate() != nil || !idOK {
		h.fail(w, r, http.StatusBadRequest, "Invalid grade parameters.")
		return
	}
	req.MemberID = memberID
	req.SheetID = models.CleanText(req.SheetID, 20)

	actor := subject
	if actor == "" {
		actor = "unknown"
	}

	var result *grading.Result
	err := h.service.Store.Apply(func(db *models.Database) error {
		var applyErr error
		result, applyErr = h.service.Grader.ApplyLegacy(db, &req, actor, h.now().UnixMilli())
		return applyErr
	})
	if err != nil {
		h.failErr(w, r, err)
		return
	}

	metrics.GradeUpdatesTotal.WithLabelValues(req.SheetID, "legacy").Inc()
	metrics.FinalGradeHistogram.WithLabelValues(req.SheetID).Observe(float64(result.FinalGrade))

	h.ok(w, r, map[string]interface{}{
		"memberId":   result.MemberID,
		"grade":      result.Grade,
		"bonus":      result.Bonus,
		"penalty":    result.Penalty,
		"finalGrade": result.FinalGrade,
		"comment":    result.Comment,
		"gradedTime": result.GradedTime,
	})
}

// HandleGradeUpdate is the unified grading endpoint with the audit trail.
func (h *Handler) HandleGradeUpdate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.observe(r, http.StatusOK, start)
	}()

	subject, _, ok := h.guard(w, r)
	if !ok {
		return
	}

	var req models.GradeUpdateRequest
	if !h.decode(w, r, &req) {
		return
	}
	memberID, idOK := models.NormalizeMemberID(req.MemberID)
	req.SheetID = models.CleanText(req.SheetID, 20)
	if req.Validate() != nil || !idOK || req.SheetID == "" {
		h.fail(w, r, http.StatusBadRequest, "Invalid parameters.")
		return
	}
	req.MemberID = memberID

	actor := subject
	if actor == "" {
		actor = models.CleanText(req.ChangedBy, 200)
	}
	if actor == "" {
		actor = "unknown"
	}

	var result *grading.Result
	err := h.service.Store.Apply(func(db *models.Database) error {
		var applyErr error
		result, applyErr = h.service.Grader.ApplyUpdate(db, &req, actor, h.now().UnixMilli())
		return applyErr
	})
	if err != nil {
		h.failErr(w, r, err)
		return
	}

	metrics.GradeUpdatesTotal.WithLabelValues(req.SheetID, "unified").Inc()
	metrics.FinalGradeHistogram.WithLabelValues(req.SheetID).Observe(float64(result.FinalGrade))

	h.ok(w, r, map[string]interface{}{
		"sheetId":    req.SheetID,
		"memberId":   result.MemberID,
		"grade":      result.Grade,
		"bonus":      result.Bonus,
		"penalty":    result.Penalty,
		"finalGrade": result.FinalGrade,
		"comment":    result.Comment,
		"gradedTime": result.GradedTime,
		"audit":      result.Audit,
	})
}
