package handlers

import (
	"net/http"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/kardemumma/internal/enrollment"
	"github.com/shrimpsizemoose/kardemumma/internal/metrics"
	"github.com/shrimpsizemoose/kardemumma/internal/models"
)

func (h *Handler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.observe(r, http.StatusOK, start)
	}()

	if _, _, ok := h.guard(w, r); !ok {
		return
	}

	var req models.SignupRequest
	if !h.decode(w, r, &req) {
		return
	}
	memberID, idOK := models.NormalizeMemberID(req.MemberID)
	if req.Validate() != nil || !idOK {
		h.fail(w, r, http.StatusBadRequest, "Invalid signup parameters.")
		return
	}

	err := h.service.Store.Apply(func(db *models.Database) error {
		oracle := enrollment.DocOracle{DB: db}
		return h.service.Ledger.SignUp(db, oracle, req.SheetID, req.SlotID, memberID)
	})
	if err != nil {
		h.failErr(w, r, err)
		return
	}

	logger.Debug.Printf("Member %s signed up for slot %s on sheet %s", memberID, req.SlotID, req.SheetID)
	metrics.SignupsTotal.WithLabelValues(req.SheetID, "signup").Inc()

	h.ok(w, r, nil)
}

func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.guard(w, r); !ok {
		return
	}

	sheetID := models.CleanText(r.URL.Query().Get("sheetId"), 20)
	memberID, idOK := models.NormalizeMemberID(r.URL.Query().Get("memberId"))
	if sheetID == "" || !idOK {
		h.fail(w, r, http.StatusBadRequest, "Invalid parameters.")
		return
	}

	err := h.service.Store.Apply(func(db *models.Database) error {
		return h.service.Ledger.Withdraw(db, sheetID, memberID, h.now().UnixMilli())
	})
	if err != nil {
		h.failErr(w, r, err)
		return
	}

	metrics.SignupsTotal.WithLabelValues(sheetID, "withdraw").Inc()

	h.ok(w, r, nil)
}
