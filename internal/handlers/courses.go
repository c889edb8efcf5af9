package handlers

import (
	"net/http"
	"strings"

	"github.com/shrimpsizemoose/kardemumma/internal/models"
	"github.com/shrimpsizemoose/kardemumma/internal/registry"
)

func (h *Handler) HandleCreateCourse(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.guard(w, r); !ok {
		return
	}

	var req models.CreateCourseRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.Section = sectionOrDefault(req.Section)
	name := models.CleanText(req.Course, 100)
	if req.Validate() != nil || name == "" {
		h.fail(w, r, http.StatusBadRequest, "Invalid term/section/course.")
		return
	}

	err := h.service.Store.Apply(func(db *models.Database) error {
		return registry.CreateCourse(db, req.Term, req.Section, name)
	})
	if err != nil {
		h.failErr(w, r, err)
		return
	}

	h.ok(w, r, nil)
}

func (h *Handler) HandleListCourses(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.guard(w, r); !ok {
		return
	}

	db, err := h.service.Store.Load()
	if err != nil {
		h.failErr(w, r, err)
		return
	}

	h.ok(w, r, map[string]interface{}{"courses": registry.ListCourses(db)})
}

func (h *Handler) HandleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.guard(w, r); !ok {
		return
	}

	term, termOK := queryInt(r, "term", 1, 9999)
	section, sectionOK := querySection(r)
	if !termOK || !sectionOK {
		h.fail(w, r, http.StatusBadRequest, "Invalid term/section.")
		return
	}

	err := h.service.Store.Apply(func(db *models.Database) error {
		return registry.DeleteCourse(db, term, section)
	})
	if err != nil {
		h.failErr(w, r, err)
		return
	}

	h.ok(w, r, nil)
}

func (h *Handler) HandleModifyCourse(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.guard(w, r); !ok {
		return
	}

	var req models.ModifyCourseRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.Section = sectionOrDefault(req.Section)
	req.NewSection = sectionOrDefault(req.NewSection)
	if req.NewTerm == 0 {
		req.NewTerm = req.Term
	}
	if err := req.Validate(); err != nil {
		h.fail(w, r, http.StatusBadRequest, "Invalid term/section.")
		return
	}
	newName := models.CleanText(req.Course, 100)

	err := h.service.Store.Apply(func(db *models.Database) error {
		return registry.ModifyCourse(db, req.Term, req.Section, req.NewTerm, req.NewSection, newName)
	})
	if err != nil {
		h.failErr(w, r, err)
		return
	}

	h.ok(w, r, nil)
}

func (h *Handler) HandleAddMembers(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.guard(w, r); !ok {
		return
	}

	var req models.AddMembersRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.Section = sectionOrDefault(req.Section)
	if err := req.Validate(); err != nil {
		h.fail(w, r, http.StatusBadRequest, "Invalid term/section.")
		return
	}

	var added, ignored []string
	err := h.service.Store.Apply(func(db *models.Database) error {
		var applyErr error
		added, ignored, applyErr = registry.AddMembers(db, req.Term, req.Section, req.MemberList())
		return applyErr
	})
	if err != nil {
		h.failErr(w, r, err)
		return
	}

	h.ok(w, r, map[string]interface{}{
		"added":      added,
		"ignored":    ignored,
		"addedCount": len(added),
	})
}

func (h *Handler) HandleListMembers(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.guard(w, r); !ok {
		return
	}

	term, termOK := queryInt(r, "term", 1, 9999)
	section, sectionOK := querySection(r)
	if !termOK || !sectionOK {
		h.fail(w, r, http.StatusBadRequest, "Invalid term/section.")
		return
	}
	role := models.CleanText(r.URL.Query().Get("role"), 10)

	db, err := h.service.Store.Load()
	if err != nil {
		h.failErr(w, r, err)
		return
	}

	members, err := registry.ListMembers(db, term, section, role)
	if err != nil {
		h.failErr(w, r, err)
		return
	}

	var roleField interface{}
	if role != "" {
		roleField = role
	}
	h.ok(w, r, map[string]interface{}{
		"term":    term,
		"section": section,
		"role":    roleField,
		"count":   len(members),
		"members": members,
	})
}

func (h *Handler) HandleDeleteMembers(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.guard(w, r); !ok {
		return
	}

	term, termOK := queryInt(r, "term", 1, 9999)
	section, sectionOK := querySection(r)
	var ids []string
	for _, raw := range strings.Split(r.URL.Query().Get("memberIds"), ",") {
		if v := strings.TrimSpace(raw); v != "" {
			ids = append(ids, strings.ToUpper(v))
		}
	}
	if !termOK || !sectionOK || len(ids) == 0 {
		h.fail(w, r, http.StatusBadRequest, "Invalid parameters.")
		return
	}

	var removed int
	err := h.service.Store.Apply(func(db *models.Database) error {
		var applyErr error
		removed, applyErr = registry.DeleteMembers(db, term, section, ids)
		return applyErr
	})
	if err != nil {
		h.failErr(w, r, err)
		return
	}

	h.ok(w, r, map[string]interface{}{"removed": removed})
}
