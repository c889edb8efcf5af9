package models

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type CreateCourseRequest struct {
	Term    int    `json:"term" validate:"required,min=1,max=9999"`
	Section int    `json:"section" validate:"min=0,max=99"`
	Course  string `json:"course" validate:"required"`
}

type ModifyCourseRequest struct {
	Term       int    `json:"term" validate:"required,min=1,max=9999"`
	Section    int    `json:"section" validate:"min=0,max=99"`
	NewTerm    int    `json:"newTerm" validate:"omitempty,min=1,max=9999"`
	NewSection int    `json:"newSection" validate:"min=0,max=99"`
	Course     string `json:"course"`
}

type AddMembersRequest struct {
	Term    int             `json:"term" validate:"required,min=1,max=9999"`
	Section int             `json:"section" validate:"min=0,max=99"`
	List    json.RawMessage `json:"list"`
}

// MemberList decodes the list field, which the front-end sends either as a
// JSON array of member objects or as pasted text with one
// "id, first, last, role" record per line.
func (r *AddMembersRequest) MemberList() []Member {
	var members []Member
	if err := json.Unmarshal(r.List, &members); err == nil {
		return members
	}

	var text string
	if err := json.Unmarshal(r.List, &text); err != nil {
		return nil
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	// pasted JSON inside a string is accepted too
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &members); err == nil {
		return members
	}

	var out []Member
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" {
			continue
		}
		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == '\t' || r == ';'
		})
		var m Member
		for i, f := range fields {
			f = strings.TrimSpace(f)
			switch i {
			case 0:
				m.ID = f
			case 1:
				m.First = f
			case 2:
				m.Last = f
			case 3:
				m.Role = f
			}
		}
		out = append(out, m)
	}
	return out
}

type CreateSheetRequest struct {
	Term       int    `json:"term" validate:"required,min=1,max=9999"`
	Section    int    `json:"section" validate:"min=0,max=99"`
	Assignment string `json:"assignment" validate:"required"`
	NotBefore  int64  `json:"notBefore"`
	NotAfter   int64  `json:"notAfter"`
}

type CreateSlotsRequest struct {
	Start      int64 `json:"start" validate:"required"`
	Duration   int   `json:"duration" validate:"required,min=1,max=240"`
	NumSlots   int   `json:"numSlots" validate:"required,min=1,max=99"`
	MaxMembers int   `json:"maxMembers" validate:"required,min=1,max=99"`
}

// UpdateSlotRequest uses pointers so "field absent" and "field zero" stay
// distinguishable; absent fields keep their current values.
type UpdateSlotRequest struct {
	Start    *int64 `json:"start"`
	Duration *int   `json:"duration" validate:"omitempty,min=1,max=240"`
	Capacity *int   `json:"capacity" validate:"omitempty,min=1,max=99"`
}

type SignupRequest struct {
	SheetID  string `json:"sheetId" validate:"required,max=20"`
	SlotID   string `json:"slotId" validate:"required,max=20"`
	MemberID string `json:"memberId" validate:"required"`
}

// GradeRequest is the legacy single-shot grading payload: grade is mandatory,
// bonus/penalty ride along.
type GradeRequest struct {
	SheetID  string `json:"sheetId" validate:"required,max=20"`
	MemberID string `json:"memberId" validate:"required"`
	Grade    *int   `json:"grade" validate:"required"`
	Bonus    *int   `json:"bonus"`
	Penalty  *int   `json:"penalty"`
	Comment  string `json:"comment"`
}

// GradeUpdateRequest is the unified grading payload; every field is optional
// and independently range-checked by the grading engine.
type GradeUpdateRequest struct {
	SheetID   string  `json:"sheetId" validate:"required,max=20"`
	MemberID  string  `json:"memberId" validate:"required"`
	Grade     *int    `json:"grade"`
	Bonus     *int    `json:"bonus"`
	Penalty   *int    `json:"penalty"`
	Comment   *string `json:"comment"`
	ChangedBy string  `json:"changedBy"`
}

func (r *CreateCourseRequest) Validate() error { return validate.Struct(r) }
func (r *ModifyCourseRequest) Validate() error { return validate.Struct(r) }
func (r *AddMembersRequest) Validate() error   { return validate.Struct(r) }
func (r *CreateSheetRequest) Validate() error  { return validate.Struct(r) }
func (r *CreateSlotsRequest) Validate() error  { return validate.Struct(r) }
func (r *UpdateSlotRequest) Validate() error   { return validate.Struct(r) }
func (r *SignupRequest) Validate() error       { return validate.Struct(r) }
func (r *GradeRequest) Validate() error        { return validate.Struct(r) }
func (r *GradeUpdateRequest) Validate() error  { return validate.Struct(r) }
