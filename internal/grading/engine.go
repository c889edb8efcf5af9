// Package grading applies grade/bonus/penalty/comment changes to an
// enrollment, derives the final grade and keeps the audit trail: comments are
// append-only history, the audit entry retains only the latest change.
package grading

import (
	"github.com/shrimpsizemoose/kardemumma/internal/enrollment"
	"github.com/shrimpsizemoose/kardemumma/internal/fault"
	"github.com/shrimpsizemoose/kardemumma/internal/models"
)

const commentMaxLength = 500

// Limits bound grading inputs. Bonus/penalty use the canonical range; the
// legacy endpoint parses wider historical bounds and clamps before storage.
type Limits struct {
	GradeMin       int
	GradeMax       int
	BonusMin       int
	BonusMax       int
	LegacyBonusMin int
	LegacyBonusMax int
}

func DefaultLimits() Limits {
	return Limits{
		GradeMin:       0,
		GradeMax:       999,
		BonusMin:       -50,
		BonusMax:       50,
		LegacyBonusMin: -999,
		LegacyBonusMax: 999,
	}
}

type Engine struct {
	Limits Limits
}

// Result is the grading state reported back after a successful update.
type Result struct {
	MemberID   string             `json:"memberId"`
	Grade      *int               `json:"grade"`
	Bonus      int                `json:"bonus"`
	Penalty    int                `json:"penalty"`
	FinalGrade int                `json:"finalGrade"`
	Comment    string             `json:"comment"`
	GradedTime int64              `json:"gradedTime"`
	Audit      *models.AuditEntry `json:"audit"`
}

// ApplyUpdate handles the unified grading endpoint. Provided fields are
// range-checked independently; a change to grade, bonus or penalty that
// differs from stored values is material and demands a non-empty comment
// before anything mutates. Exactly one audit entry is written, replacing any
// prior one.
func (g *Engine) ApplyUpdate(db *models.Database, req *models.GradeUpdateRequest, actor string, now int64) (*Result, error) {
	sheet := db.FindSheet(req.SheetID)
	if sheet == nil {
		return nil, fault.Missing("Sheet not found.")
	}

	_, e := enrollment.FindEnrollment(sheet, req.MemberID)
	if e == nil {
		return nil, fault.Missing("Member not signed up.")
	}

	newGrade := e.Grade
	if req.Grade != nil {
		if *req.Grade < g.Limits.GradeMin || *req.Grade > g.Limits.GradeMax {
			return nil, fault.Invalid("Invalid grade.")
		}
		v := *req.Grade
		newGrade = &v
	}

	newBonus := e.Bonus
	if req.Bonus != nil {
		if *req.Bonus < g.Limits.BonusMin || *req.Bonus > g.Limits.BonusMax {
			return nil, fault.Invalid("Invalid bonus.")
		}
		newBonus = *req.Bonus
	}

	newPenalty := e.Penalty
	if req.Penalty != nil {
		if *req.Penalty < g.Limits.BonusMin || *req.Penalty > g.Limits.BonusMax {
			return nil, fault.Invalid("Invalid penalty.")
		}
		newPenalty = *req.Penalty
	}

	var rawComment, cleanComment string
	if req.Comment != nil {
		rawComment = *req.Comment
		cleanComment = models.CleanText(rawComment, commentMaxLength)
	}

	material := !sameGrade(e.Grade, newGrade) || e.Bonus != newBonus || e.Penalty != newPenalty
	if material && cleanComment == "" {
		return nil, fault.Unmet("A comment is required when modifying a grade.")
	}

	audit := &models.AuditEntry{
		Time:         now,
		ChangedBy:    actor,
		OldGrade:     e.Grade,
		OldBonus:     e.Bonus,
		OldPenalty:   e.Penalty,
		NewGrade:     newGrade,
		NewBonus:     newBonus,
		NewPenalty:   newPenalty,
		CommentAdded: rawComment,
	}

	e.Grade = newGrade
	e.Bonus = newBonus
	e.Penalty = newPenalty
	appendComment(e, cleanComment)

	base := 0
	if e.Grade != nil {
		base = *e.Grade
	}
	final := base + e.Bonus - e.Penalty
	e.FinalGrade = &final
	e.GradedTime = &now
	e.Audit = audit

	return &Result{
		MemberID:   req.MemberID,
		Grade:      e.Grade,
		Bonus:      e.Bonus,
		Penalty:    e.Penalty,
		FinalGrade: final,
		Comment:    e.Comment,
		GradedTime: now,
		Audit:      audit,
	}, nil
}

// ApplyLegacy handles the historical single-shot grading endpoint: grade is
// mandatory and bonus/penalty default to zero when absent. Parse bounds are
// the wide historical ones, stored values are clamped to the canonical range.
func (g *Engine) ApplyLegacy(db *models.Database, req *models.GradeRequest, actor string, now int64) (*Result, error) {
	if *req.Grade < g.Limits.GradeMin || *req.Grade > g.Limits.GradeMax {
		return nil, fault.Invalid("Invalid grade parameters.")
	}

	bonus := 0
	if req.Bonus != nil {
		if *req.Bonus < g.Limits.LegacyBonusMin || *req.Bonus > g.Limits.LegacyBonusMax {
			return nil, fault.Invalid("Invalid grade parameters.")
		}
		bonus = clamp(*req.Bonus, g.Limits.BonusMin, g.Limits.BonusMax)
	}
	penalty := 0
	if req.Penalty != nil {
		if *req.Penalty < g.Limits.LegacyBonusMin || *req.Penalty > g.Limits.LegacyBonusMax {
			return nil, fault.Invalid("Invalid grade parameters.")
		}
		penalty = clamp(*req.Penalty, g.Limits.BonusMin, g.Limits.BonusMax)
	}

	sheet := db.FindSheet(req.SheetID)
	if sheet == nil {
		return nil, fault.Missing("Sheet not found.")
	}
	_, e := enrollment.FindEnrollment(sheet, req.MemberID)
	if e == nil {
		return nil, fault.Missing("Member not signed up.")
	}

	grade := *req.Grade
	cleanComment := models.CleanText(req.Comment, commentMaxLength)

	changed := e.Grade == nil || *e.Grade != grade || e.Bonus != bonus || e.Penalty != penalty
	if changed && cleanComment == "" {
		return nil, fault.Unmet("A comment is required when modifying a grade.")
	}

	audit := &models.AuditEntry{
		Time:         now,
		ChangedBy:    actor,
		OldGrade:     e.Grade,
		OldBonus:     e.Bonus,
		OldPenalty:   e.Penalty,
		NewGrade:     &grade,
		NewBonus:     bonus,
		NewPenalty:   penalty,
		CommentAdded: req.Comment,
	}

	e.Grade = &grade
	e.Bonus = bonus
	e.Penalty = penalty
	appendComment(e, cleanComment)

	final := grade + bonus - penalty
	e.FinalGrade = &final
	e.GradedTime = &now
	e.Audit = audit

	return &Result{
		MemberID:   req.MemberID,
		Grade:      e.Grade,
		Bonus:      e.Bonus,
		Penalty:    e.Penalty,
		FinalGrade: final,
		Comment:    e.Comment,
		GradedTime: now,
		Audit:      audit,
	}, nil
}

func appendComment(e *models.Enrollment, clean string) {
	if clean == "" {
		return
	}
	if e.Comment == "" {
		e.Comment = clean
		return
	}
	e.Comment = e.Comment + "\n" + clean
}

func sameGrade(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
