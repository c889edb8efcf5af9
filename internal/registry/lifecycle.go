// Package registry manages courses, their rosters and sheet lifecycle.
// Deletion-safety guards live here: a course with sheets, a sheet with
// sign-ups or a member with active sign-ups cannot be removed.
package registry

import (
	"strings"

	"github.com/shrimpsizemoose/kardemumma/internal/fault"
	"github.com/shrimpsizemoose/kardemumma/internal/models"
)

const (
	nameMaxLength = 200
	roleMaxLength = 10
	sheetIDLength = 8
)

func CreateCourse(db *models.Database, term, section int, name string) error {
	if db.FindCourse(term, section) != nil {
		return fault.Conflicting("Course term %d section %d already exists.", term, section)
	}
	db.Courses = append(db.Courses, models.Course{
		Term:    term,
		Section: section,
		Name:    name,
		Members: []models.Member{},
	})
	return nil
}

// CourseView is a course without its roster, for listings.
type CourseView struct {
	Term    int    `json:"term"`
	Section int    `json:"section"`
	Course  string `json:"course"`
}

func ListCourses(db *models.Database) []CourseView {
	out := make([]CourseView, 0, len(db.Courses))
	for _, c := range db.Courses {
		out = append(out, CourseView{Term: c.Term, Section: c.Section, Course: c.Name})
	}
	return out
}

// DeleteCourse refuses while any sheet references the course, regardless of
// slot or enrollment state.
func DeleteCourse(db *models.Database, term, section int) error {
	if len(db.SheetsFor(term, section)) > 0 {
		return fault.Blocked("Cannot delete course. Course has signup sheets.")
	}

	for i := range db.Courses {
		if db.Courses[i].Term == term && db.Courses[i].Section == section {
			db.Courses = append(db.Courses[:i], db.Courses[i+1:]...)
			return nil
		}
	}
	return fault.Missing("Course not found.")
}

// ModifyCourse renames or moves a course. While any sheet exists only the
// display name may change; otherwise term/section may move too, and all
// sheets are re-pointed in the same transaction.
func ModifyCourse(db *models.Database, term, section, newTerm, newSection int, newName string) error {
	course := db.FindCourse(term, section)
	if course == nil {
		return fault.Missing("Course not found.")
	}

	hasSheet := len(db.SheetsFor(term, section)) > 0
	if hasSheet {
		if newName == "" {
			return fault.Invalid("Name required.")
		}
		course.Name = newName
		for _, sheet := range db.SheetsFor(term, section) {
			sheet.Course = newName
		}
		return nil
	}

	moved := newTerm != term || newSection != section
	if moved && db.FindCourse(newTerm, newSection) != nil {
		return fault.Conflicting("Course with this term/section already exists.")
	}
	course.Term = newTerm
	course.Section = newSection
	if newName != "" {
		course.Name = newName
	}

	// no sheets exist by the guard above, but re-point for symmetry
	for _, sheet := range db.SheetsFor(term, section) {
		sheet.Term = newTerm
		sheet.Section = newSection
		sheet.Course = course.Name
	}
	return nil
}

// AddMembers bulk-adds roster records. Rows with a malformed id, missing
// fields or a duplicate id are reported back as ignored, never an error.
func AddMembers(db *models.Database, term, section int, list []models.Member) (added, ignored []string, err error) {
	course := db.FindCourse(term, section)
	if course == nil {
		return nil, nil, fault.Missing("Course not found.")
	}

	existing := make(map[string]bool, len(course.Members))
	for _, m := range course.Members {
		existing[m.ID] = true
	}

	added = []string{}
	ignored = []string{}
	for _, m := range list {
		id, ok := models.NormalizeMemberID(m.ID)
		first := models.CleanText(m.First, nameMaxLength)
		last := models.CleanText(m.Last, nameMaxLength)
		role := models.CleanText(m.Role, roleMaxLength)
		if !ok || first == "" || last == "" || role == "" {
			ignored = append(ignored, m.ID)
			continue
		}
		if existing[id] {
			ignored = append(ignored, id)
			continue
		}
		course.Members = append(course.Members, models.Member{ID: id, First: first, Last: last, Role: role})
		existing[id] = true
		added = append(added, id)
	}

	return added, ignored, nil
}

// ListMembers returns the roster, optionally filtered by role
// (case-insensitive).
func ListMembers(db *models.Database, term, section int, role string) ([]models.Member, error) {
	course := db.FindCourse(term, section)
	if course == nil {
		return nil, fault.Missing("Course not found.")
	}

	if role == "" {
		return course.Members, nil
	}

	r := strings.ToLower(role)
	out := []models.Member{}
	for _, m := range course.Members {
		if strings.ToLower(m.Role) == r {
			out = append(out, m)
		}
	}
	return out, nil
}

// DeleteMembers removes roster records, refusing the whole batch if any of
// the members still holds a sign-up anywhere in the course.
func DeleteMembers(db *models.Database, term, section int, ids []string) (int, error) {
	course := db.FindCourse(term, section)
	if course == nil {
		return 0, fault.Missing("Course not found.")
	}

	doomed := make(map[string]bool, len(ids))
	for _, id := range ids {
		doomed[id] = true
	}

	for _, sheet := range db.SheetsFor(term, section) {
		for i := range sheet.Slots {
			for _, e := range sheet.Slots[i].Members {
				if doomed[e.MemberID] {
					return 0, fault.Blocked("Member has active sign-ups. Deletion failed.")
				}
			}
		}
	}

	kept := course.Members[:0]
	for _, m := range course.Members {
		if !doomed[m.ID] {
			kept = append(kept, m)
		}
	}
	removed := len(course.Members) - len(kept)
	course.Members = kept

	return removed, nil
}

// CreateSheet creates a sign-up sheet for an existing course. The
// (term, section, assignment) triple is unique case-insensitively.
func CreateSheet(db *models.Database, req *models.CreateSheetRequest, assignment string) (string, error) {
	course := db.FindCourse(req.Term, req.Section)
	if course == nil {
		return "", fault.Missing("Course not found.")
	}

	for _, s := range db.Sheets {
		if s.Term == req.Term && s.Section == req.Section &&
			strings.EqualFold(s.Assignment, assignment) {
			return "", fault.Conflicting("Signup sheet with this assignment already exists.")
		}
	}

	id := models.NewID(sheetIDLength)
	db.Sheets = append(db.Sheets, models.Sheet{
		ID:         id,
		Term:       req.Term,
		Section:    req.Section,
		Course:     course.Name,
		Assignment: assignment,
		NotBefore:  req.NotBefore,
		NotAfter:   req.NotAfter,
		Slots:      []models.Slot{},
	})
	return id, nil
}

// DeleteSheet refuses while any slot holds any sign-up.
func DeleteSheet(db *models.Database, sheetID string) error {
	sheet := db.FindSheet(sheetID)
	if sheet == nil {
		return fault.Missing("Sheet not found.")
	}

	for i := range sheet.Slots {
		if len(sheet.Slots[i].Members) > 0 {
			return fault.Blocked("Cannot delete sheet. It has slots with sign-ups.")
		}
	}

	for i := range db.Sheets {
		if db.Sheets[i].ID == sheetID {
			db.Sheets = append(db.Sheets[:i], db.Sheets[i+1:]...)
			break
		}
	}
	return nil
}

func ListSheets(db *models.Database, term, section int) []models.Sheet {
	out := []models.Sheet{}
	for _, s := range db.Sheets {
		if s.Term == term && s.Section == section {
			out = append(out, s)
		}
	}
	return out
}
