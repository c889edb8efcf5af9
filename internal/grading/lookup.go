package grading

import (
	"strings"

	"github.com/shrimpsizemoose/kardemumma/internal/enrollment"
	"github.com/shrimpsizemoose/kardemumma/internal/fault"
	"github.com/shrimpsizemoose/kardemumma/internal/models"
)

// MemberView is an enrollment enriched with the member's name fields.
type MemberView struct {
	MemberID   string             `json:"memberId"`
	First      string             `json:"first"`
	Last       string             `json:"last"`
	Grade      *int               `json:"grade"`
	FinalGrade *int               `json:"finalGrade"`
	Bonus      int                `json:"bonus"`
	Penalty    int                `json:"penalty"`
	Comment    string             `json:"comment"`
	GradedTime *int64             `json:"gradedTime"`
	Audit      *models.AuditEntry `json:"audit"`
}

// SlotDetails describes one slot in grading context: its position within the
// sheet (1-based) and the enriched roster.
type SlotDetails struct {
	SheetID    string       `json:"sheetId"`
	Assignment string       `json:"assignment"`
	SlotID     string       `json:"slotId"`
	SlotNumber int          `json:"slotNumber"`
	SlotStart  int64        `json:"slotStart"`
	SlotEnd    int64        `json:"slotEnd"`
	Duration   int          `json:"duration"`
	Members    []MemberView `json:"members"`
}

// ActiveSlot walks every course, its sheets and their slots in order and
// returns the first slot whose window contains now (inclusive on both ends).
func ActiveSlot(db *models.Database, now int64) (*SlotDetails, error) {
	oracle := enrollment.DocOracle{DB: db}

	for i := range db.Courses {
		course := &db.Courses[i]
		for j := range db.Sheets {
			sheet := &db.Sheets[j]
			if sheet.Term != course.Term || sheet.Section != course.Section {
				continue
			}
			if !strings.EqualFold(sheet.Course, course.Name) {
				continue
			}

			for k := range sheet.Slots {
				slot := &sheet.Slots[k]
				if now >= slot.Start && now <= slot.End() {
					return slotDetails(sheet, k, oracle), nil
				}
			}
		}
	}

	return nil, fault.Missing("No active slot at this time.")
}

// AdjacentSlot returns the slot immediately after (direction > 0) or before
// (direction < 0) the given one in sheet order.
func AdjacentSlot(db *models.Database, slotID string, direction int) (*SlotDetails, error) {
	sheet, idx, slot := db.FindSlot(slotID)
	if slot == nil {
		return nil, fault.Missing("Slot not found.")
	}

	target := idx + direction
	if target >= len(sheet.Slots) {
		return nil, fault.Missing("No next slot.")
	}
	if target < 0 {
		return nil, fault.Missing("No previous slot.")
	}

	oracle := enrollment.DocOracle{DB: db}
	return slotDetails(sheet, target, oracle), nil
}

func slotDetails(sheet *models.Sheet, idx int, oracle enrollment.MembershipOracle) *SlotDetails {
	slot := &sheet.Slots[idx]

	members := make([]MemberView, 0, len(slot.Members))
	for _, m := range slot.Members {
		first, last := oracle.LookupNames(sheet.Term, sheet.Section, m.MemberID)
		members = append(members, MemberView{
			MemberID:   m.MemberID,
			First:      first,
			Last:       last,
			Grade:      m.Grade,
			FinalGrade: m.FinalGrade,
			Bonus:      m.Bonus,
			Penalty:    m.Penalty,
			Comment:    m.Comment,
			GradedTime: m.GradedTime,
			Audit:      m.Audit,
		})
	}

	return &SlotDetails{
		SheetID:    sheet.ID,
		Assignment: sheet.Assignment,
		SlotID:     slot.ID,
		SlotNumber: idx + 1,
		SlotStart:  slot.Start,
		SlotEnd:    slot.End(),
		Duration:   slot.Duration,
		Members:    members,
	}
}
