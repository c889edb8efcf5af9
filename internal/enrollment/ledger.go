// Package enrollment is the sign-up ledger: it decides who may take a seat in
// a slot and who may give one up.
package enrollment

import (
	"fmt"
	"time"

	"github.com/shrimpsizemoose/kardemumma/internal/fault"
	"github.com/shrimpsizemoose/kardemumma/internal/models"
)

// MembershipOracle answers whether a member belongs to a course section and
// enriches member ids with name fields. The ledger consumes it, it does not
// own course rosters.
type MembershipOracle interface {
	IsMember(term, section int, memberID string) bool
	LookupNames(term, section int, memberID string) (first, last string)
}

// DocOracle answers membership questions straight from the loaded document.
type DocOracle struct {
	DB *models.Database
}

func (o DocOracle) IsMember(term, section int, memberID string) bool {
	course := o.DB.FindCourse(term, section)
	return course != nil && course.HasMember(memberID)
}

// LookupNames returns empty strings when the member is unknown; read paths
// degrade to blank names instead of failing.
func (o DocOracle) LookupNames(term, section int, memberID string) (first, last string) {
	course := o.DB.FindCourse(term, section)
	if course == nil {
		return "", ""
	}
	m := course.Member(memberID)
	if m == nil {
		return "", ""
	}
	return m.First, m.Last
}

// Ledger applies sign-up and withdrawal rules. WithdrawLeadTime is the
// minimum gap between "now" and slot start for a withdrawal to be allowed.
type Ledger struct {
	WithdrawLeadTime time.Duration
}

// SignUp seats a member in a slot. The member must belong to the sheet's
// course, must not hold a seat in any slot of this sheet, and the slot must
// have room.
func (l *Ledger) SignUp(db *models.Database, oracle MembershipOracle, sheetID, slotID, memberID string) error {
	sheet := db.FindSheet(sheetID)
	if sheet == nil {
		return fault.Missing("Sheet not found.")
	}

	var slot *models.Slot
	for i := range sheet.Slots {
		if sheet.Slots[i].ID == slotID {
			slot = &sheet.Slots[i]
			break
		}
	}
	if slot == nil {
		return fault.Missing("Slot not found.")
	}

	if !oracle.IsMember(sheet.Term, sheet.Section, memberID) {
		return fault.Conflicting("Member not in course.")
	}

	for i := range sheet.Slots {
		if sheet.Slots[i].Enrollment(memberID) != nil {
			return fault.Conflicting("Member already signed up.")
		}
	}

	if len(slot.Members) >= slot.Capacity {
		return fault.Conflicting("Slot is full.")
	}

	slot.Members = append(slot.Members, models.Enrollment{
		MemberID: memberID,
		Comment:  "",
	})
	return nil
}

// Withdraw removes a member's sign-up from a sheet. If the slot starts within
// the lead-time window the whole operation fails, even though removal would
// otherwise be valid. All slots are scanned defensively although the
// one-per-sheet invariant means at most one can match.
func (l *Ledger) Withdraw(db *models.Database, sheetID, memberID string, now int64) error {
	sheet := db.FindSheet(sheetID)
	if sheet == nil {
		return fault.Missing("Sheet not found.")
	}

	removed := false
	for i := range sheet.Slots {
		slot := &sheet.Slots[i]
		if slot.Enrollment(memberID) == nil {
			continue
		}

		if slot.Start-now < l.WithdrawLeadTime.Milliseconds() {
			return fault.Unmet("Cannot leave. Slot starts in less than %s.", humanDuration(l.WithdrawLeadTime))
		}

		kept := slot.Members[:0]
		for _, m := range slot.Members {
			if m.MemberID != memberID {
				kept = append(kept, m)
			}
		}
		slot.Members = kept
		removed = true
	}

	if !removed {
		return fault.Conflicting("Member is not signed up for any slot in this sheet.")
	}
	return nil
}

// FindEnrollment scans a sheet's slots for a member's seat.
func FindEnrollment(sheet *models.Sheet, memberID string) (*models.Slot, *models.Enrollment) {
	for i := range sheet.Slots {
		if e := sheet.Slots[i].Enrollment(memberID); e != nil {
			return &sheet.Slots[i], e
		}
	}
	return nil, nil
}

func humanDuration(d time.Duration) string {
	if d%time.Hour == 0 {
		hours := int(d / time.Hour)
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	return fmt.Sprintf("%d minutes", int(d/time.Minute))
}
