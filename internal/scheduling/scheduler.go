// Package scheduling owns slot creation, update and deletion within a sheet.
// The hard rules live here: no two slots of a sheet may overlap under
// half-open interval semantics, and capacity can never drop below the current
// number of sign-ups.
package scheduling

import (
	"github.com/shrimpsizemoose/kardemumma/internal/fault"
	"github.com/shrimpsizemoose/kardemumma/internal/models"
)

const slotIDLength = 10

type timeRange struct {
	start int64
	end   int64
}

// SlotView is what a slot mutation reports back: the slot itself plus the
// ids of everyone signed up, without full enrollment detail.
type SlotView struct {
	ID        string   `json:"id"`
	Start     int64    `json:"start"`
	Duration  int      `json:"duration"`
	Capacity  int      `json:"capacity"`
	MemberIDs []string `json:"memberIds"`
}

// CreateSlots appends a batch of contiguous, equal-length slots to a sheet.
// Slot i starts at start + i*duration. The whole batch is checked against
// every existing slot before anything is added; a single overlap aborts with
// no partial creation.
func CreateSlots(db *models.Database, sheetID string, req *models.CreateSlotsRequest) ([]string, error) {
	sheet := db.FindSheet(sheetID)
	if sheet == nil {
		return nil, fault.Missing("Sheet not found.")
	}

	slotLengthMs := int64(req.Duration) * 60_000

	newRanges := make([]timeRange, 0, req.NumSlots)
	for i := 0; i < req.NumSlots; i++ {
		s := req.Start + int64(i)*slotLengthMs
		newRanges = append(newRanges, timeRange{start: s, end: s + slotLengthMs})
	}

	for _, nr := range newRanges {
		for i := range sheet.Slots {
			if sheet.Slots[i].Overlaps(nr.start, nr.end) {
				return nil, fault.Conflicting("Slot times overlap with existing slots.")
			}
		}
	}

	created := make([]string, 0, req.NumSlots)
	for _, nr := range newRanges {
		slot := models.Slot{
			ID:       models.NewID(slotIDLength),
			Start:    nr.start,
			Duration: req.Duration,
			Capacity: req.MaxMembers,
			Members:  []models.Enrollment{},
		}
		sheet.Slots = append(sheet.Slots, slot)
		created = append(created, slot.ID)
	}

	return created, nil
}

// UpdateSlot changes start/duration/capacity of one slot; absent fields keep
// their current values. The capacity-vs-signups check runs before the overlap
// check, both are hard constraints and either aborts with no side effects.
func UpdateSlot(db *models.Database, slotID string, req *models.UpdateSlotRequest) (*SlotView, error) {
	sheet, _, slot := db.FindSlot(slotID)
	if slot == nil {
		return nil, fault.Missing("Slot not found.")
	}

	newStart := slot.Start
	if req.Start != nil {
		newStart = *req.Start
	}
	newDuration := slot.Duration
	if req.Duration != nil {
		newDuration = *req.Duration
	}
	newCapacity := slot.Capacity
	if req.Capacity != nil {
		newCapacity = *req.Capacity
	}

	if newDuration < 1 {
		return nil, fault.Invalid("Invalid duration.")
	}
	if newCapacity < 1 {
		return nil, fault.Invalid("Invalid capacity.")
	}

	if newCapacity < len(slot.Members) {
		return nil, fault.Unmet("Capacity too small. This slot has %d sign-ups.", len(slot.Members))
	}

	newEnd := newStart + int64(newDuration)*60_000
	for i := range sheet.Slots {
		other := &sheet.Slots[i]
		if other.ID == slot.ID {
			continue
		}
		if other.Overlaps(newStart, newEnd) {
			return nil, fault.Conflicting("New slot time overlaps with another slot.")
		}
	}

	slot.Start = newStart
	slot.Duration = newDuration
	slot.Capacity = newCapacity

	memberIDs := make([]string, 0, len(slot.Members))
	for _, m := range slot.Members {
		memberIDs = append(memberIDs, m.MemberID)
	}

	return &SlotView{
		ID:        slot.ID,
		Start:     slot.Start,
		Duration:  slot.Duration,
		Capacity:  slot.Capacity,
		MemberIDs: memberIDs,
	}, nil
}

// DeleteSlot removes an empty slot. Any existing sign-up blocks the delete.
func DeleteSlot(db *models.Database, slotID string) error {
	sheet, idx, slot := db.FindSlot(slotID)
	if slot == nil {
		return fault.Missing("Slot not found.")
	}

	if len(slot.Members) > 0 {
		return fault.Blocked("Cannot delete slot. It has existing sign-ups.")
	}

	sheet.Slots = append(sheet.Slots[:idx], sheet.Slots[idx+1:]...)
	return nil
}
