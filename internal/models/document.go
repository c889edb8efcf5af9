package models

// Database is the whole persisted document. Every mutation loads it, edits it
// in memory and writes it back as one unit; Version is bumped by the store on
// each successful save.
type Database struct {
	Version int64    `json:"version"`
	Courses []Course `json:"courses"`
	Sheets  []Sheet  `json:"sheets"`
}

type Member struct {
	ID    string `json:"id"`
	First string `json:"first"`
	Last  string `json:"last"`
	Role  string `json:"role"`
}

type Course struct {
	Term    int      `json:"term"`
	Section int      `json:"section"`
	Name    string   `json:"course"`
	Members []Member `json:"members"`
}

func (c *Course) HasMember(memberID string) bool {
	for _, m := range c.Members {
		if m.ID == memberID {
			return true
		}
	}
	return false
}

func (c *Course) Member(memberID string) *Member {
	for i := range c.Members {
		if c.Members[i].ID == memberID {
			return &c.Members[i]
		}
	}
	return nil
}

type Sheet struct {
	ID         string `json:"id"`
	Term       int    `json:"term"`
	Section    int    `json:"section"`
	Course     string `json:"course"`
	Assignment string `json:"assignment"`
	NotBefore  int64  `json:"notBefore"`
	NotAfter   int64  `json:"notAfter"`
	Slots      []Slot `json:"slots"`
}

// Slot is a fixed time window within a sheet. Start is epoch millis,
// Duration is minutes.
type Slot struct {
	ID       string       `json:"id"`
	Start    int64        `json:"start"`
	Duration int          `json:"duration"`
	Capacity int          `json:"capacity"`
	Members  []Enrollment `json:"members"`
}

// End returns the exclusive end of the slot window in epoch millis.
func (s *Slot) End() int64 {
	return s.Start + int64(s.Duration)*60_000
}

// Overlaps reports whether [start, end) intersects this slot's window.
func (s *Slot) Overlaps(start, end int64) bool {
	return start < s.End() && end > s.Start
}

func (s *Slot) Enrollment(memberID string) *Enrollment {
	for i := range s.Members {
		if s.Members[i].MemberID == memberID {
			return &s.Members[i]
		}
	}
	return nil
}

// Enrollment is a member's occupied seat in a slot, carrying grading state.
// Comment accumulates newline-joined history; Audit keeps only the latest
// change.
type Enrollment struct {
	MemberID   string      `json:"memberId"`
	Grade      *int        `json:"grade"`
	Bonus      int         `json:"bonus"`
	Penalty    int         `json:"penalty"`
	FinalGrade *int        `json:"finalGrade"`
	Comment    string      `json:"comment"`
	GradedTime *int64      `json:"gradedTime"`
	Audit      *AuditEntry `json:"audit,omitempty"`
}

// AuditEntry is the single retained before/after snapshot of the last grading
// mutation. CommentAdded holds the raw comment submitted with that change,
// not the accumulated history.
type AuditEntry struct {
	Time         int64  `json:"time"`
	ChangedBy    string `json:"changedBy"`
	OldGrade     *int   `json:"oldGrade"`
	NewGrade     *int   `json:"newGrade"`
	OldBonus     int    `json:"oldBonus"`
	NewBonus     int    `json:"newBonus"`
	OldPenalty   int    `json:"oldPenalty"`
	NewPenalty   int    `json:"newPenalty"`
	CommentAdded string `json:"commentAdded"`
}

func (db *Database) FindCourse(term, section int) *Course {
	for i := range db.Courses {
		if db.Courses[i].Term == term && db.Courses[i].Section == section {
			return &db.Courses[i]
		}
	}
	return nil
}

func (db *Database) FindSheet(id string) *Sheet {
	for i := range db.Sheets {
		if db.Sheets[i].ID == id {
			return &db.Sheets[i]
		}
	}
	return nil
}

// FindSlot locates a slot anywhere in the document and returns its sheet and
// zero-based position within it.
func (db *Database) FindSlot(slotID string) (*Sheet, int, *Slot) {
	for i := range db.Sheets {
		sheet := &db.Sheets[i]
		for j := range sheet.Slots {
			if sheet.Slots[j].ID == slotID {
				return sheet, j, &sheet.Slots[j]
			}
		}
	}
	return nil, -1, nil
}

// SheetsFor returns all sheets belonging to a course section.
func (db *Database) SheetsFor(term, section int) []*Sheet {
	var out []*Sheet
	for i := range db.Sheets {
		if db.Sheets[i].Term == term && db.Sheets[i].Section == section {
			out = append(out, &db.Sheets[i])
		}
	}
	return out
}
