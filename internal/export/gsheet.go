package export

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/shrimpsizemoose/kardemumma/internal/app"
	"github.com/shrimpsizemoose/kardemumma/internal/store"
)

// GSheetExporter pushes a sign-up sheet's grading state into a spreadsheet on
// a cron schedule, one row per enrollment in slot order.
type GSheetExporter struct {
	config        *app.Config
	store         store.DocStore
	scheduler     *gocron.Scheduler
	sheetsService *sheets.Service
}

func NewGSheetExporter(config *app.Config, docStore store.DocStore) (*GSheetExporter, error) {
	ctx := context.Background()
	scheduler := gocron.NewScheduler(time.UTC)

	for _, cfg := range config.GSheet {
		svc, err := sheets.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath))
		if err != nil {
			return nil, fmt.Errorf("failed to create sheets service: %w", err)
		}

		exporter := &GSheetExporter{
			config:        config,
			store:         docStore,
			scheduler:     scheduler,
			sheetsService: svc,
		}

		cfg := cfg
		_, err = scheduler.Cron(cfg.Schedule).Do(func() {
			if err := exporter.Export(&cfg); err != nil {
				fmt.Printf("Export failed: %v\n", err)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("failed to schedule export: %w", err)
		}
	}

	scheduler.StartAsync()
	return nil, nil
}

// Export writes one row per enrollment: slot number, slot start, member id,
// names, grade breakdown and the accumulated comment.
func (e *GSheetExporter) Export(cfg *app.GSheetConfig) error {
	db, err := e.store.Load()
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}

	sheet := db.FindSheet(cfg.SheetID)
	if sheet == nil {
		return fmt.Errorf("sheet %s not found in document", cfg.SheetID)
	}
	course := db.FindCourse(sheet.Term, sheet.Section)

	rows := [][]interface{}{
		{"slot", "start", "memberId", "first", "last", "grade", "bonus", "penalty", "final", "comment"},
	}
	for i := range sheet.Slots {
		slot := &sheet.Slots[i]
		start := time.UnixMilli(slot.Start).UTC().Format("2006-01-02 15:04")
		for _, m := range slot.Members {
			first, last := "", ""
			if course != nil {
				if member := course.Member(m.MemberID); member != nil {
					first, last = member.First, member.Last
				}
			}

			var grade, final interface{}
			if m.Grade != nil {
				grade = *m.Grade
			}
			if m.FinalGrade != nil {
				final = *m.FinalGrade
			}

			rows = append(rows, []interface{}{
				i + 1, start, m.MemberID, first, last, grade, m.Bonus, m.Penalty, final, m.Comment,
			})
		}
	}

	writeRange := fmt.Sprintf("%s!A1", cfg.SheetName)
	_, err = e.sheetsService.Spreadsheets.Values.Update(cfg.SpreadsheetID, writeRange,
		&sheets.ValueRange{Values: rows}).ValueInputOption("RAW").Do()
	if err != nil {
		return fmt.Errorf("failed to update spreadsheet: %w", err)
	}

	timestamp := fmt.Sprintf("UPD: %s", time.Now().UTC().Format("2 January 15:04"))
	tsRange := fmt.Sprintf("%s!L1", cfg.SheetName)
	_, err = e.sheetsService.Spreadsheets.Values.Update(cfg.SpreadsheetID, tsRange,
		&sheets.ValueRange{Values: [][]interface{}{{timestamp}}}).ValueInputOption("RAW").Do()

	return err
}
