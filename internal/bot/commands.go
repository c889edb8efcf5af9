package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/kardemumma/internal/fault"
	"github.com/shrimpsizemoose/kardemumma/internal/grading"
	"github.com/shrimpsizemoose/kardemumma/internal/models"
)

const (
	studentHelp = `Доступные команды:
/token <memberId> - Получить токен для доступа к API
/help - Показать это сообщение`

	adminHelp = `Доступные команды:
/token <memberId> - Получить токен для доступа к API
/active - Показать текущий активный слот
/slots <sheetId> - Список слотов листа записи
/roster <slotId> - Кто записан в слот
/help - Показать это сообщение

Примеры:
/token AB12CD34
/slots x1Yz9QwE
/roster p0Oi8UzTrQ`
)

type commandHandler func(*tgbotapi.Message) error

func (b *Bot) routeStudentCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"start": b.handleStart,
		"token": b.handleToken,
		"help":  b.handleHelp,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (b *Bot) routeAdminCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"active": b.handleActive,
		"slots":  b.handleSlots,
		"roster": b.handleRoster,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		b.sendHelp(msg.Chat.ID)
		return
	}

	cmd := msg.Command()

	if handler, ok := b.routeStudentCommands(cmd); ok {
		if err := handler(msg); err != nil {
			logger.Error.Printf("Command error: %v", err)
			b.sendMessage(msg.Chat.ID, fmt.Sprintf("Error: %v", err))
		}
		return
	}

	if b.admins[msg.From.ID] {
		if handler, ok := b.routeAdminCommands(cmd); ok {
			if err := handler(msg); err != nil {
				logger.Error.Printf("Command error: %v", err)
				b.sendMessage(msg.Chat.ID, fmt.Sprintf("Error: %v", err))
			}
		}
		return
	}

	b.sendHelp(msg.Chat.ID)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	var text string
	if b.admins[msg.From.ID] {
		text = adminHelp
	} else {
		text = studentHelp
	}

	return b.sendMessage(msg.Chat.ID, text)
}

func (b *Bot) sendHelp(chatID int64) error {
	return b.sendMessage(chatID, "Используйте команды для взаимодействия с ботом. Отправьте /help для списка команд.")
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	text := "Привет! Я помогу тебе с записью на слоты.\n\n"
	if b.admins[msg.From.ID] {
		text += "Ты администратор курса. Используй /help для списка команд."
	} else {
		text += "Используй /token <memberId> чтобы получить токен."
	}

	return b.sendMessage(msg.Chat.ID, text)
}

func (b *Bot) handleToken(msg *tgbotapi.Message) error {
	raw := strings.TrimSpace(msg.CommandArguments())
	memberID, ok := models.NormalizeMemberID(raw)
	if !ok {
		return fmt.Errorf("нужен memberId из 8 символов: /token AB12CD34")
	}

	role := "student"
	if b.admins[msg.From.ID] {
		role = "grader"
	}

	info, isNew, err := b.tokens.FetchOrCreateMemberToken(context.Background(), memberID, role)
	if err != nil {
		return fmt.Errorf("ошибка выдачи токена: %v", err)
	}

	action := "уже существует"
	if isNew {
		action = "создан"
	}

	return b.sendMessage(msg.Chat.ID, fmt.Sprintf(
		"Токен для %s %s:\n%s\nРоль: %s",
		memberID,
		action,
		info.Token,
		info.Role,
	))
}

func (b *Bot) handleActive(msg *tgbotapi.Message) error {
	db, err := b.store.Load()
	if err != nil {
		return fmt.Errorf("ошибка чтения документа: %v", err)
	}

	details, err := grading.ActiveSlot(db, time.Now().UnixMilli())
	if err != nil {
		if fault.IsDomain(err) {
			return b.sendMessage(msg.Chat.ID, "Сейчас нет активного слота")
		}
		return err
	}

	var out strings.Builder
	out.WriteString(fmt.Sprintf("🎯 Активный слот №%d (%s)\n", details.SlotNumber, details.Assignment))
	out.WriteString(fmt.Sprintf("🕒 %s — %s\n\n",
		time.UnixMilli(details.SlotStart).UTC().Format("2006-01-02 15:04"),
		time.UnixMilli(details.SlotEnd).UTC().Format("15:04"),
	))
	if len(details.Members) == 0 {
		out.WriteString("Записавшихся нет")
	}
	for _, m := range details.Members {
		out.WriteString(fmt.Sprintf("👤 %s %s (%s)", m.First, m.Last, m.MemberID))
		if m.FinalGrade != nil {
			out.WriteString(fmt.Sprintf(" — %d", *m.FinalGrade))
		}
		out.WriteString("\n")
	}

	return b.sendMessage(msg.Chat.ID, out.String())
}

func (b *Bot) handleSlots(msg *tgbotapi.Message) error {
	sheetID := strings.TrimSpace(msg.CommandArguments())
	if sheetID == "" {
		return fmt.Errorf("укажи лист: /slots <sheetId>")
	}

	db, err := b.store.Load()
	if err != nil {
		return fmt.Errorf("ошибка чтения документа: %v", err)
	}

	sheet := db.FindSheet(sheetID)
	if sheet == nil {
		return b.sendMessage(msg.Chat.ID, "Лист записи не найден")
	}

	if len(sheet.Slots) == 0 {
		return b.sendMessage(msg.Chat.ID, "Слотов пока нет")
	}

	var out strings.Builder
	out.WriteString(fmt.Sprintf("Слоты листа %s (%s):\n\n", sheet.Assignment, sheet.ID))
	for i := range sheet.Slots {
		slot := &sheet.Slots[i]
		out.WriteString(fmt.Sprintf("📅 №%d %s (%d мин), занято %d/%d\n%s\n\n",
			i+1,
			time.UnixMilli(slot.Start).UTC().Format("2006-Jan-02 Mon 15:04"),
			slot.Duration,
			len(slot.Members),
			slot.Capacity,
			slot.ID,
		))
	}

	return b.sendMessage(msg.Chat.ID, out.String())
}

func (b *Bot) handleRoster(msg *tgbotapi.Message) error {
	slotID := strings.TrimSpace(msg.CommandArguments())
	if slotID == "" {
		return fmt.Errorf("укажи слот: /roster <slotId>")
	}

	db, err := b.store.Load()
	if err != nil {
		return fmt.Errorf("ошибка чтения документа: %v", err)
	}

	sheet, idx, slot := db.FindSlot(slotID)
	if slot == nil {
		return b.sendMessage(msg.Chat.ID, "Слот не найден")
	}

	if len(slot.Members) == 0 {
		return b.sendMessage(msg.Chat.ID, "В этом слоте никого нет")
	}

	course := db.FindCourse(sheet.Term, sheet.Section)

	var out strings.Builder
	out.WriteString(fmt.Sprintf("Слот №%d листа %s:\n\n", idx+1, sheet.Assignment))
	for _, e := range slot.Members {
		first, last := "", ""
		if course != nil {
			if m := course.Member(e.MemberID); m != nil {
				first, last = m.First, m.Last
			}
		}
		out.WriteString(fmt.Sprintf("👤 %s %s (%s)", first, last, e.MemberID))
		if e.FinalGrade != nil {
			out.WriteString(fmt.Sprintf(" — итог %d", *e.FinalGrade))
		}
		out.WriteString("\n")
	}

	return b.sendMessage(msg.Chat.ID, out.String())
}

func (b *Bot) sendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.api.Send(msg)
	return err
}
