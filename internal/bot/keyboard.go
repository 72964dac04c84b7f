package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/washweek/washweek/internal/schedule"
)

// Main-menu reply buttons.
const (
	btnReserve  = "🧺 رزرو"
	btnSchedule = "📅 نمایش روزها"
)

func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnReserve)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnSchedule)),
	)
	kb.ResizeKeyboard = true
	return kb
}

// dayKeyboard lists the seven days two per row, marking days with no
// free slot left.
func dayKeyboard(l schedule.Ledger) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, day := range schedule.DayLabels {
		mark := "🟢"
		if l.FreeSlots(day) == 0 {
			mark = "🔴"
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%s %s", day, mark),
			"day:"+day,
		))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// slotKeyboard lists the free slots of one day, one button per slot.
func slotKeyboard(day string, l schedule.Ledger) tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	for i, r := range l.Days[day] {
		if r != nil {
			continue
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("بازه %d", i+1),
			fmt.Sprintf("slot:%s:%d", day, i),
		))
	}
	if len(row) == 0 {
		return tgbotapi.NewInlineKeyboardMarkup()
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}
