// Package keyboard builds reply keyboards for the Telegram transport.
package keyboard

import (
	"github.com/m3rciful/librarybot/core/commands"

	tele "gopkg.in/telebot.v4"
)

// RemoveKeyboard returns a markup that hides the keyboard.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// ReplyButtons builds a reply keyboard from rows of text.
func ReplyButtons(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	keyboard := make([]tele.Row, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tele.Btn, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, markup.Text(label))
		}
		keyboard = append(keyboard, markup.Row(buttons...))
	}
	markup.Reply(keyboard...)
	return markup
}

// CommandRows lays out the visible commands of reg as "/name" labels,
// perRow buttons per row. Pressing a button sends the command text.
func CommandRows(reg *commands.Registry, perRow int) [][]string {
	if perRow <= 0 {
		perRow = 2
	}
	var (
		rows [][]string
		row  []string
	)
	for _, cmd := range reg.List(true) {
		row = append(row, "/"+string(cmd.Name))
		if len(row) == perRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}

// Commands returns a reply keyboard with the visible commands of reg.
func Commands(reg *commands.Registry) *tele.ReplyMarkup {
	rows := CommandRows(reg, 2)
	if len(rows) == 0 {
		return nil
	}
	return ReplyButtons(rows...)
}
