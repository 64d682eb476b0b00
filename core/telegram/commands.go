package telegram

import (
	"context"
	"log/slog"

	"github.com/m3rciful/librarybot/core/commands"
	"github.com/m3rciful/librarybot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// MenuCommands converts the visible vocabulary into the bot command menu.
func MenuCommands(reg *commands.Registry) []tele.Command {
	visible := reg.List(true)
	list := make([]tele.Command, 0, len(visible))
	for _, cmd := range visible {
		list = append(list, tele.Command{Text: string(cmd.Name), Description: cmd.Description})
	}
	return list
}

// SetupCommands publishes the command menu. A failure only loses the menu,
// so it is logged and not returned.
func SetupCommands(ctx context.Context, bot *tele.Bot, reg *commands.Registry) {
	list := MenuCommands(reg)
	err := bot.SetCommands(list)
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.Int("commands", len(list)),
	}
	if err != nil {
		attrs = append(attrs, slog.Any("err", err))
		logger.Warn(ctx, logger.CompTGWire, "commands.set", attrs...)
		return
	}
	logger.Info(ctx, logger.CompTGWire, "commands.set", attrs...)
}
