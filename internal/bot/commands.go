package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// menuEntry is one line of the Telegram command menu.
type menuEntry struct {
	command   string
	hint      string
	adminOnly bool
}

var menu = []menuEntry{
	{command: "start", hint: "How to use the bot"},
	{command: "language", hint: "Set the output language"},
	{command: "tone", hint: "Choose the brand voice"},
	{command: "platforms", hint: "Choose social platforms"},
	{command: "marketplace", hint: "Set marketplace and category"},
	{command: "info", hint: "Add details about the product"},
	{command: "settings", hint: "Show current settings"},
	{command: "history", hint: "Show recent results"},
	{command: "cancel", hint: "Stop the current generation"},
	{command: "version", hint: "Show version info"},
	{command: "admin", hint: "Manage who can use the bot", adminOnly: true},
}

func menuCommands(includeAdmin bool) []tgbotapi.BotCommand {
	var out []tgbotapi.BotCommand
	for _, e := range menu {
		if e.adminOnly && !includeAdmin {
			continue
		}
		out = append(out, tgbotapi.BotCommand{Command: e.command, Description: e.hint})
	}
	return out
}

// RegisterCommands publishes the command menu. The admin's private chat gets
// the admin entries on top of the default menu. Failures are logged only; the
// bot works without a menu.
func RegisterCommands(tg BotAPI, adminID int64) {
	requests := []tgbotapi.SetMyCommandsConfig{tgbotapi.NewSetMyCommands(menuCommands(false)...)}
	if adminID != 0 {
		requests = append(requests, tgbotapi.NewSetMyCommandsWithScope(
			tgbotapi.NewBotCommandScopeChat(adminID), menuCommands(true)...))
	}

	for _, req := range requests {
		if _, err := tg.Request(req); err != nil {
			log.Error().Err(err).Msg("failed to set bot commands")
			return
		}
	}
	log.Info().Int("scopes", len(requests)).Msg("registered bot commands")
}
