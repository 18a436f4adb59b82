package bot

import (
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/raine/copywriter-bot/internal/storage"
)

const historyListLimit = 10

// handleHistoryCommand lists the latest saved results with a button each.
func (b *Bot) handleHistoryCommand(session *UserSession) {
	entries, err := b.store.ListHistory(session.storeID(), historyListLimit)
	if err != nil {
		session.replyWithError(err)
		return
	}
	if len(entries) == 0 {
		session.reply(MsgHistoryEmpty)
		return
	}

	var sb strings.Builder
	sb.WriteString(MsgHistoryTitle)
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, e := range entries {
		label := e.Summary
		if label == "" {
			label = string(e.Mode)
		}
		sb.WriteString(fmt.Sprintf("%d. %s _(%s)_\n", i+1, escapeMarkdown(label), e.CreatedAt.Format("2006-01-02 15:04")))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d", i+1), "hist:"+e.ID),
			tgbotapi.NewInlineKeyboardButtonData(BtnHistoryDelete, "histdel:"+e.ID),
		))
	}

	msg := tgbotapi.NewMessage(session.userId, sb.String())
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	session.replyWithMessage(msg)
}

// handleHistoryCallback shows one saved result again.
func (b *Bot) handleHistoryCallback(session *UserSession, id string) {
	entry, err := b.store.GetHistory(session.storeID(), id)
	if errors.Is(err, storage.ErrNotFound) {
		session.reply(MsgHistoryNotFound)
		return
	}
	if err != nil {
		session.replyWithError(err)
		return
	}
	for _, text := range renderContent(entry.Content) {
		session.sendMarkdown(text)
	}
}

// handleHistoryDeleteCallback deletes a saved result.
func (b *Bot) handleHistoryDeleteCallback(session *UserSession, id string) {
	err := b.store.DeleteHistory(session.storeID(), id)
	if errors.Is(err, storage.ErrNotFound) {
		session.reply(MsgHistoryNotFound)
		return
	}
	if err != nil {
		session.replyWithError(err)
		return
	}
	session.reply(MsgHistoryDeleted)
}
