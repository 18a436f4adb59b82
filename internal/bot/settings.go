package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/raine/copywriter-bot/internal/content"
	"github.com/raine/copywriter-bot/internal/storage"
)

// handleLanguageCommand handles /language. Language codes are stored as
// their English names.
func (b *Bot) handleLanguageCommand(session *UserSession, args string) {
	if strings.TrimSpace(args) == "" {
		session.reply(MsgLanguageUsage)
		return
	}
	language := content.NormalizeLanguage(args)
	if err := b.store.SetPreference(session.storeID(), storage.PrefLanguage, language); err != nil {
		session.replyWithError(err)
		return
	}
	session.reply(MsgLanguageSet, escapeMarkdown(language))
}

// handleToneCommand handles /tone. Without arguments it offers a keyboard.
func (b *Bot) handleToneCommand(session *UserSession, args string) {
	if strings.TrimSpace(args) == "" {
		msg := tgbotapi.NewMessage(session.userId, MsgToneChoose)
		msg.ReplyMarkup = makeToneKeyboard()
		session.replyWithMessage(msg)
		return
	}
	b.setTone(session, args)
}

func (b *Bot) handleToneCallback(session *UserSession, query *tgbotapi.CallbackQuery, value string) {
	if query.Message != nil {
		// Drop the keyboard so the choice cannot be pressed twice
		edit := tgbotapi.NewEditMessageText(session.userId, query.Message.MessageID, MsgToneChoose+" "+value)
		session.sender.Request(edit)
	}
	b.setTone(session, value)
}

func (b *Bot) setTone(session *UserSession, value string) {
	tone, ok := content.ParseTone(value)
	if !ok {
		session.reply(MsgToneInvalid, joinTones())
		return
	}
	if err := b.store.SetPreference(session.storeID(), storage.PrefTone, string(tone)); err != nil {
		session.replyWithError(err)
		return
	}
	session.reply(MsgToneSet, tone)
}

func makeToneKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(content.Tones); i += 2 {
		var row []tgbotapi.InlineKeyboardButton
		for _, tone := range content.Tones[i:min(i+2, len(content.Tones))] {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(string(tone), "tone:"+string(tone)))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func joinTones() string {
	names := make([]string, len(content.Tones))
	for i, t := range content.Tones {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func joinPlatforms() string {
	return strings.ReplaceAll(storage.FormatPlatforms(content.SocialPlatforms), ",", ", ")
}

func joinMarketplaces() string {
	names := make([]string, len(content.Marketplaces))
	for i, m := range content.Marketplaces {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// handlePlatformsCommand handles /platforms with a comma or space separated
// list of social platforms.
func (b *Bot) handlePlatformsCommand(session *UserSession, args string) {
	if strings.TrimSpace(args) == "" {
		session.reply(MsgPlatformsUsage, joinPlatforms())
		return
	}
	platforms, err := content.ParsePlatforms(args)
	if err != nil {
		session.reply(MsgPlatformsInvalid, escapeMarkdown(args), joinPlatforms())
		return
	}
	value := storage.FormatPlatforms(platforms)
	if err := b.store.SetPreference(session.storeID(), storage.PrefPlatforms, value); err != nil {
		session.replyWithError(err)
		return
	}
	session.reply(MsgPlatformsSet, strings.ReplaceAll(value, ",", ", "))
}

// handleMarketplaceCommand handles /marketplace <platform> <category...>.
func (b *Bot) handleMarketplaceCommand(session *UserSession, args []string) {
	if len(args) < 2 {
		session.reply(MsgMarketplaceUsage, joinMarketplaces())
		return
	}
	marketplace, ok := content.ParseMarketplace(args[0])
	if !ok {
		session.reply(MsgMarketplaceInvalid, joinMarketplaces())
		return
	}
	category := strings.Join(args[1:], " ")

	userID := session.storeID()
	if err := b.store.SetPreference(userID, storage.PrefMarketplace, string(marketplace)); err != nil {
		session.replyWithError(err)
		return
	}
	if err := b.store.SetPreference(userID, storage.PrefCategory, category); err != nil {
		session.replyWithError(err)
		return
	}
	session.reply(MsgMarketplaceSet, marketplace, escapeMarkdown(category))
}

// handleInfoCommand stores extra product details for the next generation.
// The details are not persisted.
func (b *Bot) handleInfoCommand(session *UserSession, args string) {
	args = strings.TrimSpace(args)
	if args == "" {
		if session.additionalInfo == "" {
			session.reply(MsgInfoUsage)
			return
		}
		session.additionalInfo = ""
		session.reply(MsgInfoCleared)
		return
	}
	session.additionalInfo = args
	session.reply(MsgInfoSet)
}

// handleSettingsCommand shows the effective generation settings.
func (b *Bot) handleSettingsCommand(session *UserSession) {
	prefs, err := b.store.GetPreferences(session.storeID())
	if err != nil {
		session.replyWithError(err)
		return
	}
	opts := storage.OptionsFromPreferences(session.storeID(), prefs)

	language := opts.Language
	if language == "" {
		language = DefaultLanguage
	}
	tone := string(opts.Tone)
	if tone == "" {
		tone = string(content.DefaultTone)
	}
	platforms := opts.Platforms
	if len(platforms) == 0 {
		platforms = defaultPlatforms
	}

	session.reply(MsgSettingsFmt,
		escapeMarkdown(language),
		tone,
		strings.ReplaceAll(storage.FormatPlatforms(platforms), ",", ", "),
		orNotSet(string(opts.Platform)),
		orNotSet(escapeMarkdown(opts.Category)),
		orNotSet(escapeMarkdown(session.additionalInfo)),
	)
}

func orNotSet(s string) string {
	if s == "" {
		return MsgNotSet
	}
	return s
}
