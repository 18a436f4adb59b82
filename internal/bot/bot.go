package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/raine/copywriter-bot/internal/content"
	"github.com/raine/copywriter-bot/internal/generator"
	handoff "github.com/raine/copywriter-bot/internal/session"
	"github.com/raine/copywriter-bot/internal/storage"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// BotAPI is the subset of tgbotapi.BotAPI the bot uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Generator runs the image-to-copy pipeline.
type Generator interface {
	GenerateWithProgress(ctx context.Context, img *content.UploadedImage, opts content.GenerationOptions, onState generator.StateFunc) (*content.GeneratedContent, error)
}

// Bot routes Telegram updates to per-user sessions.
type Bot struct {
	tg        BotAPI
	sessions  *sessionRegistry
	store     storage.Store
	generator Generator
	photos    *photoFetcher
	slots     *handoff.Slots
	runs      *handoff.Runs
	adminID   int64
}

// NewBot creates a new Bot instance. Slots and runs may be shared with
// other front ends; nil values get private instances.
func NewBot(tg BotAPI, store storage.Store, gen Generator, slots *handoff.Slots, runs *handoff.Runs, adminID int64) *Bot {
	if slots == nil {
		slots = handoff.NewSlots()
	}
	if runs == nil {
		runs = handoff.NewRuns()
	}
	bot := &Bot{
		tg:        tg,
		store:     store,
		generator: gen,
		photos:    newPhotoFetcher(content.MaxImageBytes),
		slots:     slots,
		runs:      runs,
		adminID:   adminID,
	}
	bot.sessions = newSessionRegistry(tg, bot)
	return bot
}

// Shutdown stops every session worker. In-flight generations are cancelled
// through their session contexts.
func (b *Bot) Shutdown() {
	b.sessions.stopAll()
}

// HandleUpdate queues a Telegram update on its sender's session. Updates from
// users outside the access list are dropped without a reply.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if session, msg, ok := b.route(ctx, update); ok {
		session.Post(msg)
	}
}

// handleUpdateSync is HandleUpdate that returns once the update is handled.
func (b *Bot) handleUpdateSync(ctx context.Context, update tgbotapi.Update) {
	if session, msg, ok := b.route(ctx, update); ok {
		session.PostAndWait(msg)
	}
}

func senderID(update tgbotapi.Update) (int64, bool) {
	switch {
	case update.CallbackQuery != nil:
		return update.CallbackQuery.From.ID, true
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID, true
	}
	return 0, false
}

// admits reports whether userId may use the bot. Lookup errors deny.
func (b *Bot) admits(userId int64) bool {
	if userId == b.adminID {
		return true
	}
	ok, err := b.store.IsUserAllowed(userId)
	if err != nil {
		log.Error().Err(err).Int64("userId", userId).Msg("access list lookup failed")
		return false
	}
	return ok
}

// route turns an update into a session message. The access check comes
// before the session lookup so unknown users never get a worker.
func (b *Bot) route(ctx context.Context, update tgbotapi.Update) (*UserSession, SessionMessage, bool) {
	userId, ok := senderID(update)
	if !ok || !b.admits(userId) {
		return nil, SessionMessage{}, false
	}

	msg := SessionMessage{Ctx: ctx}
	switch m := update.Message; {
	case update.CallbackQuery != nil:
		msg.Kind, msg.CallbackQuery = KindCallback, update.CallbackQuery
	case len(m.Photo) > 0 || isImageDocument(m.Document):
		msg.Kind, msg.Message = KindPhoto, m
	default:
		msg.Kind, msg.Message, msg.Text = KindText, m, m.Text
	}
	log.Debug().Int64("userId", userId).Str("kind", string(msg.Kind)).Msg("update received")

	return b.sessions.get(userId), msg, true
}

func isImageDocument(doc *tgbotapi.Document) bool {
	return doc != nil && strings.HasPrefix(doc.MimeType, "image/")
}

// HandleSessionMessage runs on the session's worker goroutine.
func (b *Bot) HandleSessionMessage(ctx context.Context, session *UserSession, msg SessionMessage) {
	switch msg.Kind {
	case KindCallback:
		b.handleCallbackQuery(ctx, session, msg.CallbackQuery)
	case KindPhoto:
		b.handlePhotoMessage(ctx, session, msg.Message)
	case KindText:
		b.handleCommand(ctx, session, msg.Text)
	case KindProgress:
		b.handleGenerationProgress(session, msg.Run, msg.State)
	case KindResult:
		b.handleGenerationComplete(session, msg.Run, msg.Result)
	}
}

// handlePhotoMessage downloads the photo, stages it in the user's image slot
// and asks what to generate. A newer photo replaces a staged one.
func (b *Bot) handlePhotoMessage(ctx context.Context, session *UserSession, message *tgbotapi.Message) {
	fileID := largestPhotoFileID(message)

	img, err := b.photos.FetchTelegramPhoto(ctx, b.tg.GetFileDirectURL, fileID)
	if err != nil {
		log.Error().Err(err).Int64("userId", session.userId).Str("fileID", fileID).Msg("photo download failed")
		switch {
		case errors.Is(err, ErrImageTooLarge):
			session.reply(MsgImageTooLarge)
		case errors.Is(err, content.ErrValidation):
			session.reply(MsgNotAnImage)
		default:
			session.reply(MsgDownloadFailed)
		}
		return
	}

	if caption := strings.TrimSpace(message.Caption); caption != "" {
		session.additionalInfo = caption
	}

	if prev := b.slots.Put(session.storeID(), img); prev != nil {
		log.Debug().Int64("userId", session.userId).Str("replaced", prev.Preview).Msg("replaced staged image")
	}

	msg := tgbotapi.NewMessage(session.userId, MsgChooseMode)
	msg.ReplyMarkup = makeModeKeyboard()
	session.replyWithMessage(msg)
}

func largestPhotoFileID(message *tgbotapi.Message) string {
	if message.Document != nil && len(message.Photo) == 0 {
		return message.Document.FileID
	}
	// Telegram orders photo sizes from smallest to largest
	return message.Photo[len(message.Photo)-1].FileID
}

func makeModeKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(BtnSocial, "mode:social")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(BtnMarketplace, "mode:marketplace")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(BtnAnalysisOnly, "mode:analysis")),
	)
}

// handleCommand processes bot commands.
func (b *Bot) handleCommand(ctx context.Context, session *UserSession, text string) {
	command, args := parseCommand(text)
	argsStr := strings.Join(args, " ")
	switch command {
	case "/start", "/help":
		session.reply(MsgStartPrompt)
	case "/language":
		b.handleLanguageCommand(session, argsStr)
	case "/tone":
		b.handleToneCommand(session, argsStr)
	case "/platforms":
		b.handlePlatformsCommand(session, argsStr)
	case "/marketplace":
		b.handleMarketplaceCommand(session, args)
	case "/info":
		b.handleInfoCommand(session, argsStr)
	case "/settings":
		b.handleSettingsCommand(session)
	case "/history":
		b.handleHistoryCommand(session)
	case "/cancel":
		b.handleCancelCommand(session)
	case "/admin":
		b.handleAdminCommand(session, argsStr)
	case "/version":
		session.reply(MsgVersionInfo, Version, BuildTime)
	default:
		if !strings.HasPrefix(text, "/") {
			session.reply(MsgSendPhotoFirst)
			return
		}
		session.reply(MsgStartPrompt)
	}
}

// handleCancelCommand stops the running generation and drops the staged image.
func (b *Bot) handleCancelCommand(session *UserSession) {
	cancelled := b.runs.Cancel(session.storeID())
	_, staged := b.slots.Take(session.storeID())
	if !cancelled && !staged {
		session.reply(MsgNothingToCancel)
		return
	}
	if cancelled {
		session.editStatus(MsgCancelled)
		session.statusMsgID = 0
	}
	session.reply(MsgCancelled)
}

// handleCallbackQuery handles inline keyboard button presses.
func (b *Bot) handleCallbackQuery(ctx context.Context, session *UserSession, query *tgbotapi.CallbackQuery) {
	// Answer the callback to remove the loading state
	callback := tgbotapi.NewCallback(query.ID, "")
	if _, err := b.tg.Request(callback); err != nil {
		log.Debug().Err(err).Msg("failed to answer callback")
	}

	prefix, value, _ := strings.Cut(query.Data, ":")
	switch prefix {
	case "mode":
		b.handleModeCallback(session, query, value)
	case "tone":
		b.handleToneCallback(session, query, value)
	case "hist":
		b.handleHistoryCallback(session, value)
	case "histdel":
		b.handleHistoryDeleteCallback(session, value)
	default:
		log.Warn().Str("data", query.Data).Msg("unknown callback")
	}
}
