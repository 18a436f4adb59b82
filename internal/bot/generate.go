package bot

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/raine/copywriter-bot/internal/content"
	"github.com/raine/copywriter-bot/internal/generator"
	"github.com/raine/copywriter-bot/internal/llm"
	handoff "github.com/raine/copywriter-bot/internal/session"
	"github.com/raine/copywriter-bot/internal/storage"
)

// DefaultLanguage is used until the user picks one with /language.
const DefaultLanguage = "English"

// defaultPlatforms are used in social mode until the user picks platforms.
var defaultPlatforms = []content.Platform{content.Instagram, content.Facebook, content.Twitter}

// handleModeCallback starts a generation for the staged image in the chosen
// mode. The image is taken from the slot, so a second press finds it empty.
func (b *Bot) handleModeCallback(session *UserSession, query *tgbotapi.CallbackQuery, value string) {
	mode := content.ModeNone
	switch value {
	case "social":
		mode = content.ModeSocial
	case "marketplace":
		mode = content.ModeMarketplace
	}

	opts, err := b.generationOptions(session, mode)
	if err != nil {
		session.replyWithError(err)
		return
	}
	if mode == content.ModeMarketplace && (opts.Category == "" || opts.Platform == "") {
		// Keep the image staged so the user can press again after /marketplace
		session.reply(MsgMarketplaceNeeded)
		return
	}

	img, ok := b.slots.Take(session.storeID())
	if !ok {
		session.reply(MsgImageExpired)
		return
	}

	statusMsgID := 0
	if query.Message != nil {
		statusMsgID = query.Message.MessageID
	}
	b.startGeneration(session, img, opts, statusMsgID)
	session.additionalInfo = ""
	session.editStatus(MsgProgressAnalyzing)
}

// generationOptions builds options from the user's stored preferences, the
// chosen mode and any /info text.
func (b *Bot) generationOptions(session *UserSession, mode content.Mode) (content.GenerationOptions, error) {
	prefs, err := b.store.GetPreferences(session.storeID())
	if err != nil {
		return content.GenerationOptions{}, err
	}
	opts := storage.OptionsFromPreferences(session.storeID(), prefs)
	opts.Mode = mode
	opts.AdditionalDescription = session.additionalInfo
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	if mode == content.ModeSocial && len(opts.Platforms) == 0 {
		opts.Platforms = defaultPlatforms
	}
	return opts, nil
}

// startGeneration runs the pipeline in the background. Progress and the
// result are posted back to the session worker; a run superseded by a newer
// one is cancelled and its result is dropped on arrival.
func (b *Bot) startGeneration(session *UserSession, img *content.UploadedImage, opts content.GenerationOptions, statusMsgID int) {
	run := b.runs.Start(session.ctx, session.storeID())
	session.statusMsgID = statusMsgID

	log.Info().
		Int64("userId", session.userId).
		Uint64("run", run.ID).
		Str("mode", string(opts.Mode)).
		Str("language", opts.Language).
		Msg("starting generation")

	go func() {
		typingCtx, stopTyping := context.WithCancel(run.Context())
		defer stopTyping()
		go session.keepTyping(typingCtx)

		gc, err := b.generator.GenerateWithProgress(run.Context(), img, opts, func(state generator.State) {
			session.postProgress(run, state)
		})
		session.postResult(run, gc, err)
	}()
}

// handleGenerationProgress updates the status message of the current run.
func (b *Bot) handleGenerationProgress(session *UserSession, run *handoff.Run, state generator.State) {
	if !b.runs.IsCurrent(session.storeID(), run) {
		return
	}
	if text := progressText(state); text != "" {
		session.editStatus(text)
	}
}

// handleGenerationComplete delivers the result of the current run, saves it
// to history and drops results of superseded or cancelled runs.
func (b *Bot) handleGenerationComplete(session *UserSession, run *handoff.Run, res *GenerationResult) {
	userID := session.storeID()
	if !b.runs.Finish(userID, run) {
		log.Info().Int64("userId", session.userId).Uint64("run", run.ID).Err(res.Err).Msg("discarding stale generation result")
		return
	}

	if res.Err != nil {
		log.Error().Err(res.Err).Int64("userId", session.userId).Uint64("run", run.ID).Msg("generation failed")
		session.editStatus(MsgProgressFailed)
		session.statusMsgID = 0
		session.sendMarkdown(errorMessage(res.Err))
		return
	}

	session.editStatus(MsgProgressDone)
	session.statusMsgID = 0

	if _, err := b.store.SaveHistory(userID, res.Content); err != nil {
		log.Error().Err(err).Int64("userId", session.userId).Msg("failed to save history")
	}

	for _, text := range renderContent(res.Content) {
		session.sendMarkdown(text)
	}
}

func progressText(state generator.State) string {
	switch state {
	case generator.StateAnalyzing:
		return MsgProgressAnalyzing
	case generator.StateSocialGenerating:
		return MsgProgressSocial
	case generator.StateMarketplaceGenerating:
		return MsgProgressMarketplace
	}
	return ""
}

// errorMessage maps a pipeline failure to the text shown to the user. The
// returned text is already formatted and escaped.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, content.ErrValidation):
		return formatReplyText(MsgInvalidOptions, escapeMarkdown(err.Error()))
	case errors.Is(err, llm.ErrRateLimited):
		return MsgRateLimited
	case errors.Is(err, llm.ErrUpstreamServer):
		return MsgUpstreamDown
	case errors.Is(err, llm.ErrRequestRejected):
		return MsgRequestRejected
	case errors.Is(err, generator.ErrAnalysisFailed):
		return MsgAnalysisFailed
	case errors.Is(err, generator.ErrGenerationFailed), errors.Is(err, llm.ErrMalformedResponse):
		return MsgGenerationFailed
	}
	return formatReplyText(MsgUnexpectedErr, escapeMarkdown(err.Error()))
}
