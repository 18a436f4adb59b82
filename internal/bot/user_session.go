package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/raine/copywriter-bot/internal/content"
	"github.com/raine/copywriter-bot/internal/generator"
	handoff "github.com/raine/copywriter-bot/internal/session"
)

// MessageKind selects how the worker handles a SessionMessage.
type MessageKind string

const (
	KindCallback MessageKind = "callback"
	KindPhoto    MessageKind = "photo"
	KindText     MessageKind = "text"
	KindProgress MessageKind = "generation_progress"
	KindResult   MessageKind = "generation_result"
)

const (
	inboxSize      = 16
	typingInterval = 4 * time.Second
)

// SessionMessage is one unit of work for a session worker. Telegram updates
// and the events of background generations both arrive this way, so handlers
// never race with each other.
type SessionMessage struct {
	Kind MessageKind
	Ctx  context.Context
	Done chan struct{} // closed once handled, for PostAndWait

	Message       *tgbotapi.Message
	CallbackQuery *tgbotapi.CallbackQuery
	Text          string

	Run    *handoff.Run
	State  generator.State
	Result *GenerationResult
}

// GenerationResult is what a background generation posts back when it ends.
type GenerationResult struct {
	Content *content.GeneratedContent
	Err     error
}

// escapeMarkdown escapes special characters for Telegram Markdown V1
func escapeMarkdown(text string) string {
	text = strings.ReplaceAll(text, "*", "\\*")
	text = strings.ReplaceAll(text, "_", "\\_")
	text = strings.ReplaceAll(text, "`", "\\`")
	text = strings.ReplaceAll(text, "[", "\\[")
	return text
}

// MessageSender is the part of the Telegram API a session talks to.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// MessageHandler processes the messages taken from a session's inbox.
type MessageHandler interface {
	HandleSessionMessage(ctx context.Context, session *UserSession, msg SessionMessage)
}

// UserSession is one Telegram user's conversation.
//
// A single worker goroutine drains the inbox, so handlers may read and write
// the session fields without locking. Generations run on their own
// goroutines and only talk back through postProgress and postResult.
type UserSession struct {
	userId int64
	sender MessageSender

	inbox   chan SessionMessage
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	handler MessageHandler

	// Product details from /info, consumed by the next generation
	additionalInfo string

	// Message edited with the progress of the current generation, 0 if none
	statusMsgID int
}

func newSession(userId int64, sender MessageSender, handler MessageHandler) *UserSession {
	ctx, cancel := context.WithCancel(context.Background())
	return &UserSession{
		userId:  userId,
		sender:  sender,
		inbox:   make(chan SessionMessage, inboxSize),
		ctx:     ctx,
		cancel:  cancel,
		handler: handler,
	}
}

// storeID is the user id used by the storage and session packages.
func (s *UserSession) storeID() string {
	return strconv.FormatInt(s.userId, 10)
}

// --- Replies ---

func (s *UserSession) replyWithMessage(msg tgbotapi.MessageConfig) tgbotapi.Message {
	msg.ChatID = s.userId
	sent, err := s.sender.Send(msg)
	if err != nil {
		log.Error().Stack().
			Int64("userId", s.userId).
			Err(fmt.Errorf("failed to send reply message: %w", err)).Send()
		return sent
	}
	log.Debug().Int64("userId", s.userId).Int("messageId", sent.MessageID).Msg("sent message")
	return sent
}

// sendMarkdown sends text that is already formatted and escaped.
func (s *UserSession) sendMarkdown(text string) tgbotapi.Message {
	return s.replyWithMessage(tgbotapi.MessageConfig{Text: text, ParseMode: tgbotapi.ModeMarkdown})
}

// reply formats a message template with args and sends it.
func (s *UserSession) reply(text string, a ...any) tgbotapi.Message {
	return s.sendMarkdown(formatReplyText(text, a...))
}

func (s *UserSession) replyWithError(err error) tgbotapi.Message {
	log.Error().Stack().Err(err).Int64("userId", s.userId).Send()
	return s.sendMarkdown(formatReplyText(MsgUnexpectedErr, escapeMarkdown(err.Error())))
}

// editStatus replaces the text of the progress message, if there is one.
func (s *UserSession) editStatus(text string) {
	if s.statusMsgID == 0 {
		return
	}
	edit := tgbotapi.NewEditMessageText(s.userId, s.statusMsgID, text)
	if _, err := s.sender.Request(edit); err != nil {
		log.Debug().Err(err).Int64("userId", s.userId).Msg("failed to edit status message")
	}
}

// keepTyping shows the "typing" indicator until ctx is done. Telegram drops
// the indicator after about five seconds, so it is refreshed.
func (s *UserSession) keepTyping(ctx context.Context) {
	ticker := time.NewTicker(typingInterval)
	defer ticker.Stop()

	for {
		// sendChatAction returns a boolean, not a Message
		if _, err := s.sender.Request(tgbotapi.NewChatAction(s.userId, tgbotapi.ChatTyping)); err != nil {
			log.Debug().Err(err).Int64("userId", s.userId).Msg("failed to send typing action")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// --- Generation events ---

// postProgress reports a pipeline transition. Progress is only cosmetic, so
// it is dropped rather than blocking the generation when the inbox is full.
func (s *UserSession) postProgress(run *handoff.Run, state generator.State) {
	msg := SessionMessage{Kind: KindProgress, Ctx: run.Context(), Run: run, State: state}
	select {
	case s.inbox <- msg:
	default:
		log.Debug().Int64("userId", s.userId).Str("state", string(state)).Msg("inbox full, dropping progress update")
	}
}

// postResult hands the outcome of a run to the worker. It blocks until
// queued unless the session is shutting down.
func (s *UserSession) postResult(run *handoff.Run, gc *content.GeneratedContent, err error) {
	s.Post(SessionMessage{
		Kind:   KindResult,
		Ctx:    s.ctx,
		Run:    run,
		Result: &GenerationResult{Content: gc, Err: err},
	})
}

// --- Worker ---

// Start launches the worker goroutine.
func (s *UserSession) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.work()
	}()
}

func (s *UserSession) work() {
	for {
		select {
		case <-s.ctx.Done():
			s.drain()
			return
		case msg := <-s.inbox:
			s.handle(msg)
		}
	}
}

// drain releases callers still waiting on queued messages after shutdown.
func (s *UserSession) drain() {
	for {
		select {
		case msg := <-s.inbox:
			if msg.Done != nil {
				close(msg.Done)
			}
		default:
			return
		}
	}
}

// handle runs one message. A panicking handler is logged and the worker
// carries on with the next message.
func (s *UserSession) handle(msg SessionMessage) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Int64("userId", s.userId).
				Str("kind", string(msg.Kind)).
				Interface("panic", r).
				Msg("recovered from panic in session worker")
		}
		if msg.Done != nil {
			close(msg.Done)
		}
	}()

	if s.handler == nil {
		log.Error().Int64("userId", s.userId).Msg("session handler not set")
		return
	}
	ctx := msg.Ctx
	if ctx == nil {
		ctx = s.ctx
	}
	s.handler.HandleSessionMessage(ctx, s, msg)
}

// Post queues a message. It blocks only while the inbox is full.
func (s *UserSession) Post(msg SessionMessage) {
	select {
	case s.inbox <- msg:
	case <-s.ctx.Done():
		if msg.Done != nil {
			close(msg.Done)
		}
	}
}

// PostAndWait queues a message and returns once the worker has handled it.
func (s *UserSession) PostAndWait(msg SessionMessage) {
	msg.Done = make(chan struct{})
	s.Post(msg)
	<-msg.Done
}

// Stop cancels the session and waits for the worker to exit. Generations
// started from this session are cancelled with it.
func (s *UserSession) Stop() {
	s.cancel()
	s.wg.Wait()
}
