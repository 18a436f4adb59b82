package bot

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// sessionRegistry owns one UserSession per Telegram user. Sessions are
// created on first contact and live until shutdown.
type sessionRegistry struct {
	sender  MessageSender
	handler MessageHandler

	mu       sync.Mutex
	sessions map[int64]*UserSession
}

func newSessionRegistry(sender MessageSender, handler MessageHandler) *sessionRegistry {
	return &sessionRegistry{
		sender:   sender,
		handler:  handler,
		sessions: make(map[int64]*UserSession),
	}
}

// get returns the user's session, starting its worker if it is new.
func (r *sessionRegistry) get(userId int64) *UserSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[userId]; ok {
		return session
	}
	session := newSession(userId, r.sender, r.handler)
	session.Start()
	r.sessions[userId] = session
	log.Info().Int64("userId", userId).Msg("new user session created")
	return session
}

// stopAll stops every session worker. Stopping happens outside the lock so
// a worker still calling get cannot deadlock shutdown.
func (r *sessionRegistry) stopAll() {
	r.mu.Lock()
	sessions := make([]*UserSession, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	r.mu.Unlock()

	for _, session := range sessions {
		session.Stop()
	}
	log.Info().Int("count", len(sessions)).Msg("stopped all session workers")
}
