package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/raine/copywriter-bot/internal/content"
)

const (
	DefaultHistoryLimit = 20
	summaryMaxRunes     = 80
)

// HistoryEntry is one saved generation. Content is only populated by
// GetHistory.
type HistoryEntry struct {
	ID        string                    `json:"id"`
	UserID    string                    `json:"userId"`
	Mode      content.Mode              `json:"mode"`
	Summary   string                    `json:"summary"`
	CreatedAt time.Time                 `json:"createdAt"`
	Content   *content.GeneratedContent `json:"content,omitempty"`
}

// HistoryStore persists successful generations per user.
type HistoryStore interface {
	SaveHistory(userID string, gc *content.GeneratedContent) (*HistoryEntry, error)
	ListHistory(userID string, limit int) ([]HistoryEntry, error)
	GetHistory(userID, id string) (*HistoryEntry, error)
	DeleteHistory(userID, id string) error
}

// SaveHistory stores a generation for the user.
func (s *SQLiteStore) SaveHistory(userID string, gc *content.GeneratedContent) (*HistoryEntry, error) {
	data, err := json.Marshal(gc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generated content: %w", err)
	}

	payload := string(data)
	encrypted := s.encryptionKey != nil
	if encrypted {
		payload, err = Encrypt(data, s.encryptionKey)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt history: %w", err)
		}
	}

	entry := &HistoryEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		Mode:      gc.Mode(),
		Summary:   Summarize(gc),
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		`INSERT INTO history (id, user_id, mode, summary, payload, encrypted, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, string(entry.Mode), entry.Summary, payload, encrypted, entry.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save history: %w", err)
	}
	return entry, nil
}

// ListHistory returns the user's entries, newest first, without content.
func (s *SQLiteStore) ListHistory(userID string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, user_id, mode, summary, created_at FROM history WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var mode string
		if err := rows.Scan(&e.ID, &e.UserID, &mode, &e.Summary, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		e.Mode = content.Mode(mode)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetHistory returns one entry with its content. Entries belonging to other
// users are reported as ErrNotFound.
func (s *SQLiteStore) GetHistory(userID, id string) (*HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var e HistoryEntry
	var mode, payload string
	var encrypted bool
	err := s.db.QueryRow(
		`SELECT id, user_id, mode, summary, payload, encrypted, created_at FROM history WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(&e.ID, &e.UserID, &mode, &e.Summary, &payload, &encrypted, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query history entry: %w", err)
	}
	e.Mode = content.Mode(mode)

	data := []byte(payload)
	if encrypted {
		if s.encryptionKey == nil {
			return nil, fmt.Errorf("history entry %s is encrypted but no key is configured", id)
		}
		data, err = Decrypt(payload, s.encryptionKey)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt history: %w", err)
		}
	}

	var gc content.GeneratedContent
	if err := json.Unmarshal(data, &gc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	e.Content = &gc
	return &e, nil
}

// DeleteHistory removes one of the user's entries.
func (s *SQLiteStore) DeleteHistory(userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM history WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete history entry: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Summarize picks a short human readable label for a generation.
func Summarize(gc *content.GeneratedContent) string {
	var s string
	switch {
	case gc.Marketplace != nil:
		s = gc.Marketplace.Title
	case gc.Social != nil && gc.Social.Content.Common != nil && gc.Social.Content.Common.Title != "":
		s = gc.Social.Content.Common.Title
	case gc.ImageAnalysis != nil:
		s = gc.ImageAnalysis.Description
	}
	runes := []rune(s)
	if len(runes) > summaryMaxRunes {
		return string(runes[:summaryMaxRunes-1]) + "…"
	}
	return s
}
