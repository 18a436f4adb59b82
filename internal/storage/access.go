package storage

import (
	"fmt"
	"time"
)

// AllowedUser is an entry of the bot's access list.
type AllowedUser struct {
	TelegramID int64
	AddedAt    time.Time
	AddedBy    int64 // admin who granted access
}

func (s *SQLiteStore) IsUserAllowed(telegramID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found bool
	err := s.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM access_list WHERE user_id = ?)`, telegramID).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("access list lookup for %d: %w", telegramID, err)
	}
	return found, nil
}

// AddAllowedUser grants access. Granting again refreshes who granted it and when.
func (s *SQLiteStore) AddAllowedUser(telegramID, addedBy int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	const q = `
		INSERT INTO access_list (user_id, granted_by) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET granted_by = excluded.granted_by, granted_at = CURRENT_TIMESTAMP`
	if _, err := s.db.Exec(q, telegramID, addedBy); err != nil {
		return fmt.Errorf("grant access to %d: %w", telegramID, err)
	}
	return nil
}

func (s *SQLiteStore) RemoveAllowedUser(telegramID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM access_list WHERE user_id = ?`, telegramID); err != nil {
		return fmt.Errorf("revoke access from %d: %w", telegramID, err)
	}
	return nil
}

// GetAllowedUsers lists the access list, oldest grant first.
func (s *SQLiteStore) GetAllowedUsers() ([]AllowedUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT user_id, granted_at, granted_by FROM access_list ORDER BY granted_at, user_id`)
	if err != nil {
		return nil, fmt.Errorf("list access list: %w", err)
	}
	defer rows.Close()

	var out []AllowedUser
	for rows.Next() {
		var u AllowedUser
		if err := rows.Scan(&u.TelegramID, &u.AddedAt, &u.AddedBy); err != nil {
			return nil, fmt.Errorf("scan access list row: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
