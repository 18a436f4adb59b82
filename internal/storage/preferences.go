package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/raine/copywriter-bot/internal/content"
)

// Preference keys.
const (
	PrefLanguage    = "language"
	PrefTone        = "tone"
	PrefMode        = "mode"
	PrefPlatforms   = "platforms"
	PrefCategory    = "category"
	PrefMarketplace = "platform"
	PrefIndustry    = "industry"
	PrefCurrency    = "currency"
)

// PreferenceKeys lists the keys accepted by SetPreference.
var PreferenceKeys = []string{
	PrefLanguage, PrefTone, PrefMode, PrefPlatforms,
	PrefCategory, PrefMarketplace, PrefIndustry, PrefCurrency,
}

// PreferenceStore is a per-user key/value store for generation defaults.
type PreferenceStore interface {
	GetPreference(userID, key string) (string, error)
	SetPreference(userID, key, value string) error
	GetPreferences(userID string) (map[string]string, error)
}

// GetPreference returns a preference value, or "" if unset.
func (s *SQLiteStore) GetPreference(userID, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRow(
		"SELECT value FROM preferences WHERE user_id = ? AND key = ?",
		userID, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query preference: %w", err)
	}
	return value, nil
}

// SetPreference stores a preference. An empty value deletes it.
func (s *SQLiteStore) SetPreference(userID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if value == "" {
		_, err := s.db.Exec("DELETE FROM preferences WHERE user_id = ? AND key = ?", userID, key)
		if err != nil {
			return fmt.Errorf("failed to delete preference: %w", err)
		}
		return nil
	}

	_, err := s.db.Exec(`
		INSERT INTO preferences (user_id, key, value)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, userID, key, value)
	if err != nil {
		return fmt.Errorf("failed to set preference: %w", err)
	}
	return nil
}

// GetPreferences returns every preference stored for the user.
func (s *SQLiteStore) GetPreferences(userID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT key, value FROM preferences WHERE user_id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	defer rows.Close()

	prefs := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		prefs[key] = value
	}
	return prefs, rows.Err()
}

// OptionsFromPreferences fills generation options from stored preferences.
// Unknown platform names are skipped so a stale preference never blocks a run.
func OptionsFromPreferences(userID string, prefs map[string]string) content.GenerationOptions {
	opts := content.GenerationOptions{
		Language: prefs[PrefLanguage],
		Tone:     content.Tone(prefs[PrefTone]),
		Mode:     content.Mode(prefs[PrefMode]),
		Category: prefs[PrefCategory],
		Platform: content.Marketplace(prefs[PrefMarketplace]),
		Industry: prefs[PrefIndustry],
		Currency: prefs[PrefCurrency],
		UserID:   userID,
	}
	for _, p := range strings.Split(prefs[PrefPlatforms], ",") {
		platform := content.Platform(strings.TrimSpace(p))
		if platform.Valid() {
			opts.Platforms = append(opts.Platforms, platform)
		}
	}
	return opts
}

// FormatPlatforms is the stored form of a platform list.
func FormatPlatforms(platforms []content.Platform) string {
	names := make([]string, len(platforms))
	for i, p := range platforms {
		names[i] = string(p)
	}
	return strings.Join(names, ",")
}
