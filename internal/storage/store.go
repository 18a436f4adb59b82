package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/raine/copywriter-bot/internal/content"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a history entry does not exist for the user.
var ErrNotFound = errors.New("not found")

// Store defines everything the bot and the HTTP API persist.
type Store interface {
	PreferenceStore
	HistoryStore

	// Analysis cache methods
	GetAnalysis(key string) (*content.ImageAnalysis, error)
	SetAnalysis(key string, analysis *content.ImageAnalysis) error

	// Bot access list
	IsUserAllowed(telegramID int64) (bool, error)
	AddAllowedUser(telegramID, addedBy int64) error
	RemoveAllowedUser(telegramID int64) error
	GetAllowedUsers() ([]AllowedUser, error)

	Close() error
}

// SQLiteStore implements Store using SQLite. History payloads are encrypted
// when an encryption key is configured.
type SQLiteStore struct {
	db            *sql.DB
	encryptionKey []byte
	mu            sync.RWMutex
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at dbPath and applies the
// schema. A nil encryptionKey stores history as plain JSON.
func NewSQLiteStore(dbPath string, encryptionKey []byte) (*SQLiteStore, error) {
	// WAL lets the bot and the HTTP API read while a write is in progress
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db, encryptionKey: encryptionKey}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	// Set file permissions once the file exists
	if err := os.Chmod(dbPath, 0600); err != nil && !os.IsNotExist(err) {
		db.Close()
		return nil, fmt.Errorf("failed to set database permissions: %w", err)
	}

	return store, nil
}

// schema is applied in order on every start. Statements must be idempotent.
var schema = []struct{ name, ddl string }{
	{"analysis_cache", `
	CREATE TABLE IF NOT EXISTS analysis_cache (
		cache_key TEXT PRIMARY KEY,
		analysis TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`},
	{"preferences", `
	CREATE TABLE IF NOT EXISTS preferences (
		user_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, key)
	)`},
	{"history", `
	CREATE TABLE IF NOT EXISTS history (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		mode TEXT NOT NULL,
		summary TEXT NOT NULL,
		payload TEXT NOT NULL,
		encrypted INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS history_user_created ON history (user_id, created_at)`},
	{"access_list", `
	CREATE TABLE IF NOT EXISTS access_list (
		user_id INTEGER PRIMARY KEY,
		granted_by INTEGER NOT NULL,
		granted_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`},
}

func (s *SQLiteStore) migrate() error {
	for _, t := range schema {
		if _, err := s.db.Exec(t.ddl); err != nil {
			return fmt.Errorf("create %s: %w", t.name, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetAnalysis retrieves a cached analysis by key.
// Returns nil, nil if no cache entry exists.
func (s *SQLiteStore) GetAnalysis(key string) (*content.ImageAnalysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data string
	err := s.db.QueryRow("SELECT analysis FROM analysis_cache WHERE cache_key = ?", key).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis cache: %w", err)
	}

	var analysis content.ImageAnalysis
	if err := json.Unmarshal([]byte(data), &analysis); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached analysis: %w", err)
	}
	return &analysis, nil
}

// SetAnalysis stores an analysis in the cache.
func (s *SQLiteStore) SetAnalysis(key string, analysis *content.ImageAnalysis) error {
	data, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
		INSERT INTO analysis_cache (cache_key, analysis)
		VALUES (?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			analysis = excluded.analysis,
			created_at = CURRENT_TIMESTAMP
	`, key, string(data))
	if err != nil {
		return fmt.Errorf("failed to cache analysis: %w", err)
	}
	return nil
}
