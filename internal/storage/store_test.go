package storage

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raine/copywriter-bot/internal/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, key []byte) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), key)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleContent() *content.GeneratedContent {
	return &content.GeneratedContent{
		ImageAnalysis: &content.ImageAnalysis{
			Categories:  []string{"Footwear"},
			Tags:        []string{"leather"},
			Description: "White leather sneakers.",
		},
		Social: &content.SocialContent{
			Content: content.PlatformContent{
				Common:    &content.CommonContent{Title: "Fresh whites"},
				Instagram: &content.InstagramContent{Caption: "Step up", Hashtags: []string{"#shoes"}},
			},
		},
	}
}

func TestAnalysisCache(t *testing.T) {
	store := newTestStore(t, nil)

	got, err := store.GetAnalysis("missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	analysis := sampleContent().ImageAnalysis
	analysis.MarketAnalysis.PricePoint = content.PricePremium
	require.NoError(t, store.SetAnalysis("k1", analysis))

	got, err = store.GetAnalysis("k1")
	require.NoError(t, err)
	assert.Equal(t, analysis, got)

	analysis.Description = "Updated"
	require.NoError(t, store.SetAnalysis("k1", analysis))
	got, err = store.GetAnalysis("k1")
	require.NoError(t, err)
	assert.Equal(t, "Updated", got.Description)
}

func TestPreferences(t *testing.T) {
	store := newTestStore(t, nil)

	v, err := store.GetPreference("u1", PrefLanguage)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, store.SetPreference("u1", PrefLanguage, "Finnish"))
	require.NoError(t, store.SetPreference("u1", PrefTone, "casual"))
	require.NoError(t, store.SetPreference("u2", PrefLanguage, "German"))
	require.NoError(t, store.SetPreference("u1", PrefLanguage, "Swedish"))

	v, err = store.GetPreference("u1", PrefLanguage)
	require.NoError(t, err)
	assert.Equal(t, "Swedish", v)

	prefs, err := store.GetPreferences("u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{PrefLanguage: "Swedish", PrefTone: "casual"}, prefs)

	require.NoError(t, store.SetPreference("u1", PrefTone, ""))
	prefs, err = store.GetPreferences("u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{PrefLanguage: "Swedish"}, prefs)
}

func TestHistory_RoundTrip(t *testing.T) {
	store := newTestStore(t, nil)

	entry, err := store.SaveHistory("u1", sampleContent())
	require.NoError(t, err)
	assert.Len(t, entry.ID, 36)
	assert.Equal(t, content.ModeSocial, entry.Mode)
	assert.Equal(t, "Fresh whites", entry.Summary)

	got, err := store.GetHistory("u1", entry.ID)
	require.NoError(t, err)
	assert.Equal(t, sampleContent(), got.Content)
	assert.Equal(t, content.ModeSocial, got.Mode)

	_, err = store.GetHistory("u2", entry.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHistory_ListNewestFirstWithLimit(t *testing.T) {
	store := newTestStore(t, nil)

	var ids []string
	for i := 0; i < 3; i++ {
		e, err := store.SaveHistory("u1", sampleContent())
		require.NoError(t, err)
		ids = append(ids, e.ID)
	}
	_, err := store.SaveHistory("u2", sampleContent())
	require.NoError(t, err)

	entries, err := store.ListHistory("u1", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ids[2], entries[0].ID)
	assert.Equal(t, ids[1], entries[1].ID)
	assert.Nil(t, entries[0].Content)

	entries, err = store.ListHistory("u1", 0)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestHistory_Delete(t *testing.T) {
	store := newTestStore(t, nil)

	e, err := store.SaveHistory("u1", sampleContent())
	require.NoError(t, err)

	assert.ErrorIs(t, store.DeleteHistory("u2", e.ID), ErrNotFound)
	require.NoError(t, store.DeleteHistory("u1", e.ID))
	assert.ErrorIs(t, store.DeleteHistory("u1", e.ID), ErrNotFound)

	_, err = store.GetHistory("u1", e.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHistory_EncryptedAtRest(t *testing.T) {
	key, err := DeriveKey("correct horse battery staple")
	require.NoError(t, err)
	dbPath := filepath.Join(t.TempDir(), "enc.db")

	store, err := NewSQLiteStore(dbPath, key)
	require.NoError(t, err)
	defer store.Close()

	e, err := store.SaveHistory("u1", sampleContent())
	require.NoError(t, err)

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()
	var payload string
	require.NoError(t, db.QueryRow("SELECT payload FROM history WHERE id = ?", e.ID).Scan(&payload))
	assert.False(t, strings.Contains(payload, "Step up"), "payload should not be plain text")

	got, err := store.GetHistory("u1", e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Step up", got.Content.Social.Content.Instagram.Caption)
}

func TestAllowedUsers(t *testing.T) {
	store := newTestStore(t, nil)

	ok, err := store.IsUserAllowed(42)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.AddAllowedUser(42, 1))
	ok, err = store.IsUserAllowed(42)
	require.NoError(t, err)
	assert.True(t, ok)

	users, err := store.GetAllowedUsers()
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(1), users[0].AddedBy)

	require.NoError(t, store.AddAllowedUser(42, 7))
	users, err = store.GetAllowedUsers()
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(7), users[0].AddedBy)

	require.NoError(t, store.RemoveAllowedUser(42))
	ok, err = store.IsUserAllowed(42)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSummarize(t *testing.T) {
	gc := &content.GeneratedContent{
		ImageAnalysis: &content.ImageAnalysis{Description: strings.Repeat("a", 100)},
	}
	s := Summarize(gc)
	assert.Equal(t, 80, len([]rune(s)))
	assert.True(t, strings.HasSuffix(s, "…"))

	gc.Marketplace = &content.MarketplaceContent{Title: "Listing"}
	assert.Equal(t, "Listing", Summarize(gc))
}

func TestOptionsFromPreferences(t *testing.T) {
	opts := OptionsFromPreferences("u1", map[string]string{
		PrefLanguage:    "Finnish",
		PrefTone:        "casual",
		PrefPlatforms:   FormatPlatforms([]content.Platform{content.Instagram, content.Twitter}) + ",myspace",
		PrefCategory:    "Shoes",
		PrefMarketplace: "etsy",
	})

	assert.Equal(t, "u1", opts.UserID)
	assert.Equal(t, "Finnish", opts.Language)
	assert.Equal(t, content.ToneCasual, opts.Tone)
	assert.Equal(t, []content.Platform{content.Instagram, content.Twitter}, opts.Platforms)
	assert.Equal(t, content.Marketplace("etsy"), opts.Platform)

	empty := OptionsFromPreferences("u2", nil)
	assert.Empty(t, empty.Platforms)
	assert.Empty(t, empty.Language)
}
