package localization_test

import (
	"os"
	"path/filepath"
	"testing"

	"civiclens/backend/internal/localization"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLocales(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.json"), []byte(`{"hello":"Hello","bye":"Bye %s"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "uk.json"), []byte(`{"hello":"Привіт"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("ignored"), 0o644))
	return dir
}

func TestLocalizer_GetString(t *testing.T) {
	l, err := localization.NewLocalizer(writeLocales(t))
	require.NoError(t, err)

	assert.Equal(t, "Привіт", l.GetString("uk", "hello"))
	assert.Equal(t, "Bye %s", l.GetString("uk", "bye"), "missing key falls back to English")
	assert.Equal(t, "Hello", l.GetString("de", "hello"))
	assert.Equal(t, "missing", l.GetString("en", "missing"))
	assert.Equal(t, "Bye Olha", l.Format("uk", "bye", "Olha"))
}

func TestLocalizer_BadInput(t *testing.T) {
	_, err := localization.NewLocalizer(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.json"), []byte(`{not json`), 0o644))
	_, err = localization.NewLocalizer(dir)
	assert.Error(t, err)
}

func TestFromAcceptLanguage(t *testing.T) {
	l, err := localization.NewLocalizer(writeLocales(t))
	require.NoError(t, err)

	assert.Equal(t, "uk", l.FromAcceptLanguage("uk-UA,uk;q=0.9,en;q=0.8"))
	assert.Equal(t, "uk", l.FromAcceptLanguage("de-DE, uk;q=0.5"))
	assert.Equal(t, "en", l.FromAcceptLanguage("fr"))
	assert.Equal(t, "en", l.FromAcceptLanguage(""))
	assert.Equal(t, "uk", localization.Normalize(" UK_ua "))
}

// TestShippedLocales verifies every shipped locale defines the same keys.
func TestShippedLocales(t *testing.T) {
	l, err := localization.NewLocalizer("locales")
	require.NoError(t, err)
	require.True(t, l.Supports("en"))
	require.True(t, l.Supports("uk"))

	keys := []string{
		"error.not_found", "error.invalid_transition", "error.unknown_action",
		"error.resolution_image_required", "error.empty_description", "error.persistence",
		"error.bad_request", "error.internal", "error.rate_limited",
		"bot.welcome", "bot.ward_set", "bot.ward_usage", "bot.status_usage",
		"bot.submitted", "bot.status", "bot.escalated", "bot.unknown_command",
		"bot.choose_language", "bot.language_changed",
	}
	for _, key := range keys {
		assert.NotEqual(t, key, l.GetString("en", key), key)
		assert.NotEqual(t, l.GetString("en", key), l.GetString("uk", key), key)
	}
}
