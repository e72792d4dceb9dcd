package localization_test

import (
	"testing"
	"testing/fstest"

	"sulabh/backend/internal/localization"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundledLocalizer(t *testing.T) {
	l, err := localization.NewBundledLocalizer()
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"en", "hi"}, l.Languages())
	assert.Equal(t, "Resolved", l.GetString("en", "status_resolved"))
	assert.Equal(t, "हल हो गई", l.GetString("hi", "status_resolved"))
}

func TestBundledLocalizer_SameKeysInEveryLanguage(t *testing.T) {
	l, err := localization.NewBundledLocalizer()
	require.NoError(t, err)

	keys := []string{"start", "help", "not_found", "track_result", "following", "unfollowed", "event_update", "event_update_message"}
	for _, key := range keys {
		for _, lang := range l.Languages() {
			assert.NotEqual(t, key, l.GetString(lang, key), "%s missing in %s", key, lang)
		}
	}
}

func TestGetString_Fallbacks(t *testing.T) {
	fsys := fstest.MapFS{
		"en.json":   {Data: []byte(`{"greeting": "Hello", "only_en": "English only"}`)},
		"hi.json":   {Data: []byte(`{"greeting": "नमस्ते"}`)},
		"notes.txt": {Data: []byte("ignored")},
	}
	l, err := localization.NewLocalizerFS(fsys)
	require.NoError(t, err)

	assert.Equal(t, "नमस्ते", l.GetString("hi", "greeting"))
	assert.Equal(t, "नमस्ते", l.GetString("hi-IN", "greeting"))
	assert.Equal(t, "English only", l.GetString("hi", "only_en"))
	assert.Equal(t, "Hello", l.GetString("fr", "greeting"))
	assert.Equal(t, "missing_key", l.GetString("en", "missing_key"))
}

func TestFormat(t *testing.T) {
	fsys := fstest.MapFS{"en.json": {Data: []byte(`{"not_found": "No complaint with id %s was found."}`)}}
	l, err := localization.NewLocalizerFS(fsys)
	require.NoError(t, err)

	assert.Equal(t, "No complaint with id CMP1 was found.", l.Format("en", "not_found", "CMP1"))
}

func TestNewLocalizerFS_BadJSON(t *testing.T) {
	_, err := localization.NewLocalizerFS(fstest.MapFS{"en.json": {Data: []byte(`{`)}})
	assert.Error(t, err)
}
