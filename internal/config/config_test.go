package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"noctua/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "noctua.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_AI_API_KEY", "")

	cfg, err := Load(writeConfig(t, "app:\n  data_dir: /tmp/noctua-test\n"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/tmp/noctua-test", "noctua.db"), cfg.Store.Path)
	assert.Equal(t, 50, cfg.Pipeline.MinContentChars)
	assert.InDelta(t, 0.6, cfg.Pipeline.SimilarityThreshold, 1e-9)
	assert.Equal(t, 2, cfg.Pipeline.MinKeywordMatches)
	assert.Equal(t, 2000, cfg.Pipeline.ClassifyScanChars)
	assert.Equal(t, 3, cfg.AI.Gemini.MaxRetries)
	assert.Equal(t, "hootline", cfg.Shows.Default)
	assert.Equal(t, "file", cfg.Mailbox.Provider)
	assert.False(t, cfg.HasGemini())
	assert.NotEmpty(t, cfg.ConfigFile)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "real-key")
	t.Setenv("NOCTUA_PIPELINE_SIMILARITY_THRESHOLD", "0.8")
	t.Setenv("NOCTUA_PIPELINE_MIN_KEYWORD_MATCHES", "3")

	cfg, err := Load(writeConfig(t, "logging:\n  format: json\n"))
	require.NoError(t, err)

	assert.True(t, cfg.HasGemini())
	assert.InDelta(t, 0.8, cfg.Pipeline.SimilarityThreshold, 1e-9)
	assert.Equal(t, 3, cfg.Pipeline.MinKeywordMatches)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad duration", "weather:\n  timeout: soon\n"},
		{"bad threshold", "pipeline:\n  similarity_threshold: 1.5\n"},
		{"bad provider", "mailbox:\n  provider: imap\n"},
		{"bad log format", "logging:\n  format: xml\n"},
		{"zero retries", "ai:\n  gemini:\n    max_retries: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestPlaceholderKeyIsNotValid(t *testing.T) {
	cfg := &Config{AI: AI{Gemini: GeminiConfig{APIKey: "YOUR_API_KEY"}}}
	assert.False(t, cfg.HasGemini())
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 3*time.Second, Duration("3s", time.Minute))
	assert.Equal(t, time.Minute, Duration("", time.Minute))
	assert.Equal(t, time.Minute, Duration("nope", time.Minute))
}

func TestLoadShowsDefault(t *testing.T) {
	catalog, err := LoadShows("")
	require.NoError(t, err)

	show, err := catalog.Get("hootline")
	require.NoError(t, err)
	assert.Equal(t, core.DefaultShow(), show)

	_, err = catalog.Get("missing")
	assert.Error(t, err)
}

func TestParseShows(t *testing.T) {
	catalog, err := ParseShows([]byte(`
shows:
  - id: sports-hour
    name: Sports Hour
    segments:
      - topic: Formula 1
        minutes: 5
      - topic: arsenal
        minutes: 3
`))
	require.NoError(t, err)

	show, err := catalog.Get("sports-hour")
	require.NoError(t, err)
	require.Len(t, show.Segments, 2)
	assert.Equal(t, core.TopicFormula1, show.Segments[0].Topic)
	assert.Equal(t, core.TopicArsenal, show.Segments[1].Topic)
	assert.Equal(t, 3, show.Segments[1].Minutes)
}

func TestParseShowsRejectsBadCatalogs(t *testing.T) {
	tests := map[string]string{
		"empty":         "shows: []\n",
		"unknown topic": "shows:\n  - id: a\n    segments:\n      - topic: Knitting\n        minutes: 1\n",
		"duplicate id":  "shows:\n  - id: a\n    segments: [{topic: Seattle, minutes: 1}]\n  - id: a\n    segments: [{topic: Seattle, minutes: 1}]\n",
		"no minutes":    "shows:\n  - id: a\n    segments: [{topic: Seattle}]\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseShows([]byte(body))
			assert.Error(t, err)
		})
	}
}
