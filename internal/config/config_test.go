package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"INPUT_FOLDER", "OUTPUT_FOLDER", "DECK_NAME", "USE_AI",
		"MASKED_LM_URL", "MASKED_LM_MODEL", "MASKED_LM_TOKEN", "MASKED_LM_TIMEOUT", "MASKED_LM_MIN_INTERVAL",
		"STOPWORDS_URL", "STOPWORDS_CACHE_DIR", "LUA_EVAL_TIMEOUT", "WATCH_SCHEDULE", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg := NewConfig()

	assert.Equal(t, "", cfg.Input.Folder)
	assert.Equal(t, DefaultOutputFolder, cfg.Output.Folder)
	assert.Equal(t, DefaultDeckName, cfg.Cards.DeckName)
	assert.True(t, cfg.Cards.UseAI)
	assert.Equal(t, DefaultMaskedLMURL, cfg.MaskedLM.URL)
	assert.Equal(t, DefaultMaskedLMModel, cfg.MaskedLM.Model)
	assert.Equal(t, 30*time.Second, cfg.MaskedLM.Timeout)
	assert.Equal(t, 100*time.Millisecond, cfg.MaskedLM.MinInterval)
	assert.Equal(t, DefaultStopwordsURL, cfg.Stopwords.URL)
	assert.Contains(t, cfg.Stopwords.CacheDir, "koreader-anki")
	assert.Equal(t, 5*time.Second, cfg.Extractor.EvalTimeout)
	assert.Equal(t, "0 * * * *", cfg.Watch.Schedule)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestNewConfig_Environment(t *testing.T) {
	t.Setenv("INPUT_FOLDER", "/mnt/onboard")
	t.Setenv("OUTPUT_FOLDER", "/tmp/anki")
	t.Setenv("DECK_NAME", "Reading")
	t.Setenv("USE_AI", "false")
	t.Setenv("MASKED_LM_TOKEN", "hf_secret")
	t.Setenv("MASKED_LM_TIMEOUT", "2m")
	t.Setenv("LUA_EVAL_TIMEOUT", "250ms")
	t.Setenv("WATCH_SCHEDULE", "*/15 * * * *")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := NewConfig()

	assert.Equal(t, "/mnt/onboard", cfg.Input.Folder)
	assert.Equal(t, "/tmp/anki", cfg.Output.Folder)
	assert.Equal(t, "Reading", cfg.Cards.DeckName)
	assert.False(t, cfg.Cards.UseAI)
	assert.Equal(t, "hf_secret", cfg.MaskedLM.Token)
	assert.Equal(t, 2*time.Minute, cfg.MaskedLM.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Extractor.EvalTimeout)
	assert.Equal(t, "*/15 * * * *", cfg.Watch.Schedule)
	assert.Equal(t, slog.LevelDebug, cfg.Logging.SlogLevel())
}

func TestLogging_SlogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, Logging{Level: tt.level}.SlogLevel())
		})
	}
}
