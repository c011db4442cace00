package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		Input
		Output
		Cards
		MaskedLM
		Stopwords
		Extractor
		Watch
		Logging
	}

	Input struct {
		Folder string
	}
	Output struct {
		Folder string
	}
	Cards struct {
		DeckName string
		UseAI    bool
	}
	MaskedLM struct {
		URL         string
		Model       string
		Token       string
		Timeout     time.Duration
		MinInterval time.Duration // Minimum gap between inference requests
	}
	Stopwords struct {
		URL      string
		CacheDir string
	}
	Extractor struct {
		EvalTimeout time.Duration // Upper bound for evaluating one sidecar file
	}
	Watch struct {
		Schedule string // Cron format: "0 * * * *" = hourly
	}
	Logging struct {
		Level string
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("input_folder", "")
	v.SetDefault("output_folder", DefaultOutputFolder)
	v.SetDefault("deck_name", DefaultDeckName)
	v.SetDefault("use_ai", true)

	v.SetDefault("masked_lm_url", DefaultMaskedLMURL)
	v.SetDefault("masked_lm_model", DefaultMaskedLMModel)
	v.SetDefault("masked_lm_token", "")
	v.SetDefault("masked_lm_timeout", "30s")
	v.SetDefault("masked_lm_min_interval", "100ms")

	v.SetDefault("stopwords_url", DefaultStopwordsURL)
	v.SetDefault("stopwords_cache_dir", defaultStopwordsCacheDir())

	v.SetDefault("lua_eval_timeout", "5s")
	v.SetDefault("watch_schedule", "0 * * * *") // Hourly at :00
	v.SetDefault("log_level", "info")

	return &Config{
		Input: Input{
			Folder: v.GetString("INPUT_FOLDER"),
		},
		Output: Output{
			Folder: v.GetString("OUTPUT_FOLDER"),
		},
		Cards: Cards{
			DeckName: v.GetString("DECK_NAME"),
			UseAI:    v.GetBool("USE_AI"),
		},
		MaskedLM: MaskedLM{
			URL:         v.GetString("MASKED_LM_URL"),
			Model:       v.GetString("MASKED_LM_MODEL"),
			Token:       v.GetString("MASKED_LM_TOKEN"),
			Timeout:     v.GetDuration("MASKED_LM_TIMEOUT"),
			MinInterval: v.GetDuration("MASKED_LM_MIN_INTERVAL"),
		},
		Stopwords: Stopwords{
			URL:      v.GetString("STOPWORDS_URL"),
			CacheDir: v.GetString("STOPWORDS_CACHE_DIR"),
		},
		Extractor: Extractor{
			EvalTimeout: v.GetDuration("LUA_EVAL_TIMEOUT"),
		},
		Watch: Watch{
			Schedule: v.GetString("WATCH_SCHEDULE"),
		},
		Logging: Logging{
			Level: v.GetString("LOG_LEVEL"),
		},
	}
}

// SlogLevel maps the configured level name, defaulting to info.
func (l Logging) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(l.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
