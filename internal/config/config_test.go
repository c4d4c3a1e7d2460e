package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir is a stand-in for testing.T.Chdir, which requires Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Errorf("restoring working directory: %v", err)
		}
	})
}

func loadWithDefaults(t *testing.T) *Config {
	t.Helper()
	t.Setenv("KIGAERS_LLM_OPENAI_API_KEY", "test-key")

	// Avoid picking up a config.yaml from the working directory.
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg := loadWithDefaults(t)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 9091, cfg.Server.MetricsPort)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.HTTPAddress())
	assert.Equal(t, "0.0.0.0:9091", cfg.Server.MetricsAddress())

	assert.Equal(t, "kiga-ers.db", cfg.Storage.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)

	assert.Equal(t, "https://export.arxiv.org/api", cfg.ArXiv.BaseURL)
	assert.InDelta(t, 0.34, cfg.ArXiv.RateLimit, 1e-9)
	assert.Equal(t, "cs.AI", cfg.ArXiv.DefaultCategory)

	assert.Equal(t, 20, cfg.Deck.PageSize)
	assert.Equal(t, 2, cfg.Deck.StackSize)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.OpenAI.Model)
	assert.Equal(t, "test-key", cfg.LLM.OpenAI.APIKey)

	assert.Equal(t, int64(25*1024*1024), cfg.PDF.MaxSizeBytes)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("KIGAERS_SERVER_HTTP_PORT", "9000")
	t.Setenv("KIGAERS_ARXIV_DEFAULT_CATEGORY", "cs.LG")
	t.Setenv("KIGAERS_DECK_PAGE_SIZE", "50")
	t.Setenv("KIGAERS_LOGGING_LEVEL", "debug")

	cfg := loadWithDefaults(t)

	assert.Equal(t, 9000, cfg.Server.HTTPPort)
	assert.Equal(t, "cs.LG", cfg.ArXiv.DefaultCategory)
	assert.Equal(t, 50, cfg.Deck.PageSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_MissingAPIKey(t *testing.T) {
	t.Setenv("KIGAERS_LLM_OPENAI_API_KEY", "")
	chdir(t, t.TempDir())

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KIGAERS_LLM_OPENAI_API_KEY")
}

func TestLoad_AnthropicProviderKey(t *testing.T) {
	t.Setenv("KIGAERS_LLM_PROVIDER", "anthropic")
	t.Setenv("KIGAERS_LLM_ANTHROPIC_API_KEY", "anthropic-key")
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "anthropic-key", cfg.LLM.Anthropic.APIKey)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := loadWithDefaults(t)
		return cfg
	}

	t.Run("rejects bad ports", func(t *testing.T) {
		cfg := valid()
		cfg.Server.HTTPPort = 0
		assert.Error(t, cfg.Validate())

		cfg = valid()
		cfg.Server.MetricsPort = 70000
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects empty storage path", func(t *testing.T) {
		cfg := valid()
		cfg.Storage.Path = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects unknown log levels", func(t *testing.T) {
		cfg := valid()
		cfg.Logging.Level = "verbose"
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects non-positive rate limit and deck sizes", func(t *testing.T) {
		cfg := valid()
		cfg.ArXiv.RateLimit = 0
		assert.Error(t, cfg.Validate())

		cfg = valid()
		cfg.Deck.PageSize = 0
		assert.Error(t, cfg.Validate())

		cfg = valid()
		cfg.Deck.StackSize = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects unsupported providers", func(t *testing.T) {
		cfg := valid()
		cfg.LLM.Provider = "bard"
		assert.Error(t, cfg.Validate())
	})
}
