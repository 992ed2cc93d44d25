package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTP.Address)
	require.Equal(t, "http://127.0.0.1:5000/api", cfg.Analytics.BaseURL)
	require.Equal(t, 500*time.Millisecond, cfg.Chat.ReplyDelay)
	require.False(t, cfg.Chat.LLM.Enabled())
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
http:
  address: ":9090"
analytics:
  baseUrl: "http://coach.internal:5000/api"
  timeout: 30s
chat:
  replyDelay: 250ms
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("API_BASE_URL", "http://localhost:5000/api")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load(Path(path))
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTP.Address)
	require.Equal(t, "http://localhost:5000/api", cfg.Analytics.BaseURL)
	require.Equal(t, 30*time.Second, cfg.Analytics.Timeout)
	require.Equal(t, 250*time.Millisecond, cfg.Chat.ReplyDelay)
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.AllowedOrigins)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(Path(filepath.Join(t.TempDir(), "missing.yaml")))
	require.Error(t, err)
	require.Contains(t, err.Error(), "read config file")
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := defaultConfig()
	cfg.HTTP.Address = ""
	cfg.Analytics.BaseURL = "not a url"
	cfg.Chat.ReplyDelay = -time.Second

	err := cfg.Validate()
	require.Error(t, err)
	require.Len(t, multierr.Errors(err), 3)
	require.Contains(t, err.Error(), "analytics.baseUrl")
}

func TestValidateLLMRequiresModel(t *testing.T) {
	cfg := defaultConfig()
	cfg.Chat.LLM.APIKey = "sk-test"
	cfg.Chat.LLM.Model = ""

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "chat.llm.model")
}
