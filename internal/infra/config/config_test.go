package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, "{}"))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTP.Address)
	require.Equal(t, "it_IT", cfg.Assistant.Culture)
	require.Equal(t, "Europe/Rome", cfg.Assistant.TimeZone)
	require.Equal(t, 0.5, cfg.Assistant.MinimumScore)
	require.Equal(t, "domani", cfg.Assistant.TomorrowWord)
	require.Equal(t, []int{801, 802, 803, 804}, cfg.Assistant.PluralConditionCodes)
	require.Contains(t, cfg.Assistant.Messages.NotUnderstood, "%s")
	require.Contains(t, cfg.HTTP.Retry.Exclude, "/api/v1/assistant/messages")
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, `
http:
  address: ":9090"
assistant:
  minimumScore: 0.7
`))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTP.Address)
	require.Equal(t, 0.7, cfg.Assistant.MinimumScore)
	// Untouched sections keep their defaults.
	require.Equal(t, "domani", cfg.Assistant.TomorrowWord)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, "{}"))
	t.Setenv("HTTP_ADDRESS", ":7070")
	t.Setenv("ASSISTANT_MINIMUM_SCORE", "0.8")
	t.Setenv("SEARCH_KEY", "search-secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":7070", cfg.HTTP.Address)
	require.Equal(t, 0.8, cfg.Assistant.MinimumScore)
	require.Equal(t, "search-secret", cfg.Search.Key)
}

func TestValidateRejectsBadScore(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, `
assistant:
  minimumScore: 1.5
`))

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "minimumScore")
}

func TestValidateRejectsAuthWithoutSecret(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, `
auth:
  enabled: true
`))

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "auth.secret")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
