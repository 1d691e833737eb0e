package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"REDINSIGHT_DB_PATH", "REDINSIGHT_PORT", "REDINSIGHT_LOG_LEVEL", "XHS_COOKIE",
		"REDDIT_CLIENT_ID", "REDDIT_CLIENT_SECRET", "OPENAI_API_KEY", "OPENAI_BASE_URL",
		"OPENAI_MODEL", "ANTHROPIC_API_KEY", "SLACK_WEBHOOK_URL", "DISCORD_WEBHOOK_URL", "NATS_URL",
	} {
		t.Setenv(k, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.Equal(t, 20, cfg.Engine.HotWordsTopN)
	assert.Equal(t, 10, cfg.Engine.AuthorsTopN)
	assert.Equal(t, 10, cfg.Engine.TagsTopN)
	assert.Equal(t, 10*time.Minute, cfg.Search.ParseCacheTTL())
	assert.Equal(t, "@every 30m", cfg.Schedule.RankingCron)
	assert.True(t, cfg.Sources.Demo.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileAndEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  path: /tmp/x.db
server:
  port: 9000
  read_timeout: 5s
search:
  max_posts: 8
  cache_ttl: bogus
sources:
  rss:
    enabled: true
    feeds:
      - name: notes
        url: https://example.com/feed
schedule:
  categories: [food, travel]
`), 0o644))

	t.Setenv("REDINSIGHT_PORT", "9100")
	t.Setenv("XHS_COOKIE", "a1=abc")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("NATS_URL", "nats://localhost:4222")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/x.db", cfg.Database.Path)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ParseReadTimeout())
	assert.Equal(t, 120*time.Second, cfg.Server.ParseWriteTimeout())
	assert.Equal(t, 8, cfg.Search.MaxPosts)
	assert.Equal(t, time.Duration(0), cfg.Search.ParseCacheTTL())
	require.Len(t, cfg.Sources.RSS.Feeds, 1)
	assert.Equal(t, "notes", cfg.Sources.RSS.Feeds[0].Name)
	assert.Equal(t, []string{"food", "travel"}, cfg.Schedule.Categories)
	assert.Equal(t, 10, cfg.Schedule.MaxItems)

	assert.True(t, cfg.Sources.XHS.Enabled)
	assert.Equal(t, "a1=abc", cfg.Sources.XHS.Cookie)
	assert.True(t, cfg.LLM.Enabled)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.True(t, cfg.Alerts.NATS.Enabled)
	assert.Equal(t, "redinsight.alerts", cfg.Alerts.NATS.Subject)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("server: [oops"), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "parse config")

	invalid := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("server:\n  port: 70000\nllm:\n  enabled: true\n  provider: gemini\n"), 0o644))
	_, err = Load(invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port 70000 out of range")
	assert.Contains(t, err.Error(), "llm.provider")
}

func TestXHSOptions(t *testing.T) {
	opts := XHSConfig{Headless: true, Timeout: "15s", Settle: "nope"}.Options()
	assert.True(t, opts.Headless)
	assert.Equal(t, 15*time.Second, opts.Timeout)
	assert.Equal(t, 3*time.Second, opts.Settle)
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		n, def, want int
	}{
		{0, 5, 5},
		{3, 5, 3},
		{-4, 5, 1},
		{50, 5, 20},
		{0, 0, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampLimit(tt.n, tt.def), "ClampLimit(%d, %d)", tt.n, tt.def)
	}
}
