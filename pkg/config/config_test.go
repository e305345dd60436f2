package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestInitConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg, err := InitConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.FileExists(t, path)

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), loaded)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
[checker]
strict_case = false
small_doc_threshold = 500

[lexicon]
path = "words.tsv"
cache_ttl_seconds = 0

[watch]
debounce_ms = 50
large_debounce_ms = 10
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.False(t, cfg.Checker.StrictCase)
	assert.True(t, cfg.Checker.ResyncIncremental, "unset keys keep defaults")
	assert.Equal(t, 500, cfg.Checker.SmallDocThreshold)
	assert.Equal(t, "words.tsv", cfg.Lexicon.Path)
	assert.Equal(t, time.Duration(0), cfg.Lexicon.CacheTTL())
	assert.Equal(t, 50, cfg.Watch.LargeDebounceMs, "large debounce never below the small one")
}

func TestLoadConfigPartialRecovery(t *testing.T) {
	path := writeConfig(t, `
[checker]
strict_case = "nope"
small_doc_threshold = 2000

[cli]
color = false
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.Checker.StrictCase, "wrong type falls back to default")
	assert.Equal(t, 2000, cfg.Checker.SmallDocThreshold)
	assert.False(t, cfg.CLI.Color)
}

func TestLoadConfigGarbage(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "this is = = not toml ["))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigWithPriorityCustomPath(t *testing.T) {
	path := writeConfig(t, "[server]\nmax_text_size = 1024\n")
	cfg, used, err := LoadConfigWithPriority(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, 1024, cfg.Server.MaxTextSize)
}

func TestUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := DefaultConfig()
	strict := false
	threshold := -5
	require.NoError(t, cfg.Update(path, &strict, nil, &threshold))
	assert.Equal(t, 10000, cfg.Checker.SmallDocThreshold)

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.False(t, loaded.Checker.StrictCase)
}

func TestWatchDebounce(t *testing.T) {
	w := DefaultConfig().Watch
	assert.Equal(t, 100*time.Millisecond, w.Debounce(10, 10000))
	assert.Equal(t, 200*time.Millisecond, w.Debounce(10001, 10000))
}
