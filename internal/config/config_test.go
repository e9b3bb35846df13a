package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	for env := range envKeys {
		t.Setenv(env, "")
	}
	return dir
}

func writeConfigFile(t *testing.T, dir, content string) {
	t.Helper()
	path := filepath.Join(dir, "diffsense", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "claude", cfg.Command)
	assert.Equal(t, []string{"-p", "-"}, cfg.Args)
	assert.Equal(t, "terminal", cfg.Format)
	assert.Equal(t, 10*time.Minute, cfg.Timeout)
	assert.Equal(t, 3, cfg.ContextLines)
	assert.Equal(t, 500000, cfg.MaxDiffBytes)
	assert.True(t, cfg.Privacy.RedactSecrets)
	assert.True(t, cfg.Cache.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestDefault_ArgsNotShared(t *testing.T) {
	a := Default()
	a.Args[0] = "--changed"
	assert.Equal(t, "-p", Default().Args[0], "default args were mutated through another config")
}

func TestMergeEnv(t *testing.T) {
	isolate(t)
	t.Setenv("DIFFSENSE_COMMAND", "/opt/bin/claude")
	t.Setenv("DIFFSENSE_PROMPT", "Review:\n{DIFF_PLACEHOLDER}")
	t.Setenv("DIFFSENSE_FORMAT", "json")
	t.Setenv("DIFFSENSE_TIMEOUT", "90s")
	t.Setenv("DIFFSENSE_MAX_DIFF_BYTES", "1000")
	t.Setenv("DIFFSENSE_CONTEXT_LINES", "5")
	t.Setenv("DIFFSENSE_CACHE", "false")
	t.Setenv("DIFFSENSE_ADDR", "127.0.0.1:9000")

	cfg := Default()
	require.NoError(t, mergeEnv(&cfg))

	assert.Equal(t, "/opt/bin/claude", cfg.Command)
	assert.Equal(t, "Review:\n{DIFF_PLACEHOLDER}", cfg.Prompt)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
	assert.Equal(t, 1000, cfg.MaxDiffBytes)
	assert.Equal(t, 5, cfg.ContextLines)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "127.0.0.1:9000", cfg.Serve.Addr)
}

func TestMergeEnv_Invalid(t *testing.T) {
	isolate(t)
	t.Setenv("DIFFSENSE_CONTEXT_LINES", "many")

	cfg := Default()
	err := mergeEnv(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DIFFSENSE_CONTEXT_LINES", "error should name the variable")
}

func TestMergeOverrides(t *testing.T) {
	cfg := Default()
	err := mergeOverrides(&cfg, map[string]string{
		"command":    "codex",
		"format":     "markdown",
		"timeout":    "2m",
		"serve.addr": ":9000",
		"promptFile": "",
	})
	require.NoError(t, err)
	assert.Equal(t, "codex", cfg.Command)
	assert.Equal(t, "markdown", cfg.Format)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Equal(t, ":9000", cfg.Serve.Addr)
	assert.Empty(t, cfg.PromptFile, "empty overrides are skipped")
}

func TestMergeOverrides_Nil(t *testing.T) {
	cfg := Default()
	require.NoError(t, mergeOverrides(&cfg, nil))
	assert.Equal(t, Default(), cfg, "nil overrides should not change config")
}

func TestSetField(t *testing.T) {
	tests := []struct {
		key   string
		value string
		check func(*testing.T, Config)
	}{
		{"command", "claude-dev", func(t *testing.T, c Config) { assert.Equal(t, "claude-dev", c.Command) }},
		{"args", "-p  --verbose -", func(t *testing.T, c Config) { assert.Equal(t, []string{"-p", "--verbose", "-"}, c.Args) }},
		{"timeout", "45", func(t *testing.T, c Config) { assert.Equal(t, 45*time.Second, c.Timeout) }},
		{"timeout", "1m30s", func(t *testing.T, c Config) { assert.Equal(t, 90*time.Second, c.Timeout) }},
		{"contextLines", "7", func(t *testing.T, c Config) { assert.Equal(t, 7, c.ContextLines) }},
		{"exclude", "a/**, *.pb.go,,", func(t *testing.T, c Config) { assert.Equal(t, []string{"a/**", "*.pb.go"}, c.Exclude) }},
		{"cache.enabled", "false", func(t *testing.T, c Config) { assert.False(t, c.Cache.Enabled) }},
		{"cache.ttlSeconds", "60", func(t *testing.T, c Config) { assert.Equal(t, 60, c.Cache.TTLSeconds) }},
		{"privacy.redactSecrets", "false", func(t *testing.T, c Config) { assert.False(t, c.Privacy.RedactSecrets) }},
		{"privacy.redactPaths", "**/*.pem", func(t *testing.T, c Config) { assert.Equal(t, []string{"**/*.pem"}, c.Privacy.RedactPaths) }},
		{"serve.watch", "true", func(t *testing.T, c Config) { assert.True(t, c.Serve.Watch) }},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := Default()
			require.NoError(t, SetField(&cfg, tt.key, tt.value))
			tt.check(t, cfg)
		})
	}
}

func TestSetField_Errors(t *testing.T) {
	tests := []struct{ key, value string }{
		{"unknown", "value"},
		{"contextLines", "abc"},
		{"maxDiffBytes", "1.5"},
		{"cache.enabled", "maybe"},
		{"timeout", "soon"},
	}
	for _, tt := range tests {
		cfg := Default()
		assert.Error(t, SetField(&cfg, tt.key, tt.value), "%s=%s", tt.key, tt.value)
	}
}

func TestKeysAreSettable(t *testing.T) {
	for _, key := range Keys {
		cfg := Default()
		value := "1"
		switch key {
		case "cache.enabled", "privacy.redactSecrets", "serve.watch":
			value = "true"
		}
		assert.NoError(t, SetField(&cfg, key, value), key)
	}
}

func TestGetField_RoundTrip(t *testing.T) {
	for _, key := range Keys {
		cfg := Default()
		value, err := GetField(cfg, key)
		require.NoError(t, err, key)
		require.NoError(t, SetField(&cfg, key, value), key)
		again, _ := GetField(cfg, key)
		assert.Equal(t, value, again, key)
	}

	got, _ := GetField(Default(), "timeout")
	assert.Equal(t, "10m0s", got)
	_, err := GetField(Default(), "nope")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Command = " "
	cfg.ContextLines = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command")
	assert.Contains(t, err.Error(), "contextLines")
}

func TestConfigPrecedence(t *testing.T) {
	isolate(t)
	require.NoError(t, Save(Config{Command: "from-file", Format: "markdown"}))
	t.Setenv("DIFFSENSE_COMMAND", "from-env")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Command, "env wins over file")
	assert.Equal(t, "markdown", cfg.Format, "file wins over defaults")

	cfg, err = Load(map[string]string{"command": "from-flag"})
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.Command, "flag wins over env")
}

func TestLoadFile_PartialKeepsDefaults(t *testing.T) {
	dir := isolate(t)
	writeConfigFile(t, dir, "timeout: 3m\ncache:\n  enabled: false\nprivacy:\n  redactSecrets: false\n")

	cfg := Default()
	found, err := LoadFile(&cfg)
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, 3*time.Minute, cfg.Timeout)
	assert.False(t, cfg.Cache.Enabled, "explicit false in the file")
	assert.False(t, cfg.Privacy.RedactSecrets, "explicit false in the file")
	assert.Equal(t, 86400, cfg.Cache.TTLSeconds, "unset keys keep defaults")
	assert.Equal(t, "claude", cfg.Command, "unset keys keep defaults")
}

func TestLoadFile_Invalid(t *testing.T) {
	dir := isolate(t)
	writeConfigFile(t, dir, "timeout: [not a duration\n")

	cfg := Default()
	_, err := LoadFile(&cfg)
	assert.Error(t, err)
}

func TestLoadFile_NoFile(t *testing.T) {
	isolate(t)
	cfg := Default()
	found, err := LoadFile(&cfg)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "claude", cfg.Command)
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	isolate(t)
	cfg := Default()
	cfg.Timeout = 42 * time.Second
	cfg.Exclude = []string{"gen/**"}
	cfg.Serve.Watch = true
	require.NoError(t, Save(cfg))

	path, _ := ConfigPath()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "timeout: 42s", "durations are saved readable")

	loaded, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 42*time.Second, loaded.Timeout)
	assert.True(t, loaded.Serve.Watch)
	assert.Equal(t, []string{"gen/**"}, loaded.Exclude)
}

func TestLoad_ValidationError(t *testing.T) {
	isolate(t)
	_, err := Load(map[string]string{"contextLines": "-2"})
	assert.Error(t, err)
}

func TestConfigDir_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")
	dir, err := ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xdg-test/diffsense", dir)

	path, _ := ConfigPath()
	assert.Equal(t, "/tmp/xdg-test/diffsense/config.yaml", path)
}

func TestTemplate(t *testing.T) {
	cfg := Default()
	tmpl, err := cfg.Template()
	require.NoError(t, err)
	assert.Empty(t, tmpl)

	cfg.Prompt = "inline {DIFF_PLACEHOLDER}"
	tmpl, _ = cfg.Template()
	assert.Equal(t, cfg.Prompt, tmpl)

	path := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("from file {DIFF_PLACEHOLDER}"), 0o644))
	cfg.PromptFile = path
	tmpl, _ = cfg.Template()
	assert.Equal(t, "from file {DIFF_PLACEHOLDER}", tmpl, "promptFile wins")

	cfg.PromptFile = filepath.Join(t.TempDir(), "missing.txt")
	_, err = cfg.Template()
	assert.Error(t, err)
}
