package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/diffsense/internal/prompt"
	"github.com/dshills/diffsense/internal/runner"
)

// Config represents the diffsense configuration.
type Config struct {
	Command      string        `yaml:"command"`
	Args         []string      `yaml:"args"`
	Prompt       string        `yaml:"prompt,omitempty"`
	PromptFile   string        `yaml:"promptFile,omitempty"`
	Timeout      time.Duration `yaml:"timeout"`
	Format       string        `yaml:"format"`
	ContextLines int           `yaml:"contextLines"`
	MaxDiffBytes int           `yaml:"maxDiffBytes"`
	Exclude      []string      `yaml:"exclude"`
	Cache        CacheConfig   `yaml:"cache"`
	Privacy      PrivacyConfig `yaml:"privacy"`
	Serve        ServeConfig   `yaml:"serve"`
}

// CacheConfig controls response caching.
type CacheConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Dir        string `yaml:"dir,omitempty"`
	TTLSeconds int    `yaml:"ttlSeconds"`
}

// PrivacyConfig controls what is removed from the diff before analysis.
type PrivacyConfig struct {
	RedactSecrets bool     `yaml:"redactSecrets"`
	RedactPaths   []string `yaml:"redactPaths,omitempty"`
}

// ServeConfig configures the local preview host.
type ServeConfig struct {
	Addr  string `yaml:"addr"`
	Watch bool   `yaml:"watch"`
}

// Keys lists the names accepted by SetField.
var Keys = []string{
	"command", "args", "prompt", "promptFile", "timeout", "format",
	"contextLines", "maxDiffBytes", "exclude",
	"cache.enabled", "cache.dir", "cache.ttlSeconds",
	"privacy.redactSecrets", "privacy.redactPaths",
	"serve.addr", "serve.watch",
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Command:      runner.DefaultCommand,
		Args:         append([]string(nil), runner.DefaultArgs...),
		Timeout:      10 * time.Minute,
		Format:       "terminal",
		ContextLines: 3,
		MaxDiffBytes: 500000,
		Exclude:      []string{"vendor/**", "**/*.gen.go", "**/dist/**", "**/*.lock", "**/go.sum"},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
		Serve: ServeConfig{
			Addr: "127.0.0.1:7878",
		},
	}
}

// Validate checks values that cannot be corrected silently.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Command) == "" {
		errs = append(errs, errors.New("command must not be empty"))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	if c.ContextLines < 0 {
		errs = append(errs, fmt.Errorf("contextLines must not be negative, got %d", c.ContextLines))
	}
	if c.MaxDiffBytes < 0 {
		errs = append(errs, fmt.Errorf("maxDiffBytes must not be negative, got %d", c.MaxDiffBytes))
	}
	if c.Cache.TTLSeconds < 0 {
		errs = append(errs, fmt.Errorf("cache.ttlSeconds must not be negative, got %d", c.Cache.TTLSeconds))
	}
	return errors.Join(errs...)
}

// Template resolves the prompt template. promptFile wins over an inline
// prompt; an empty result selects the built-in template.
func (c Config) Template() (string, error) {
	if c.PromptFile != "" {
		return prompt.LoadTemplate(c.PromptFile)
	}
	return c.Prompt, nil
}

// ConfigDir returns the platform-appropriate config directory for diffsense.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "diffsense"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "diffsense"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "diffsense"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "diffsense"), nil
	default:
		return filepath.Join(home, ".config", "diffsense"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadFile reads the config file over cfg. Keys absent from the file keep
// their current values. A missing file is not an error.
func LoadFile(cfg *Config) (bool, error) {
	path, err := ConfigPath()
	if err != nil {
		return false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return false, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return true, nil
}

// Marshal encodes cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only flags the user set).
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()

	if _, err := LoadFile(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var envKeys = map[string]string{
	"DIFFSENSE_COMMAND":        "command",
	"DIFFSENSE_PROMPT":         "prompt",
	"DIFFSENSE_FORMAT":         "format",
	"DIFFSENSE_TIMEOUT":        "timeout",
	"DIFFSENSE_MAX_DIFF_BYTES": "maxDiffBytes",
	"DIFFSENSE_CONTEXT_LINES":  "contextLines",
	"DIFFSENSE_CACHE":          "cache.enabled",
	"DIFFSENSE_ADDR":           "serve.addr",
}

func mergeEnv(cfg *Config) error {
	for env, key := range envKeys {
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		if err := SetField(cfg, key, v); err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}
	}
	return nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	for key, v := range overrides {
		if v == "" {
			continue
		}
		if err := SetField(cfg, key, v); err != nil {
			return fmt.Errorf("flag %s: %w", key, err)
		}
	}
	return nil
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "command":
		cfg.Command = value
	case "args":
		cfg.Args = strings.Fields(value)
	case "prompt":
		cfg.Prompt = value
	case "promptFile":
		cfg.PromptFile = value
	case "timeout":
		d, err := parseDuration(value)
		if err != nil {
			return fmt.Errorf("timeout must be a duration such as 90s or 5m: %w", err)
		}
		cfg.Timeout = d
	case "format":
		cfg.Format = value
	case "contextLines":
		return setInt(&cfg.ContextLines, key, value)
	case "maxDiffBytes":
		return setInt(&cfg.MaxDiffBytes, key, value)
	case "exclude":
		cfg.Exclude = splitList(value)
	case "cache.enabled":
		return setBool(&cfg.Cache.Enabled, key, value)
	case "cache.dir":
		cfg.Cache.Dir = value
	case "cache.ttlSeconds":
		return setInt(&cfg.Cache.TTLSeconds, key, value)
	case "privacy.redactSecrets":
		return setBool(&cfg.Privacy.RedactSecrets, key, value)
	case "privacy.redactPaths":
		cfg.Privacy.RedactPaths = splitList(value)
	case "serve.addr":
		cfg.Serve.Addr = value
	case "serve.watch":
		return setBool(&cfg.Serve.Watch, key, value)
	default:
		return fmt.Errorf("unknown config key: %s (known keys: %s)", key, strings.Join(Keys, ", "))
	}
	return nil
}

// GetField returns a config field by key name in the form SetField accepts.
func GetField(cfg Config, key string) (string, error) {
	switch key {
	case "command":
		return cfg.Command, nil
	case "args":
		return strings.Join(cfg.Args, " "), nil
	case "prompt":
		return cfg.Prompt, nil
	case "promptFile":
		return cfg.PromptFile, nil
	case "timeout":
		return cfg.Timeout.String(), nil
	case "format":
		return cfg.Format, nil
	case "contextLines":
		return strconv.Itoa(cfg.ContextLines), nil
	case "maxDiffBytes":
		return strconv.Itoa(cfg.MaxDiffBytes), nil
	case "exclude":
		return strings.Join(cfg.Exclude, ","), nil
	case "cache.enabled":
		return strconv.FormatBool(cfg.Cache.Enabled), nil
	case "cache.dir":
		return cfg.Cache.Dir, nil
	case "cache.ttlSeconds":
		return strconv.Itoa(cfg.Cache.TTLSeconds), nil
	case "privacy.redactSecrets":
		return strconv.FormatBool(cfg.Privacy.RedactSecrets), nil
	case "privacy.redactPaths":
		return strings.Join(cfg.Privacy.RedactPaths, ","), nil
	case "serve.addr":
		return cfg.Serve.Addr, nil
	case "serve.watch":
		return strconv.FormatBool(cfg.Serve.Watch), nil
	}
	return "", fmt.Errorf("unknown config key: %s (known keys: %s)", key, strings.Join(Keys, ", "))
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s must be true or false: %w", key, err)
	}
	*dst = b
	return nil
}

// parseDuration accepts Go durations and plain seconds.
func parseDuration(value string) (time.Duration, error) {
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(value)
}

// splitList splits a comma separated list, dropping empty items.
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
