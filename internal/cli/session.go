package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/dshills/diffsense/internal/analysis"
	"github.com/dshills/diffsense/internal/cache"
	"github.com/dshills/diffsense/internal/config"
	"github.com/dshills/diffsense/internal/gitctx"
	"github.com/dshills/diffsense/internal/runner"
)

// Shared analysis flags
var (
	flagStaged       bool
	flagFile         string
	flagFormat       string
	flagOut          string
	flagNoCache      bool
	flagPromptFile   string
	flagCommand      string
	flagTimeout      string
	flagContextLines int
	flagMaxDiffBytes int
	flagExclude      string
	flagNoRedact     bool
)

// errUsage marks command-line mistakes that map to ExitUsageError.
var errUsage = errors.New("usage error")

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagCommand != "" {
		m["command"] = flagCommand
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagPromptFile != "" {
		m["promptFile"] = flagPromptFile
	}
	if flagTimeout != "" {
		m["timeout"] = flagTimeout
	}
	if flagContextLines > 0 {
		m["contextLines"] = strconv.Itoa(flagContextLines)
	}
	if flagMaxDiffBytes > 0 {
		m["maxDiffBytes"] = strconv.Itoa(flagMaxDiffBytes)
	}
	return m
}

func buildDiffOpts(cfg config.Config) gitctx.DiffOptions {
	opts := gitctx.DiffOptions{
		ContextLines: cfg.ContextLines,
		MaxDiffBytes: cfg.MaxDiffBytes,
		Exclude:      cfg.Exclude,
	}
	if flagExclude != "" {
		opts.Exclude = append(append([]string(nil), opts.Exclude...), splitComma(flagExclude)...)
	}
	return opts
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// sourceFromFlags turns --staged and --file into a diff source.
func sourceFromFlags() (gitctx.Source, error) {
	switch {
	case flagStaged && flagFile != "":
		return gitctx.Source{}, fmt.Errorf("%w: --staged and --file cannot be combined", errUsage)
	case flagStaged:
		return gitctx.Source{Mode: gitctx.ModeStaged}, nil
	case flagFile != "":
		return gitctx.Source{Mode: gitctx.ModeFile, Path: flagFile}, nil
	default:
		return gitctx.AllChanges, nil
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(buildOverrides())
	if err != nil {
		return config.Config{}, fmt.Errorf("%w: %w", errUsage, err)
	}
	if flagNoCache {
		cfg.Cache.Enabled = false
	}
	if flagNoRedact {
		cfg.Privacy.RedactSecrets = false
		console.Warn("secret redaction is disabled")
	}
	return cfg, nil
}

// sessionOptions carries what differs between analyze and serve.
type sessionOptions struct {
	Dir      string
	Observer analysis.Observer
	OnChunk  func([]byte)
}

func newRunner(cfg config.Config, dir string, onChunk func([]byte)) *runner.Runner {
	return runner.New(runner.Options{
		Command: cfg.Command,
		Args:    cfg.Args,
		Dir:     dir,
		Timeout: cfg.Timeout,
		OnChunk: onChunk,
		Logger:  logger,
	})
}

func newAnalyzer(cfg config.Config, opts sessionOptions) (*analysis.Analyzer, error) {
	tmpl, err := cfg.Template()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errUsage, err)
	}

	c, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		logger.Warn("cache unavailable", zap.Error(err))
		c = nil
	}
	last, err := cache.NewLastStore(cfg.Cache.Dir)
	if err != nil {
		logger.Warn("last result store unavailable", zap.Error(err))
		last = nil
	}

	return analysis.New(analysis.Options{
		Dir:           opts.Dir,
		Runner:        newRunner(cfg, opts.Dir, opts.OnChunk),
		Template:      tmpl,
		Diff:          buildDiffOpts(cfg),
		RedactSecrets: cfg.Privacy.RedactSecrets,
		RedactPaths:   cfg.Privacy.RedactPaths,
		Cache:         c,
		Last:          last,
		Observer:      opts.Observer,
		Logger:        logger,
	})
}

// exitCodeFor maps an analysis failure to the process exit code.
func exitCodeFor(err error) int {
	if errors.Is(err, errUsage) {
		return ExitUsageError
	}
	switch analysis.Classify(err) {
	case analysis.KindCancelled, analysis.KindEmptyDiff:
		return ExitSuccess
	case analysis.KindToolUnavailable, analysis.KindSpawnFailed:
		return ExitToolUnavailable
	case analysis.KindProcessFailed, analysis.KindBusy:
		return ExitAnalysisFailed
	default:
		return ExitRuntimeError
	}
}

// reportFailure prints err the way its kind calls for.
func reportFailure(err error) {
	kind := analysis.Classify(err)
	switch {
	case kind.Silent():
		logger.Debug("analysis cancelled")
		return
	case kind.Notice():
		console.Info("%s", err)
	default:
		console.Error("%s", err)
	}
	if hint := analysis.Hint(kind); hint != "" {
		console.Hint("%s", hint)
	}
}
