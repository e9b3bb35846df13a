package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/dshills/diffsense/internal/cache"
	"github.com/dshills/diffsense/internal/gitctx"
	"github.com/dshills/diffsense/internal/prompt"
	"github.com/dshills/diffsense/internal/redact"
	"github.com/dshills/diffsense/internal/runner"
)

// Observer receives state changes for a document host. Any field may be nil.
// Callbacks run on the analyzing goroutine.
type Observer struct {
	OnPending func(src gitctx.Source)
	OnResult  func(res *Result)
	OnError   func(err error)
}

// Options configures an Analyzer.
type Options struct {
	// Dir is the repository working directory. Empty means the current one.
	Dir string

	// Runner executes the analysis tool. Required.
	Runner *runner.Runner

	// Template is the prompt template; empty selects prompt.DefaultTemplate.
	Template string

	Diff gitctx.DiffOptions

	RedactSecrets bool
	RedactPaths   []string

	// Cache and Last are optional.
	Cache *cache.Cache
	Last  *cache.LastStore

	Observer Observer
	Logger   *zap.Logger

	// Now overrides the clock in tests.
	Now func() time.Time
}

// Analyzer runs analyses one at a time and remembers the last result.
type Analyzer struct {
	opts Options
	log  *zap.Logger
	now  func() time.Time
	sem  *semaphore.Weighted

	mu         sync.Mutex
	last       *Result
	lastSource gitctx.Source
}

// New creates an Analyzer.
func New(opts Options) (*Analyzer, error) {
	if opts.Runner == nil {
		return nil, errors.New("analysis: runner is required")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Analyzer{
		opts:       opts,
		log:        log.Named("analysis"),
		now:        now,
		sem:        semaphore.NewWeighted(1),
		lastSource: gitctx.AllChanges,
	}, nil
}

// InProgress reports whether an analysis is running.
func (a *Analyzer) InProgress() bool {
	if a.sem.TryAcquire(1) {
		a.sem.Release(1)
		return false
	}
	return true
}

// Analyze runs one analysis of src.
func (a *Analyzer) Analyze(ctx context.Context, src gitctx.Source) (*Result, error) {
	return a.run(ctx, src, false)
}

// Rerun repeats the most recently requested source, all changes when nothing
// was requested yet, bypassing the response cache.
func (a *Analyzer) Rerun(ctx context.Context) (*Result, error) {
	return a.run(ctx, a.LastSource(), true)
}

// LastSource returns the most recently requested source.
func (a *Analyzer) LastSource() gitctx.Source {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastSource
}

// Last returns the most recent successful result, falling back to the
// persisted one from an earlier process.
func (a *Analyzer) Last() (*Result, bool) {
	a.mu.Lock()
	last := a.last
	a.mu.Unlock()
	if last != nil {
		return last, true
	}
	if a.opts.Last == nil {
		return nil, false
	}
	var stored Result
	ok, err := a.opts.Last.Load(&stored)
	if err != nil {
		a.log.Warn("loading persisted result", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &stored, true
}

func (a *Analyzer) run(ctx context.Context, src gitctx.Source, force bool) (*Result, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if !a.sem.TryAcquire(1) {
		return nil, ErrBusy
	}
	defer a.sem.Release(1)
	// the runner may be shared with another analyzer
	if a.opts.Runner.InProgress() {
		return nil, ErrBusy
	}

	a.mu.Lock()
	a.lastSource = src
	a.mu.Unlock()

	res, err := a.analyze(ctx, src, force)
	if err != nil {
		a.report(src, err)
		return nil, err
	}
	a.remember(res)
	if a.opts.Observer.OnResult != nil {
		a.opts.Observer.OnResult(res)
	}
	return res, nil
}

func (a *Analyzer) analyze(ctx context.Context, src gitctx.Source, force bool) (*Result, error) {
	start := a.now()
	if a.opts.Observer.OnPending != nil {
		a.opts.Observer.OnPending(src)
	}

	if err := gitctx.CheckRepo(ctx, a.opts.Dir); err != nil {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		return nil, fmt.Errorf("%w: %w", ErrNoDiffSource, err)
	}

	version, err := a.opts.Runner.Check(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		return nil, err
	}
	a.log.Debug("tool available", zap.String("command", a.opts.Runner.Command()), zap.String("version", version))

	gitStart := a.now()
	diff, err := gitctx.Diff(ctx, a.opts.Dir, src, a.opts.Diff)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		return nil, fmt.Errorf("collecting diff: %w", err)
	}
	gitMs := a.now().Sub(gitStart).Milliseconds()
	if diff.Empty() {
		return nil, &NoChangesError{Source: src}
	}

	text, stats := a.scrub(diff.Diff)

	req := prompt.NewRequest(text, a.opts.Template)
	promptText := req.Text()
	key := cache.BuildCacheKey(a.opts.Runner.Command(), a.opts.Runner.Args(), promptText)

	res := &Result{
		ID:         uuid.NewString(),
		Tool:       a.opts.Runner.Command(),
		DiffLength: utf8.RuneCountInString(diff.Diff),
		Source:     src,
		Repo: RepoInfo{
			Root:   diff.Repo.Root,
			Head:   diff.Repo.Head,
			Branch: diff.Repo.Branch,
		},
		Files:     diff.Files,
		Languages: prompt.Languages(diff.Files),
		Truncated: diff.Truncated,
		Redacted:  stats.Secrets,
		Withheld:  stats.Withheld,
	}

	toolStart := a.now()
	if cached, ok := a.cached(key, force); ok {
		res.Response = cached
		res.Cached = true
	} else {
		out, err := a.opts.Runner.Run(ctx, promptText)
		if err != nil {
			return nil, err
		}
		res.Response = out
		if a.opts.Cache != nil {
			if err := a.opts.Cache.Put(key, out); err != nil {
				a.log.Warn("writing cache entry", zap.Error(err))
			}
		}
	}

	end := a.now()
	res.Timestamp = end
	res.References = ExtractReferences(res.Response, res.Files)
	res.Timing = Timing{
		GitMs:   gitMs,
		ToolMs:  end.Sub(toolStart).Milliseconds(),
		TotalMs: end.Sub(start).Milliseconds(),
	}
	a.log.Info("analysis complete",
		zap.String("id", res.ID),
		zap.String("source", src.String()),
		zap.Int("diffLength", res.DiffLength),
		zap.Int("responseBytes", len(res.Response)),
		zap.Bool("cached", res.Cached),
		zap.Int64("totalMs", res.Timing.TotalMs))
	return res, nil
}

func (a *Analyzer) scrub(diff string) (string, redact.Stats) {
	var (
		text  string
		stats redact.Stats
	)
	switch {
	case a.opts.RedactSecrets:
		text, stats = redact.Diff(diff, a.opts.RedactPaths)
	case len(a.opts.RedactPaths) > 0:
		text, stats = redact.Withhold(diff, a.opts.RedactPaths)
	default:
		return diff, stats
	}
	if stats.Changed() {
		a.log.Info("diff redacted",
			zap.Int("secrets", stats.Secrets),
			zap.Strings("rules", stats.Rules()),
			zap.Strings("withheld", stats.Withheld))
	}
	return text, stats
}

func (a *Analyzer) cached(key string, force bool) (string, bool) {
	if force || a.opts.Cache == nil {
		return "", false
	}
	return a.opts.Cache.Get(key)
}

func (a *Analyzer) remember(res *Result) {
	a.mu.Lock()
	a.last = res
	a.mu.Unlock()
	if a.opts.Last == nil {
		return
	}
	if err := a.opts.Last.Save(res); err != nil {
		a.log.Warn("persisting last result", zap.Error(err))
	}
}

// report forwards err to the observer unless it is a cancellation.
func (a *Analyzer) report(src gitctx.Source, err error) {
	kind := Classify(err)
	if kind.Silent() {
		a.log.Info("analysis cancelled", zap.String("source", src.String()))
		return
	}
	a.log.Info("analysis failed", zap.String("source", src.String()), zap.Stringer("kind", kind), zap.Error(err))
	if a.opts.Observer.OnError != nil {
		a.opts.Observer.OnError(err)
	}
}
