// Package watch re-runs the analysis when the working tree changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/dshills/diffsense/internal/analysis"
	"github.com/dshills/diffsense/internal/gitctx"
)

// DefaultDebounce is the quiet period required before a change triggers.
const DefaultDebounce = 750 * time.Millisecond

// maxDirs bounds the number of directories registered with the OS.
const maxDirs = 4096

var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	".idea":        true,
	".vscode":      true,
}

// Git files whose changes alter the diff even though the tree is unchanged.
var gitFiles = map[string]bool{"index": true, "HEAD": true}

// Options configures a Watcher.
type Options struct {
	Root     string
	Debounce time.Duration
	// Ignore holds glob patterns relative to Root, as in gitctx.MatchesAny.
	Ignore []string
	// OnChange runs after a debounced change. ErrBusy results are dropped.
	OnChange func(ctx context.Context) error
	Logger   *zap.Logger
}

// Watcher watches a repository working tree.
type Watcher struct {
	opts    Options
	log     *zap.Logger
	watcher *fsnotify.Watcher
	dirs    int

	wg sync.WaitGroup
}

// New creates a Watcher and registers the directories under Root.
func New(opts Options) (*Watcher, error) {
	if opts.OnChange == nil {
		return nil, errors.New("watch: OnChange is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, err
	}
	opts.Root = root
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	w := &Watcher{opts: opts, log: log.Named("watch"), watcher: fw}
	if err := w.addTree(root); err != nil {
		fw.Close()
		return nil, err
	}
	if gitDir := filepath.Join(root, ".git"); isDir(gitDir) {
		if err := fw.Add(gitDir); err != nil {
			w.log.Warn("watching git directory", zap.String("dir", gitDir), zap.Error(err))
		}
	}
	w.log.Debug("watching", zap.String("root", root), zap.Int("dirs", w.dirs))
	return w, nil
}

// Run processes events until ctx is cancelled. It closes the underlying
// watcher and waits for a running OnChange before returning.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.wg.Wait()
	defer w.watcher.Close()

	timer := time.NewTimer(w.opts.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.handle(event) {
				continue
			}
			timer.Reset(w.opts.Debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))

		case <-timer.C:
			w.trigger(ctx)
		}
	}
}

// handle registers new directories and reports whether event is a
// relevant change.
func (w *Watcher) handle(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	rel, err := filepath.Rel(w.opts.Root, event.Name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	if strings.HasPrefix(rel, ".git/") {
		return gitFiles[strings.TrimPrefix(rel, ".git/")]
	}
	if isTempFile(rel) || gitctx.MatchesAny(rel, w.opts.Ignore) {
		return false
	}
	if event.Op.Has(fsnotify.Create) && isDir(event.Name) {
		if err := w.addTree(event.Name); err != nil {
			w.log.Warn("watching new directory", zap.String("dir", event.Name), zap.Error(err))
		}
	}
	w.log.Debug("change", zap.String("path", rel), zap.Stringer("op", event.Op))
	return true
}

func (w *Watcher) trigger(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		err := w.opts.OnChange(ctx)
		switch {
		case err == nil:
		case errors.Is(err, analysis.ErrBusy):
			w.log.Debug("change ignored, analysis in progress")
		default:
			w.log.Debug("re-run after change failed", zap.Error(err))
		}
	}()
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable directories are skipped
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (strings.HasPrefix(d.Name(), ".") || skipDirs[d.Name()]) {
			return filepath.SkipDir
		}
		if rel, err := filepath.Rel(w.opts.Root, path); err == nil && rel != "." &&
			gitctx.MatchesAny(filepath.ToSlash(rel), w.opts.Ignore) {
			return filepath.SkipDir
		}
		if w.dirs >= maxDirs {
			return fmt.Errorf("watching %s: more than %d directories", w.opts.Root, maxDirs)
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		w.dirs++
		return nil
	})
}

func isTempFile(rel string) bool {
	base := filepath.Base(rel)
	return strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, ".#")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
