// Package server hosts analysis documents on a local HTTP preview server.
//
// The host shows one document at a time: an idle page, a loading page while an
// analysis runs, the rendered result or an error page. The page script talks
// back through POST /api/message to open referenced files, show their diffs
// and request a re-run.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/diffsense/internal/analysis"
	"github.com/dshills/diffsense/internal/gitctx"
	"github.com/dshills/diffsense/internal/output"
)

// DefaultAddr is the listen address when none is configured.
const DefaultAddr = "127.0.0.1:7878"

const shutdownTimeout = 5 * time.Second

// Analyzer is the part of analysis.Analyzer the host needs.
type Analyzer interface {
	Rerun(ctx context.Context) (*analysis.Result, error)
	InProgress() bool
	Last() (*analysis.Result, bool)
}

// Runner is a background task that runs alongside the HTTP server.
type Runner interface {
	Run(ctx context.Context) error
}

// Options configures a Server.
type Options struct {
	Addr     string
	Root     string
	Analyzer Analyzer
	State    *State
	Diff     gitctx.DiffOptions
	// Page carries the icon and tool name; Interactive and Root are set by
	// the server.
	Page output.PageOptions
	// Watcher is started and stopped together with the server when set.
	Watcher Runner
	Logger  *zap.Logger
}

// Server is the local preview host.
type Server struct {
	opts Options
	log  *zap.Logger
	page output.PageOptions

	// ctx scopes re-runs triggered over HTTP.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu guards addr and orders wg.Add against Close.
	mu   sync.Mutex
	addr string
}

// New creates a Server. A persisted result from an earlier run is shown
// until the first analysis finishes.
func New(opts Options) (*Server, error) {
	if opts.Analyzer == nil {
		return nil, errors.New("server: analyzer is required")
	}
	if opts.State == nil {
		opts.State = NewState()
	}
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	page := opts.Page
	page.Interactive = true
	page.Root = opts.Root

	if last, ok := opts.Analyzer.Last(); ok && opts.State.Snapshot().Phase == PhaseIdle {
		opts.State.SetResult(last)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		opts:   opts,
		log:    log.Named("server"),
		page:   page,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Handler returns the HTTP routes of the host.
func (s *Server) Handler() http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://127.0.0.1:*", "http://localhost:*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))
	mux.Use(s.logRequests)

	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Get("/", s.handleDocument)
	mux.Get("/file", s.wrap(s.handleFile))
	mux.Get("/diff", s.wrap(s.handleDiff))
	mux.Route("/api", func(rt chi.Router) {
		rt.Get("/state", s.handleState)
		rt.With(rejectCrossSite, middleware.AllowContentType("application/json")).
			Post("/message", s.wrap(s.handleMessage))
	})
	return mux
}

// Addr returns the bound address once Run is listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Run serves until ctx is cancelled, then shuts down gracefully and waits
// for background re-runs to stop.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.opts.Addr, err)
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("listening", zap.String("addr", s.addr))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	})
	if s.opts.Watcher != nil {
		g.Go(func() error { return s.opts.Watcher.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.Close()
		return err
	})
	return g.Wait()
}

// Close cancels running re-runs and waits for them to return.
func (s *Server) Close() {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	s.wg.Wait()
}

// refresh starts a re-run in the background. It reports false when an
// analysis is already in flight.
func (s *Server) refresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opts.Analyzer.InProgress() || s.ctx.Err() != nil {
		return false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.opts.Analyzer.Rerun(s.ctx); err != nil {
			if errors.Is(err, analysis.ErrBusy) {
				s.log.Debug("refresh skipped, analysis in progress")
				return
			}
			s.log.Debug("refresh finished with error", zap.Error(err))
		}
	}()
	return true
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)))
	})
}
