package cli

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/diffsense/internal/gitctx"
	"github.com/dshills/diffsense/internal/output"
	"github.com/dshills/diffsense/internal/server"
	"github.com/dshills/diffsense/internal/watch"
)

var (
	flagAddr      string
	flagWatch     bool
	flagNoInitial bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Show the analysis in a local browser preview",
	Long: `Serve starts a local preview of the analysis. Referenced files and their diffs
open from the page, and the analysis can be re-run from the browser or, with
--watch, whenever the working tree changes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if flagAddr != "" {
			cfg.Serve.Addr = flagAddr
		}
		if cmd.Flags().Changed("watch") {
			cfg.Serve.Watch = flagWatch
		}
		src := gitctx.AllChanges
		if flagStaged {
			src = gitctx.Source{Mode: gitctx.ModeStaged}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		repo, err := gitctx.GetRepoMeta(ctx, "")
		if err != nil {
			exitCode = exitCodeFor(err)
			reportFailure(err)
			return nil
		}

		state := server.NewState()
		a, err := newAnalyzer(cfg, sessionOptions{Dir: repo.Root, Observer: state.Observer()})
		if err != nil {
			exitCode = exitCodeFor(err)
			reportFailure(err)
			return nil
		}

		var watcher server.Runner
		if cfg.Serve.Watch {
			w, err := watch.New(watch.Options{
				Root:   repo.Root,
				Ignore: cfg.Exclude,
				OnChange: func(ctx context.Context) error {
					_, err := a.Rerun(ctx)
					return err
				},
				Logger: logger,
			})
			if err != nil {
				console.Error("starting watcher: %v", err)
				exitCode = ExitRuntimeError
				return nil
			}
			watcher = w
		}

		srv, err := server.New(server.Options{
			Addr:     cfg.Serve.Addr,
			Root:     repo.Root,
			Analyzer: a,
			State:    state,
			Diff:     buildDiffOpts(cfg),
			Page:     output.PageOptions{Tool: cfg.Command},
			Watcher:  watcher,
			Logger:   logger,
		})
		if err != nil {
			return err
		}

		var wg sync.WaitGroup
		defer wg.Wait()
		if !flagNoInitial {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := a.Analyze(ctx, src); err != nil {
					logger.Debug("initial analysis finished", zap.Error(err))
				}
			}()
		}

		console.Success("Preview for %s at http://%s", repo.Root, cfg.Serve.Addr)
		if cfg.Serve.Watch {
			console.Info("Watching for changes. Press Ctrl+C to stop.")
		}
		if err := srv.Run(ctx); err != nil {
			console.Error("%v", err)
			exitCode = ExitRuntimeError
		}
		stop()
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (default from config: 127.0.0.1:7878)")
	serveCmd.Flags().BoolVar(&flagWatch, "watch", false, "Re-run the analysis when files change")
	serveCmd.Flags().BoolVar(&flagStaged, "staged", false, "Analyze only staged changes")
	serveCmd.Flags().BoolVar(&flagNoInitial, "no-initial", false, "Wait for a refresh instead of analyzing at startup")
	addAnalysisFlags(serveCmd)
}
