package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/diffsense/internal/analysis"
	"github.com/dshills/diffsense/internal/gitctx"
	"github.com/dshills/diffsense/internal/output"
)

func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagCommand, "command", "", "Analysis tool to run (default: claude)")
	cmd.Flags().StringVar(&flagPromptFile, "prompt-file", "", "Prompt template file; {DIFF_PLACEHOLDER} marks where the diff goes")
	cmd.Flags().StringVar(&flagTimeout, "timeout", "", "Abort the analysis after this duration (e.g. 90s, 5m)")
	cmd.Flags().IntVar(&flagContextLines, "context-lines", 0, "Number of context lines in diff")
	cmd.Flags().IntVar(&flagMaxDiffBytes, "max-diff-bytes", 0, "Maximum diff size in bytes")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "Additional exclude globs (comma-separated)")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Always run the tool, ignoring cached responses")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze the current git changes",
	Long: `Analyze collects the diff of the working tree (or only the staged changes, or
a single file), sends it to the analysis tool and prints the answer.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := sourceFromFlags()
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if _, err := output.GetWriter(cfg.Format); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		progress := newProgress(cmd.ErrOrStderr(), flagQuiet)
		defer progress.Done()

		a, err := newAnalyzer(cfg, sessionOptions{
			Observer: analysis.Observer{
				OnPending: func(src gitctx.Source) {
					progress.Start(fmt.Sprintf("Analyzing %s with %s", src, cfg.Command))
				},
			},
			OnChunk: progress.Chunk,
		})
		if err != nil {
			exitCode = exitCodeFor(err)
			reportFailure(err)
			return nil
		}

		res, err := a.Analyze(ctx, src)
		progress.Done()
		if err != nil {
			exitCode = exitCodeFor(err)
			reportFailure(err)
			return nil
		}
		if res.Redacted > 0 || len(res.Withheld) > 0 {
			console.Warn("%d secret(s) redacted and %d file(s) withheld before analysis", res.Redacted, len(res.Withheld))
		}

		if err := output.WriteResult(cmd.OutOrStdout(), res, cfg.Format, flagOut); err != nil {
			console.Error("writing output: %v", err)
			exitCode = ExitRuntimeError
			return nil
		}
		if flagOut != "" {
			console.Success("Wrote %s", flagOut)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&flagStaged, "staged", false, "Analyze only staged changes")
	analyzeCmd.Flags().StringVar(&flagFile, "file", "", "Analyze the changes of a single file")
	analyzeCmd.Flags().StringVar(&flagFormat, "format", "", "Output format (terminal, markdown, html, json)")
	analyzeCmd.Flags().StringVarP(&flagOut, "out", "o", "", "Output file path (default: stdout)")
	addAnalysisFlags(analyzeCmd)
}
