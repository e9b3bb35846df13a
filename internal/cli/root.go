package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/diffsense/internal/logging"
)

const version = "0.3.0"

// Exit codes
const (
	ExitSuccess         = 0
	ExitAnalysisFailed  = 1
	ExitUsageError      = 2
	ExitToolUnavailable = 3
	ExitRuntimeError    = 4
)

// Global flags
var (
	flagVerbose bool
	flagQuiet   bool
	flagNoColor bool
	flagLogFile string
)

var (
	logger  = zap.NewNop()
	console = logging.NewConsole(os.Stderr)
)

var rootCmd = &cobra.Command{
	Use:   "diffsense",
	Short: "Explain your git changes with an AI assistant",
	Long: `diffsense collects the diff of your working tree, hands it to an AI command-line
tool and renders the answer in the terminal, as markdown, HTML or JSON, or in a
local preview that refreshes as you edit.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(logging.Options{Verbose: flagVerbose, File: flagLogFile, Console: true})
		if err != nil {
			return err
		}
		logger = l
		console = logging.NewConsole(cmd.ErrOrStderr())
		console.SetQuiet(flagQuiet)
		if flagNoColor {
			console.SetColor(false)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync(logger)
	},
}

// Run executes the root command and returns an exit code.
func Run() int {
	return execute(os.Args[1:])
}

func execute(args []string) int {
	exitCode = ExitSuccess
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}
	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print diffsense version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "diffsense version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Write debug diagnostics to stderr")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress messages")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored messages")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Also write diagnostics to this file")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(lastCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(versionCmd)
}
