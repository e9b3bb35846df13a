package cli

import (
	"github.com/spf13/cobra"

	"github.com/dshills/diffsense/internal/analysis"
	"github.com/dshills/diffsense/internal/cache"
	"github.com/dshills/diffsense/internal/config"
	"github.com/dshills/diffsense/internal/output"
)

var flagLastFormat string

var lastCmd = &cobra.Command{
	Use:   "last",
	Short: "Show the most recent analysis again",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(map[string]string{"format": flagLastFormat})
		if err != nil {
			return err
		}
		if _, err := output.GetWriter(cfg.Format); err != nil {
			return err
		}
		store, err := cache.NewLastStore(cfg.Cache.Dir)
		if err != nil {
			return err
		}

		var res analysis.Result
		ok, err := store.Load(&res)
		if err != nil {
			console.Error("reading last result: %v", err)
			exitCode = ExitRuntimeError
			return nil
		}
		if !ok {
			console.Info("No analysis has been run yet. Try `diffsense analyze`.")
			return nil
		}
		if err := output.WriteResult(cmd.OutOrStdout(), &res, cfg.Format, flagOut); err != nil {
			console.Error("writing output: %v", err)
			exitCode = ExitRuntimeError
		}
		return nil
	},
}

func init() {
	lastCmd.Flags().StringVar(&flagLastFormat, "format", "", "Output format (terminal, markdown, html, json)")
	lastCmd.Flags().StringVarP(&flagOut, "out", "o", "", "Output file path (default: stdout)")
}
