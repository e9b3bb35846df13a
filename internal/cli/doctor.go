package cli

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/diffsense/internal/analysis"
	"github.com/dshills/diffsense/internal/cache"
	"github.com/dshills/diffsense/internal/config"
	"github.com/dshills/diffsense/internal/gitctx"
)

const doctorTimeout = 15 * time.Second

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that git and the analysis tool are usable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), doctorTimeout)
		defer cancel()
		exitCode = runDoctor(ctx, cfg)
		return nil
	},
}

// runDoctor prints one line per check and returns the exit code of the
// first failed check.
func runDoctor(ctx context.Context, cfg config.Config) int {
	code := ExitSuccess
	fail := func(c int, format string, args ...any) {
		console.Error(format, args...)
		if code == ExitSuccess {
			code = c
		}
	}

	if path, err := exec.LookPath("git"); err != nil {
		fail(ExitRuntimeError, "git not found on PATH")
	} else {
		console.Success("git: %s", path)
	}

	if repo, err := gitctx.GetRepoMeta(ctx, ""); err != nil {
		fail(ExitRuntimeError, "not inside a git repository")
		console.Hint("%s", analysis.Hint(analysis.KindNoDiffSource))
	} else {
		branch := repo.Branch
		if branch == "" {
			branch = "no commits yet"
		}
		console.Success("repository: %s (%s)", repo.Root, branch)
	}

	version, err := newRunner(cfg, "", nil).Check(ctx)
	if err != nil {
		fail(ExitToolUnavailable, "analysis tool %q is not usable: %v", cfg.Command, err)
		console.Hint("%s", analysis.Hint(analysis.KindToolUnavailable))
	} else {
		console.Success("tool: %s %s", cfg.Command, version)
	}

	if path, err := config.ConfigPath(); err == nil {
		console.Success("config: %s", describeFile(path))
	}

	c, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	switch {
	case err != nil:
		console.Warn("cache: %v", err)
	case !c.Enabled():
		console.Success("cache: disabled")
	default:
		console.Success("cache: %s", c.Dir())
	}
	return code
}

func describeFile(path string) string {
	cfg := config.Default()
	found, err := config.LoadFile(&cfg)
	switch {
	case err != nil:
		return fmt.Sprintf("%s (invalid: %v)", path, err)
	case !found:
		return fmt.Sprintf("%s (not created, using defaults)", path)
	default:
		return path
	}
}
