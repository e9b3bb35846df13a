package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const (
	hookMarkerStart = "# >>> diffsense pre-commit hook >>>"
	hookMarkerEnd   = "# <<< diffsense pre-commit hook <<<"
)

var (
	hookFormat  string
	hookTimeout string
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage the git pre-commit hook",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Analyze staged changes before every commit",
	Long: `Install adds a pre-commit hook that prints an analysis of the staged changes.
The hook is advisory: it never blocks a commit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath()
		if err != nil {
			console.Error("%v", err)
			exitCode = ExitRuntimeError
			return nil
		}

		section := generateHookScript(hookFormat, hookTimeout)

		existing, err := os.ReadFile(hookPath)
		if err != nil && !os.IsNotExist(err) {
			console.Error("reading hook file: %v", err)
			exitCode = ExitRuntimeError
			return nil
		}

		var content string
		if os.IsNotExist(err) || len(existing) == 0 {
			content = "#!/bin/sh\n" + section
		} else {
			content = replaceHookSection(string(existing), section)
		}

		if err := os.MkdirAll(filepath.Dir(hookPath), 0o755); err != nil {
			console.Error("creating hooks directory: %v", err)
			exitCode = ExitRuntimeError
			return nil
		}

		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			console.Error("writing hook file: %v", err)
			exitCode = ExitRuntimeError
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Installed diffsense pre-commit hook at %s\n", hookPath)
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the diffsense pre-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath()
		if err != nil {
			console.Error("%v", err)
			exitCode = ExitRuntimeError
			return nil
		}

		existing, err := os.ReadFile(hookPath)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Fprintln(cmd.OutOrStdout(), "No pre-commit hook found.")
				return nil
			}
			console.Error("reading hook file: %v", err)
			exitCode = ExitRuntimeError
			return nil
		}

		content := removeHookSection(string(existing))

		// If only the shebang remains, delete the file entirely
		trimmed := strings.TrimSpace(content)
		if trimmed == "" || trimmed == "#!/bin/sh" || trimmed == "#!/bin/bash" {
			if err := os.Remove(hookPath); err != nil {
				console.Error("removing hook file: %v", err)
				exitCode = ExitRuntimeError
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed diffsense pre-commit hook at %s\n", hookPath)
			return nil
		}

		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			console.Error("writing hook file: %v", err)
			exitCode = ExitRuntimeError
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed diffsense section from %s\n", hookPath)
		return nil
	},
}

func getHookPath() (string, error) {
	out, err := exec.Command("git", "rev-parse", "--git-path", "hooks").Output()
	if err != nil {
		return "", fmt.Errorf("not a git repository (git rev-parse --git-path hooks failed)")
	}
	return filepath.Join(strings.TrimSpace(string(out)), "pre-commit"), nil
}

func generateHookScript(format, timeout string) string {
	var b strings.Builder
	b.WriteString(hookMarkerStart + "\n")
	fmt.Fprintf(&b, "diffsense analyze --staged --format %s --timeout %s --quiet\n", format, timeout)
	b.WriteString("DIFFSENSE_EXIT=$?\n")
	b.WriteString("if [ $DIFFSENSE_EXIT -eq 3 ]; then\n")
	b.WriteString("  echo \"diffsense: analysis tool not available, skipping\"\n")
	b.WriteString("elif [ $DIFFSENSE_EXIT -ne 0 ]; then\n")
	b.WriteString("  echo \"diffsense: analysis failed (exit $DIFFSENSE_EXIT), allowing commit\"\n")
	b.WriteString("fi\n")
	b.WriteString(hookMarkerEnd + "\n")
	return b.String()
}

func replaceHookSection(existing, section string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		if !strings.HasSuffix(existing, "\n") {
			existing += "\n"
		}
		return existing + section
	}

	before := existing[:startIdx]
	after := existing[endIdx+len(hookMarkerEnd):]
	after = strings.TrimPrefix(after, "\n")
	return before + section + after
}

func removeHookSection(existing string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		return existing
	}

	before := existing[:startIdx]
	after := existing[endIdx+len(hookMarkerEnd):]
	after = strings.TrimPrefix(after, "\n")

	return before + after
}

func init() {
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookInstallCmd.Flags().StringVar(&hookFormat, "format", "terminal", "Output format (terminal, markdown, json)")
	hookInstallCmd.Flags().StringVar(&hookTimeout, "timeout", "2m", "Give up on the analysis after this duration")
}
