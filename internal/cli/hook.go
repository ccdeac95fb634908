package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const (
	hookMarkerStart = "# >>> tally pre-commit hook >>>"
	hookMarkerEnd   = "# <<< tally pre-commit hook <<<"
)

var (
	hookFailOn    string
	hookFormat    string
	hookMaxIssues int
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage git pre-commit hook",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install tally as a git pre-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		section := generateHookScript(hookFailOn, hookFormat, hookMaxIssues)
		if err := installHook(afero.NewOsFs(), hookPath, section); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Installed tally pre-commit hook at %s\n", hookPath)
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove tally pre-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		res, err := uninstallHook(afero.NewOsFs(), hookPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		out := cmd.OutOrStdout()
		switch res {
		case hookAbsent:
			fmt.Fprintln(out, "No pre-commit hook found.")
		case hookDeleted:
			fmt.Fprintf(out, "Removed tally pre-commit hook at %s\n", hookPath)
		case hookTrimmed:
			fmt.Fprintf(out, "Removed tally section from %s\n", hookPath)
		}
		return nil
	},
}

// hookRemoval describes what uninstallHook did.
type hookRemoval int

const (
	hookAbsent hookRemoval = iota
	hookDeleted
	hookTrimmed
)

// installHook writes section into the hook at path, replacing an earlier
// tally section and keeping any other content.
func installHook(fs afero.Fs, path, section string) error {
	existing, err := afero.ReadFile(fs, path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading hook file: %w", err)
	}

	content := "#!/bin/sh\n" + section
	if len(existing) > 0 {
		content = replaceHookSection(string(existing), section)
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating hooks directory: %w", err)
	}
	if err := afero.WriteFile(fs, path, []byte(content), 0o755); err != nil {
		return fmt.Errorf("writing hook file: %w", err)
	}
	return nil
}

// uninstallHook strips the tally section from the hook at path. A hook left
// with nothing but a shebang is deleted.
func uninstallHook(fs afero.Fs, path string) (hookRemoval, error) {
	existing, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return hookAbsent, nil
		}
		return hookAbsent, fmt.Errorf("reading hook file: %w", err)
	}

	content := removeHookSection(string(existing))
	switch strings.TrimSpace(content) {
	case "", "#!/bin/sh", "#!/bin/bash":
		if err := fs.Remove(path); err != nil {
			return hookAbsent, fmt.Errorf("removing hook file: %w", err)
		}
		return hookDeleted, nil
	}

	if err := afero.WriteFile(fs, path, []byte(content), 0o755); err != nil {
		return hookAbsent, fmt.Errorf("writing hook file: %w", err)
	}
	return hookTrimmed, nil
}

// getHookPath resolves the pre-commit hook path, honoring core.hooksPath.
func getHookPath(ctx context.Context) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	out, err := exec.CommandContext(ctx, "git", "rev-parse", "--git-path", "hooks/pre-commit").Output()
	if err != nil {
		return "", fmt.Errorf("not a git repository (git rev-parse --git-path failed)")
	}
	return strings.TrimSpace(string(out)), nil
}

func generateHookScript(failOn, format string, maxIssues int) string {
	var b strings.Builder
	b.WriteString(hookMarkerStart + "\n")
	fmt.Fprintf(&b, "tally review staged --fail-on %s --format %s --max-issues %d\n", failOn, format, maxIssues)
	b.WriteString("TALLY_EXIT=$?\n")
	b.WriteString("if [ $TALLY_EXIT -eq 1 ]; then\n")
	b.WriteString("  echo \"tally: issues at or above --fail-on, commit blocked\"\n")
	b.WriteString("  exit 1\n")
	b.WriteString("elif [ $TALLY_EXIT -ge 2 ]; then\n")
	b.WriteString("  echo \"tally: review failed (exit $TALLY_EXIT), allowing commit\"\n")
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
	hookInstallCmd.Flags().StringVar(&hookFailOn, "fail-on", "error", "Fail on severity threshold (none, info, warning, error)")
	hookInstallCmd.Flags().StringVar(&hookFormat, "format", "text", "Output format (text, json, markdown, sarif)")
	hookInstallCmd.Flags().IntVar(&hookMaxIssues, "max-issues", 50, "Maximum number of issues")
}
