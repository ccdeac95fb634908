package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/tally/internal/config"
)

const version = "0.3.0"

// Exit codes
const (
	ExitSuccess      = 0
	ExitFindings     = 1
	ExitUsageError   = 2
	ExitAuthError    = 3
	ExitRuntimeError = 4
)

var flagVerbose bool

var rootCmd = &cobra.Command{
	Use:   "tally",
	Short: "Local code-quality findings aggregator",
	Long: "Tally runs heuristic, diff-local, diagnostic and AI review over changed files, " +
		"merges the findings per file and emits them with deterministic exit codes.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := config.LoadDotEnv(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	},
}

// Run executes the root command and returns an exit code.
func Run() int {
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(githubCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(versionCmd)

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
	Short: "Print tally version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tally version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging on stderr")
}
