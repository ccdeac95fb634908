package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/tally/internal/config"
	"github.com/dshills/tally/internal/gitctx"
	"github.com/dshills/tally/internal/output"
	"github.com/dshills/tally/internal/providers"
)

// Shared review flags
var (
	flagPaths        string
	flagExclude      string
	flagContextLines int
	flagMaxDiffBytes int
	flagProvider     string
	flagModel        string
	flagFormat       string
	flagOut          string
	flagFailOn       string
	flagMaxIssues    int
	flagRules        string
	flagDiagnostics  string
	flagConcurrency  int
	flagNoRedact     bool
	flagNoSemantic   bool
	flagNoCache      bool
	flagMetrics      bool
)

func addReviewFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagPaths, "paths", "", "Include file path globs (comma-separated)")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "Exclude file path globs (comma-separated)")
	cmd.Flags().IntVar(&flagContextLines, "context-lines", 0, "Number of context lines in diff")
	cmd.Flags().IntVar(&flagMaxDiffBytes, "max-diff-bytes", 0, "Maximum diff size in bytes")
	cmd.Flags().StringVar(&flagProvider, "provider", "", "LLM provider (anthropic, openai, gemini, ollama, lmstudio)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Model name")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json, markdown, sarif)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Fail on severity threshold (none, info, warning, error)")
	cmd.Flags().IntVar(&flagMaxIssues, "max-issues", 0, "Maximum number of issues in the report")
	cmd.Flags().StringVar(&flagRules, "rules", "", "Rules file path (YAML or JSON)")
	cmd.Flags().StringVar(&flagDiagnostics, "diagnostics", "", "External diagnostics file (JSON)")
	cmd.Flags().IntVar(&flagConcurrency, "concurrency", 0, "Files analyzed in parallel")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	cmd.Flags().BoolVar(&flagNoSemantic, "no-semantic", false, "Skip AI review")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Do not read or write cached AI results")
	cmd.Flags().BoolVar(&flagMetrics, "metrics", false, "Print metrics to stderr after the run")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagProvider != "" {
		m["provider"] = flagProvider
		m["model"] = providers.DefaultModel(flagProvider)
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagFailOn != "" {
		m["failOn"] = flagFailOn
	}
	if flagMaxIssues > 0 {
		m["maxIssues"] = strconv.Itoa(flagMaxIssues)
	}
	if flagContextLines > 0 {
		m["contextLines"] = strconv.Itoa(flagContextLines)
	}
	if flagMaxDiffBytes > 0 {
		m["maxDiffBytes"] = strconv.Itoa(flagMaxDiffBytes)
	}
	if flagRules != "" {
		m["rulesFile"] = flagRules
	}
	if flagDiagnostics != "" {
		m["diagnosticsFile"] = flagDiagnostics
	}
	if flagConcurrency > 0 {
		m["concurrency"] = strconv.Itoa(flagConcurrency)
	}
	if flagNoRedact {
		m["privacy.redactSecrets"] = "false"
	}
	if flagNoSemantic {
		m["analyzers.semantic"] = "false"
	}
	if flagNoCache {
		m["cache.enabled"] = "false"
	}
	return m
}

func buildDiffOpts(cfg config.Config) gitctx.DiffOptions {
	opts := gitctx.DiffOptions{
		ContextLines: cfg.ContextLines,
		MaxDiffBytes: cfg.MaxDiffBytes,
		Include:      cfg.Include,
		Exclude:      cfg.Exclude,
	}
	if flagPaths != "" {
		opts.Include = splitComma(flagPaths)
	}
	if flagExclude != "" {
		opts.Exclude = append(append([]string(nil), opts.Exclude...), splitComma(flagExclude)...)
	}
	return opts
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// gatherFunc collects the changes one review subcommand targets.
type gatherFunc func(ctx context.Context, opts gitctx.DiffOptions) (gitctx.Changes, error)

// reviewRunE builds the RunE shared by the git-backed review subcommands.
func reviewRunE(gather gatherFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		opts := buildDiffOpts(cfg)

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		start := time.Now()
		changes, err := gather(ctx, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		runReview(ctx, changes, cfg, opts, time.Since(start))
		return nil
	}
}

func runReview(ctx context.Context, changes gitctx.Changes, cfg config.Config, opts gitctx.DiffOptions, gitElapsed time.Duration) {
	if !cfg.Privacy.RedactSecrets {
		fmt.Fprintln(os.Stderr, "WARNING: secret redaction is disabled")
	}

	p, err := newPipeline(cfg, pipelineDeps{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = exitCodeFor(err)
		if exitCode == ExitAuthError {
			fmt.Fprintln(os.Stderr, "Hint: set the provider API key or pass --no-semantic.")
		}
		return
	}
	exitCode = p.review(ctx, changes, opts, gitElapsed, flagOut)
	if flagMetrics {
		if err := p.metrics.WriteText(os.Stderr); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing metrics: %v\n", err)
		}
	}
}

// review runs the pipeline, writes the report and returns the exit code.
func (p *pipeline) review(ctx context.Context, changes gitctx.Changes, opts gitctx.DiffOptions, gitElapsed time.Duration, out string) int {
	report, err := p.run(ctx, changes, opts, gitElapsed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCodeFor(err)
	}

	if err := output.WriteReport(report, p.cfg.Format, out); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		return ExitRuntimeError
	}

	if report.Failing(p.cfg.FailOn) {
		return ExitFindings
	}
	return ExitSuccess
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review code changes",
	Long:  "Run every enabled analyzer over changed files and report merged findings. Use subcommands to specify what to review.",
}

var reviewUnstagedCmd = &cobra.Command{
	Use:   "unstaged",
	Short: "Review unstaged changes (working tree vs index)",
	RunE:  reviewRunE(gitctx.Unstaged),
}

var reviewStagedCmd = &cobra.Command{
	Use:   "staged",
	Short: "Review staged changes (index vs HEAD)",
	RunE:  reviewRunE(gitctx.Staged),
}

var (
	flagParent string
)

var reviewCommitCmd = &cobra.Command{
	Use:   "commit <sha>",
	Short: "Review a specific commit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewRunE(func(ctx context.Context, opts gitctx.DiffOptions) (gitctx.Changes, error) {
			return gitctx.Commit(ctx, args[0], flagParent, opts)
		})(cmd, args)
	},
}

var (
	flagMergeBase bool
)

var reviewRangeCmd = &cobra.Command{
	Use:   "range <revRange>",
	Short: "Review a revision range (e.g., origin/main..HEAD)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewRunE(func(ctx context.Context, opts gitctx.DiffOptions) (gitctx.Changes, error) {
			return gitctx.Range(ctx, args[0], flagMergeBase, opts)
		})(cmd, args)
	},
}

var reviewCodebaseCmd = &cobra.Command{
	Use:   "codebase",
	Short: "Review all tracked files in the repository",
	RunE:  reviewRunE(gitctx.Codebase),
}

var (
	flagSnippetPath string
	flagSnippetBase string
)

var reviewSnippetCmd = &cobra.Command{
	Use:   "snippet",
	Short: "Review code from stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewRunE(func(ctx context.Context, _ gitctx.DiffOptions) (gitctx.Changes, error) {
			content, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return gitctx.Changes{}, fmt.Errorf("reading stdin: %w", err)
			}

			var base string
			if flagSnippetBase != "" {
				data, err := os.ReadFile(flagSnippetBase)
				if err != nil {
					return gitctx.Changes{}, fmt.Errorf("reading base file: %w", err)
				}
				base = string(data)
			}

			path := flagSnippetPath
			if path == "" {
				path = "stdin"
			}
			return gitctx.Snippet(ctx, string(content), path, base)
		})(cmd, args)
	},
}

var reviewWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-review unstaged changes whenever files change",
	Long: "Watch the working tree and re-run the unstaged review after each burst of changes. " +
		"Unchanged files are served from the AI result cache. Send SIGHUP to clear the cache.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		p, err := newPipeline(cfg, pipelineDeps{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = exitCodeFor(err)
			return nil
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		opts := buildDiffOpts(cfg)
		w := &watcher{
			debounce: flagWatchDebounce,
			exclude:  opts.Exclude,
			log:      p.log,
			run: func(ctx context.Context) {
				start := time.Now()
				changes, err := gitctx.Unstaged(ctx, opts)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					return
				}
				p.review(ctx, changes, opts, time.Since(start), flagOut)
			},
			refresh: p.clearCaches,
		}

		root := "."
		if info, err := gitctx.GetRepoInfo(ctx); err == nil {
			root = info.Root
		}
		if err := w.watch(ctx, root); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
		}
		if flagMetrics {
			_ = p.metrics.WriteText(os.Stderr)
		}
		return nil
	},
}

var flagWatchDebounce time.Duration

func init() {
	reviewCmd.AddCommand(reviewUnstagedCmd)
	reviewCmd.AddCommand(reviewStagedCmd)
	reviewCmd.AddCommand(reviewCommitCmd)
	reviewCmd.AddCommand(reviewRangeCmd)
	reviewCmd.AddCommand(reviewSnippetCmd)
	reviewCmd.AddCommand(reviewCodebaseCmd)
	reviewCmd.AddCommand(reviewWatchCmd)

	for _, cmd := range []*cobra.Command{
		reviewUnstagedCmd,
		reviewStagedCmd,
		reviewCommitCmd,
		reviewRangeCmd,
		reviewSnippetCmd,
		reviewCodebaseCmd,
		reviewWatchCmd,
	} {
		addReviewFlags(cmd)
	}

	reviewCommitCmd.Flags().StringVar(&flagParent, "parent", "", "Override parent SHA (for merge commits)")
	reviewRangeCmd.Flags().BoolVar(&flagMergeBase, "merge-base", true, "Use merge base for branch comparisons")
	reviewSnippetCmd.Flags().StringVar(&flagSnippetPath, "path", "", "File path (for language detection and messages)")
	reviewSnippetCmd.Flags().StringVar(&flagSnippetBase, "base", "", "Base file to diff against")
	reviewWatchCmd.Flags().DurationVar(&flagWatchDebounce, "debounce", 500*time.Millisecond, "Quiet period before re-running")
}
