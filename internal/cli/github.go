package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/tally/internal/config"
	"github.com/dshills/tally/internal/github"
	"github.com/dshills/tally/internal/gitctx"
	"github.com/dshills/tally/internal/output"
)

var (
	flagGHOwner  string
	flagGHRepo   string
	flagGHDryRun bool
)

var githubCmd = &cobra.Command{
	Use:   "github <pr-number>",
	Short: "Review a GitHub pull request",
	Long:  "Fetch a PR diff from GitHub, run review, and optionally post issues as PR review comments.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prNumber, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid PR number %q\n", args[0])
			exitCode = ExitUsageError
			return nil
		}

		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		ctx := context.Background()

		owner, repo := flagGHOwner, flagGHRepo
		if owner == "" || repo == "" {
			detected, detectedRepo, err := github.DetectRepo(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\nUse --owner and --repo flags to specify manually.\n", err)
				exitCode = ExitRuntimeError
				return nil
			}
			if owner == "" {
				owner = detected
			}
			if repo == "" {
				repo = detectedRepo
			}
		}

		ghClient, err := github.NewClient()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitAuthError
			return nil
		}

		start := time.Now()
		fmt.Fprintf(os.Stderr, "Fetching PR #%d from %s/%s...\n", prNumber, owner, repo)
		pr, err := ghClient.GetPR(ctx, owner, repo, prNumber)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		patch, err := ghClient.GetPRDiff(ctx, owner, repo, prNumber)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		if patch == "" {
			fmt.Fprintln(os.Stdout, "PR has no diff, nothing to review.")
			return nil
		}

		opts := buildDiffOpts(cfg)
		changes, err := gitctx.FromPatch(ctx, patch, "github-pr", fmt.Sprintf("#%d", prNumber), pr.Head.SHA, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		gitElapsed := time.Since(start)

		p, err := newPipeline(cfg, pipelineDeps{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = exitCodeFor(err)
			return nil
		}
		report, err := p.run(ctx, changes, opts, gitElapsed)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = exitCodeFor(err)
			return nil
		}

		if err := output.WriteReport(report, cfg.Format, flagOut); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		if flagGHDryRun {
			fmt.Fprintf(os.Stderr, "Dry run: %d issues found, not posting to GitHub.\n", report.Summary.Counts.Total())
		} else {
			commentable, err := github.CommentableLines(patch)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v; posting summary only\n", err)
			}
			ghReview := github.BuildGitHubReview(report, commentable)
			ghReview.CommitID = pr.Head.SHA
			fmt.Fprintf(os.Stderr, "Posting review (%d inline comments)...\n", len(ghReview.Comments))

			if err := ghClient.PostReview(ctx, owner, repo, prNumber, ghReview); err != nil {
				fmt.Fprintf(os.Stderr, "Error posting review: %v\n", err)
				exitCode = ExitRuntimeError
				return nil
			}
			fmt.Fprintf(os.Stderr, "Review posted to PR #%d.\n", prNumber)
		}

		if flagMetrics {
			_ = p.metrics.WriteText(os.Stderr)
		}
		if report.Failing(cfg.FailOn) {
			exitCode = ExitFindings
		}
		return nil
	},
}

func init() {
	addReviewFlags(githubCmd)
	githubCmd.Flags().StringVar(&flagGHOwner, "owner", "", "GitHub repository owner (auto-detected if omitted)")
	githubCmd.Flags().StringVar(&flagGHRepo, "repo", "", "GitHub repository name (auto-detected if omitted)")
	githubCmd.Flags().BoolVar(&flagGHDryRun, "dry-run", false, "Run review but don't post to GitHub")
}
