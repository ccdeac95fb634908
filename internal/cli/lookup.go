package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/tally/internal/output"
	"github.com/dshills/tally/internal/pathindex"
	"github.com/dshills/tally/internal/review"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <report.json> <path>",
	Short: "Print the issues a JSON report holds for a path",
	Long: "Load a report written with --format json and print the issues recorded for path. " +
		"The path may be spelled differently from the report: absolute, relative or differently cased.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		defer f.Close()

		report, err := output.ReadJSON(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		index := pathindex.New[review.Issue]()
		for _, fr := range report.Files {
			index.Register(fr.Result.File, fr.Result.Issues)
		}

		out := cmd.OutOrStdout()
		resolved, ok := index.Resolve(args[1])
		if !ok {
			fmt.Fprintf(out, "No issues recorded for %s\n", args[1])
			return nil
		}
		issues := index.Lookup(args[1])
		fmt.Fprintf(out, "%s (%d issues)\n", resolved, len(issues))
		for _, iss := range issues {
			loc := fmt.Sprintf("%d", iss.Line)
			if iss.Column > 0 {
				loc = fmt.Sprintf("%d:%d", iss.Line, iss.Column)
			}
			label := string(iss.Source)
			if iss.Rule != "" {
				label += "/" + iss.Rule
			}
			fmt.Fprintf(out, "  %6s  %-7s  %s [%s]\n", loc, iss.Severity, iss.Message, label)
		}
		return nil
	},
}
