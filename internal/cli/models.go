package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/tally/internal/config"
	"github.com/dshills/tally/internal/providers"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "AI provider and model management",
}

type modelInfo struct {
	Provider string
	Models   []string
}

var knownModels = []modelInfo{
	{Provider: "anthropic", Models: []string{"claude-sonnet-4-6", "claude-opus-4-6", "claude-haiku-4-5"}},
	{Provider: "openai", Models: []string{"gpt-4.1-mini", "gpt-4.1", "gpt-5.2", "o3-mini"}},
	{Provider: "gemini", Models: []string{"gemini-2.5-flash", "gemini-2.5-pro"}},
	{Provider: "ollama", Models: []string{"qwen2.5-coder", "llama3.3", "codellama", "deepseek-coder-v2"}},
	{Provider: "lmstudio", Models: []string{"qwen2.5-coder"}},
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known providers and models",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		for _, info := range knownModels {
			fmt.Fprintf(out, "%s:\n", info.Provider)
			def := providers.DefaultModel(info.Provider)
			for _, m := range info.Models {
				if m == def {
					fmt.Fprintf(out, "  - %s (default)\n", m)
					continue
				}
				fmt.Fprintf(out, "  - %s\n", m)
			}
			fmt.Fprintln(out)
		}
	},
}

var modelsDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Validate provider credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Checking %s (%s)...\n", cfg.Provider, cfg.Model)

		p, err := providers.New(cfg.Provider, cfg.Model)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			exitCode = ExitAuthError
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		_, err = p.Generate(ctx, providers.Request{
			SystemPrompt: "Respond with exactly: ok",
			UserPrompt:   "ping",
			MaxTokens:    10,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
			exitCode = exitCodeFor(err)
			return nil
		}

		fmt.Fprintf(os.Stdout, "OK: %s is configured and responding\n", cfg.Provider)
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsDoctorCmd)
	modelsDoctorCmd.Flags().StringVar(&flagProvider, "provider", "", "Provider to check")
	modelsDoctorCmd.Flags().StringVar(&flagModel, "model", "", "Model to check")
}
