package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/dshills/tally/internal/cache"
	"github.com/dshills/tally/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the AI result cache",
}

func openStore() (*cache.Store, config.Config, error) {
	cfg, err := config.Load(nil)
	if err != nil {
		return nil, cfg, err
	}
	store, err := cache.OpenStore(afero.NewOsFs(), cfg.Cache.Dir)
	if err != nil {
		return nil, cfg, fmt.Errorf("opening cache: %w", err)
	}
	return store, cfg, nil
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all cached review results",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		if err := store.Clear(); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Fprintln(os.Stdout, "Cache cleared.")
		return nil
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cfg, err := openStore()
		if err != nil {
			return err
		}
		if !cfg.Cache.Enabled {
			fmt.Fprintln(os.Stdout, "Cache is disabled.")
		}
		stats, err := store.Stats()
		if err != nil {
			return fmt.Errorf("reading cache stats: %w", err)
		}
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheShowCmd)
}
