package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zachkp/folio/internal/config"
	"github.com/Zachkp/folio/web"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the folio configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config and sample portfolio",
	Long: `Write the default configuration to --config (default: ./folio.toml) and,
when content.data_file does not exist yet, the bundled sample portfolio.
Existing files are never overwritten.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	// An explicit --config path is the file to create, so it may not exist yet.
	configCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg = config.DefaultConfig()
		if _, err := os.Stat(globalOpts.configPath); globalOpts.configPath == "" || err == nil {
			loaded, err := config.Load(globalOpts.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg = loaded
		}
		return setupLogger()
	}
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := globalOpts.configPath
	if path == "" {
		path = config.DefaultFileName
	}

	w := cmd.OutOrStdout()
	err := config.DefaultConfig().Write(path)
	switch {
	case errors.Is(err, os.ErrExist):
		fmt.Fprintf(w, "%s exists, left unchanged\n", path)
	case err != nil:
		return err
	default:
		fmt.Fprintf(w, "wrote %s\n", path)
	}

	dataFile := cfg.Content.DataFile
	if _, err := os.Stat(dataFile); err == nil {
		return nil
	}
	if err := os.WriteFile(dataFile, web.Sample(), 0644); err != nil {
		return fmt.Errorf("write sample portfolio: %w", err)
	}
	fmt.Fprintf(w, "wrote %s\n", dataFile)
	return nil
}
