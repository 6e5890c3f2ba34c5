package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zachkp/folio/internal/store"
	"github.com/Zachkp/folio/internal/theme"
)

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Read or change the saved theme preference",
	Long: `Read or change the site-wide theme preference kept in the SQLite
store (theme.db_path). "folio build" uses it as the initial theme.`,
}

var themeGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the saved theme",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.OpenSQLite(cfg.Theme.DBPath, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		p, _ := theme.NewController(db, logger, theme.WithKey(cfg.Theme.Key)).Stored()
		if p == "" {
			p = theme.Light
		}
		fmt.Fprintln(cmd.OutOrStdout(), p)
		return nil
	},
}

var themeSetCmd = &cobra.Command{
	Use:       "set <light|dark>",
	Short:     "Save the theme",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(theme.Light), string(theme.Dark)},
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := theme.Parse(args[0])
		if err != nil {
			return err
		}
		db, err := store.OpenSQLite(cfg.Theme.DBPath, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Set(cfg.Theme.Key, p.String()); err != nil {
			return fmt.Errorf("save theme: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), p)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(themeCmd)
	themeCmd.AddCommand(themeGetCmd, themeSetCmd)
}
