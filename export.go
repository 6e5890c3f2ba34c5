package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zachkp/folio/internal/export"
	"github.com/Zachkp/folio/internal/site"
)

var exportOpts struct {
	out string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render the portfolio as Markdown",
	Long: `Render the portfolio and convert its main content to Markdown, written
to stdout or to --out.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOpts.out, "out", "o", "", "Write to file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	pipeline, err := newPipeline(newFetcher(), nil, site.Endpoints{})
	if err != nil {
		return err
	}
	page := pipeline.Render(cmd.Context(), site.Request{})
	if page.Stage != site.StageRendered {
		return fmt.Errorf("render failed: %w", page.Err)
	}

	md, err := export.Markdown(page.Doc)
	if err != nil {
		return err
	}
	if exportOpts.out == "" {
		_, err = cmd.OutOrStdout().Write(md)
		return err
	}
	return os.WriteFile(exportOpts.out, md, 0644)
}
