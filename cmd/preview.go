package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/loadexport/internal/summary"
)

var (
	previewProject string
	previewXLSX    string
)

// previewCmd shows per-project totals without producing a document.
var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show per-project totals without building a document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, ctx, err := setup(cmd)
		if err != nil {
			return err
		}

		a, err := newApp(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()

		r := a.service.Preview(ctx, previewProject)
		if !r.Success {
			return fmt.Errorf("preview failed: %s", r.Error)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d confirmed loads from %s source\n", r.LoadCount, r.Source)
		printSummaries(out, r.Summaries, a.service.Rate())

		if previewXLSX != "" {
			if err := summary.SaveWorkbook(previewXLSX, r.Summaries, a.service.Rate()); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nWorkbook written to %s\n", previewXLSX)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().StringVar(&previewProject, "project", "", "Preview a single project ID")
	previewCmd.Flags().StringVar(&previewXLSX, "xlsx", "", "Also write the summary to this XLSX file")
}
