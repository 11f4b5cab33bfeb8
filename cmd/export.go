// =============================================================================
// Load Export - Export Command
// =============================================================================
//
// COMMAND USAGE:
//   loadexport export iif [--project P] [--ship] [--stdout]
//   loadexport export qbo [--project P] [--ship] [--stdout]
//   loadexport export all [--ship]
//
// FLAGS:
//   --project : Export a single project; default is every project
//   --ship    : Deliver the document to the configured destination
//   --stdout  : Print the document itself instead of the summary
//
// "all" runs both formats for every project concurrently.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/loadexport/internal/export"
	"github.com/ginjaninja78/loadexport/internal/summary"
)

var (
	exportProject string
	exportShip    bool
	exportStdout  bool
)

var exportCmd = &cobra.Command{
	Use:       "export iif|qbo|all",
	Short:     "Build accounting import documents from confirmed loads",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"iif", "qbo", "all"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, ctx, err := setup(cmd)
		if err != nil {
			return err
		}
		if args[0] == "all" && exportProject != "" {
			return fmt.Errorf("export all covers every project; drop --project or pick iif or qbo")
		}

		a, err := newApp(ctx, cfg, exportShip)
		if err != nil {
			return err
		}
		defer a.Close()

		var results []export.Result
		switch args[0] {
		case "iif":
			results = append(results, a.service.ExportIIF(ctx, exportProject))
		case "qbo":
			results = append(results, a.service.ExportQBO(ctx, exportProject))
		case "all":
			iif, qbo := a.service.ExportAll(ctx)
			results = append(results, iif, qbo)
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, r := range results {
			if !r.Success {
				failed++
				fmt.Fprintf(out, "  ✗ %s: %s\n", r.Format, r.Error)
				continue
			}

			if exportStdout {
				io.WriteString(out, r.Document)
			} else {
				fmt.Fprintf(out, "  ✓ %s -> %s (%d loads, %d invoices, %s source)\n",
					r.Format, r.Filename, r.LoadCount, r.InvoiceCount, r.Source)
			}

			if exportShip {
				location, err := a.service.Ship(ctx, r)
				if err != nil {
					failed++
					fmt.Fprintf(out, "  ✗ ship %s: %v\n", r.Filename, err)
					continue
				}
				if !exportStdout {
					fmt.Fprintf(out, "    shipped to %s\n", location)
				}
			}
		}

		if !exportStdout && len(results) > 0 && results[0].Success {
			printSummaries(out, results[0].Summaries, a.service.Rate())
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d export(s) failed", failed, len(results))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportProject, "project", "", "Export a single project ID")
	exportCmd.Flags().BoolVar(&exportShip, "ship", false, "Deliver the document to the configured destination")
	exportCmd.Flags().BoolVar(&exportStdout, "stdout", false, "Print the document to standard output")
}

// printSummaries writes one line per project and a totals line.
func printSummaries(w io.Writer, summaries []summary.ProjectSummary, rate decimal.Decimal) {
	fmt.Fprintln(w, "\n=== Project Summary ===")
	line := func(s summary.ProjectSummary) {
		name := s.ProjectName
		if s.ProjectID != "" && s.ProjectID != s.ProjectName {
			name = fmt.Sprintf("%s (%s)", s.ProjectName, s.ProjectID)
		}
		fmt.Fprintf(w, "%-32s %5d loads  %10s tons  %14s  %s\n",
			name, s.LoadCount, s.TotalTons, s.Revenue, s.EmissionsAvoided)
	}
	for _, s := range summaries {
		line(s)
	}
	line(summary.Total(summaries, rate))
}
