package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/loadexport/internal/csvparser"
	"github.com/ginjaninja78/loadexport/internal/normalize"
	"github.com/ginjaninja78/loadexport/internal/source"
)

var initdbSeed string

// initdbCmd creates the Postgres cache schema and optionally seeds it from
// a CSV snapshot.
var initdbCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Create the Postgres load cache schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, ctx, err := setup(cmd)
		if err != nil {
			return err
		}
		if cfg.Source.DatabaseURI == "" {
			return fmt.Errorf("initdb needs source.database_uri or LOADEXPORT_DATABASE_URI")
		}

		n := normalize.New(normalize.WithExtraAliases(cfg.FieldAliases))
		pg, err := source.OpenPostgres(ctx, cfg.Source.DatabaseURI, n)
		if err != nil {
			return err
		}
		defer pg.Close()

		if err := pg.InitSchema(ctx); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Schema ready")

		if initdbSeed == "" {
			return nil
		}

		data, err := csvparser.Parse(initdbSeed, cfg.Source.CSVSettings)
		if err != nil {
			return fmt.Errorf("failed to read seed: %w", err)
		}
		stored, skipped, err := pg.Put(ctx, data.Records)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Seeded %d load(s) from %s", stored, initdbSeed)
		if skipped > 0 {
			fmt.Fprintf(out, ", skipped %d without an ID", skipped)
		}
		fmt.Fprintln(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initdbCmd)

	initdbCmd.Flags().StringVar(&initdbSeed, "seed", "", "CSV snapshot to load into the cache")
}
