// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"firefly/cli/internal/browser"
	dsnpkg "firefly/cli/internal/dsn"
	"firefly/cli/internal/inventory"
	"firefly/cli/internal/keychain"
	"firefly/cli/internal/logging"
)

var (
	exportDSN     string
	exportSaveDSN bool
	exportTable   string
	exportWhere   []string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Fetch a query and upsert the results into PostgreSQL",
	Long: `The export command runs a query like 'firefly browse' and writes every matching
domain, with whatever attributes were fetched, into a PostgreSQL table. Rows are
keyed by the domain's root group id, so repeated exports refresh the table.

The DSN is taken from --dsn, then FIREFLY_EXPORT_DSN or DATABASE_URL, then the
OS keychain (store it there with --save-dsn).`,
	Example: `  firefly export --dsn postgres://localhost/flights --save-dsn -w "max_speed > 300"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		dsn := resolveExportDSN(a)
		if dsn == "" {
			pterm.Warning.Println("No export database configured.")
			pterm.Println("   Pass --dsn, set FIREFLY_EXPORT_DSN, or store one with --dsn ... --save-dsn.")
			return reportedError{errors.New("no export DSN")}
		}
		dsn, err = dsnpkg.Normalize(dsn)
		if err != nil {
			return err
		}
		if _, err := inventory.ParseDSN(dsn); err != nil {
			return err
		}
		if exportSaveDSN {
			km, err := keychain.GetManager()
			if err != nil {
				return err
			}
			if err := km.SaveExportDSN(dsn); err != nil {
				return err
			}
			pterm.Success.Println("Export DSN stored in the OS keychain")
		}

		table := a.cfg.Export.Table
		if cmd.Flags().Changed("table") {
			table = exportTable
		}

		cat, release := a.catalog(ctx)
		defer release()
		model := a.newModel(cat)
		for _, w := range exportWhere {
			c, err := browser.ParseClause(w)
			if err != nil {
				return err
			}
			model.AddClause(c.Attribute, c.Op, c.Value)
		}

		stop := startInlineSpinner(os.Stdout, "Fetching catalog", spinnerFrames, 120*time.Millisecond)
		err = model.Fetch(ctx)
		stop()
		if err != nil {
			return a.catalogFailure(err, "Failed to query the catalog")
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		records := model.Data()

		pterm.Println(pterm.NewStyle(pterm.FgLightCyan).Sprint("→ Database: ") + pterm.NewStyle(pterm.FgLightBlue).Sprint(logging.Mask(dsn)))
		if name := dsnpkg.DatabaseName(dsn); name != "" {
			a.log.Debug("export target", "database", name, "table", table)
		}
		pool, err := inventory.Connect(ctx, dsn)
		if err != nil {
			return err
		}
		defer pool.Close()

		exp, err := inventory.New(pool, table)
		if err != nil {
			return err
		}
		stop = startInlineSpinner(os.Stdout, "Writing "+exp.Table(), spinnerFrames, 120*time.Millisecond)
		res, err := exp.Export(ctx, records)
		stop()
		if err != nil {
			return err
		}
		pterm.Success.Printfln("Exported %d domains (%d enriched) into %s", len(records), res.Enriched, res.Table)
		a.log.Debug("export finished", "rows_affected", res.Rows, "session", model.SessionID())
		return nil
	},
}

// resolveExportDSN picks the DSN from the flag, the environment or the keychain.
func resolveExportDSN(a *app) string {
	if v := strings.TrimSpace(exportDSN); v != "" {
		return v
	}
	for _, env := range []string{"FIREFLY_EXPORT_DSN", "DATABASE_URL"} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v
		}
	}
	km, err := keychain.GetManager()
	if err != nil {
		a.log.Debug("keychain unavailable", "error", err)
		return ""
	}
	v, err := km.LoadExportDSN()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(v)
}

func init() {
	exportCmd.Flags().StringVar(&exportDSN, "dsn", "", "PostgreSQL connection string")
	exportCmd.Flags().BoolVar(&exportSaveDSN, "save-dsn", false, "store the DSN in the OS keychain")
	exportCmd.Flags().StringVar(&exportTable, "table", inventory.DefaultTable, "target table, optionally schema-qualified (default export.table)")
	exportCmd.Flags().StringArrayVarP(&exportWhere, "where", "w", nil, "query clause (repeatable)")
	rootCmd.AddCommand(exportCmd)
}
