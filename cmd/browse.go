package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"firefly/cli/internal/browser"
	"firefly/cli/internal/render"
	"firefly/cli/internal/terminal"
)

var (
	browseWhere   []string
	browseJSON    bool
	browseNoLive  bool
	browseColumns []string
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Run one query and print the matching domains",
	Long: `The browse command lists the domains of the configured folder that match every
--where clause, then fetches each domain's attributes with a bounded number of
requests in flight. Progress is shown live while attributes arrive.

Clauses take the form "<attribute> <op> <value>" with op one of == <= >= < >.
Values that look like numbers are compared numerically; anything else is sent
as a quoted string. Ctrl-C cancels the fetch and prints what has arrived.`,
	Example: `  firefly browse -w "max_altitude >= 1000" -w "aircraft_type == F-16"
  firefly browse --json > flights.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		cat, release := a.catalog(ctx)
		defer release()
		model := a.newModel(cat)

		for _, w := range browseWhere {
			c, err := browser.ParseClause(w)
			if err != nil {
				return err
			}
			model.AddClause(c.Attribute, c.Op, c.Value)
		}

		columns := browser.Columns(a.cfg.Schema())
		if len(browseColumns) > 0 {
			columns = browseColumns
		}

		var live *render.Live
		if !browseJSON && !browseNoLive && terminal.IsInteractive() {
			live = render.NewLive(model)
			if err := live.Start(); err != nil {
				a.log.Debug("live view unavailable", "error", err)
				live.Stop()
				live = nil
			}
		}

		err = model.Fetch(ctx)
		if live != nil {
			live.Stop()
		}
		if err != nil {
			return a.catalogFailure(err, "Failed to query the catalog")
		}
		if ctx.Err() != nil {
			pterm.Warning.Println("Cancelled; showing the domains fetched so far.")
		}

		records := model.Data()
		if browseJSON {
			return render.WriteJSON(os.Stdout, records)
		}
		if err := render.PrintTable(records, columns); err != nil {
			return fmt.Errorf("render table: %w", err)
		}
		render.PrintSummary(records)
		return nil
	},
}

func init() {
	browseCmd.Flags().StringArrayVarP(&browseWhere, "where", "w", nil, `query clause, e.g. "max_altitude >= 1000" (repeatable)`)
	browseCmd.Flags().BoolVar(&browseJSON, "json", false, "print records as JSON")
	browseCmd.Flags().BoolVar(&browseNoLive, "no-live", false, "do not show live progress")
	browseCmd.Flags().StringSliceVar(&browseColumns, "columns", nil, "columns to show (default: summary fields and every schema attribute)")
	_ = browseCmd.RegisterFlagCompletionFunc("columns", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var out []string
		for _, c := range browser.Columns(browser.DefaultSchema()) {
			if strings.HasPrefix(c, toComplete) {
				out = append(out, c)
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	})
	rootCmd.AddCommand(browseCmd)
}
