package render

import (
	"github.com/pterm/pterm"

	"firefly/cli/internal/browser"
)

// PrintTable renders records as a boxed pterm table.
func PrintTable(records []browser.Record, columns []string) error {
	if len(records) == 0 {
		pterm.Info.Println("No domains match the query.")
		return nil
	}
	return pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithData(Rows(records, columns)).
		Render()
}

// PrintSummary prints how many rows were enriched.
func PrintSummary(records []browser.Record) {
	enriched := 0
	for _, r := range records {
		if r.Enriched() {
			enriched++
		}
	}
	switch {
	case len(records) == 0:
	case enriched == len(records):
		pterm.Success.Printfln("%d domains, all enriched", len(records))
	default:
		pterm.Warning.Printfln("%d domains, %d without attributes (see log for details)", len(records), len(records)-enriched)
	}
}
