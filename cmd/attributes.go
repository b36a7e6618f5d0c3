package cmd

import (
	"os"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"firefly/cli/internal/hsds"
)

var attributesJSON bool

var attributesCmd = &cobra.Command{
	Use:     "attributes",
	Aliases: []string{"attrs"},
	Short:   "List the queryable attributes and their input kinds",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		schema := a.cfg.Schema()
		if attributesJSON {
			return writeIndentedJSON(os.Stdout, schema)
		}
		data := [][]string{{"#", "Attribute", "Kind"}}
		for i, s := range schema {
			data = append(data, []string{strconv.Itoa(i + 1), s.Name, string(s.Kind)})
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
			return err
		}
		ops := ""
		for i, op := range hsds.Operators() {
			if i > 0 {
				ops += " "
			}
			ops += string(op)
		}
		pterm.Println(pterm.FgGray.Sprint("operators: " + ops))
		return nil
	},
}

func init() {
	attributesCmd.Flags().BoolVar(&attributesJSON, "json", false, "print the table as JSON")
	rootCmd.AddCommand(attributesCmd)
}
