package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"firefly/cli/internal/config"
	"firefly/cli/internal/logging"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the saved configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print every setting after defaults, the config file and FIREFLY_* environment
variables have been applied.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		path := cfgFile
		if path == "" {
			path, _ = config.Path()
		}
		data := [][]string{{"Key", "Value"}}
		for _, k := range config.Keys() {
			v, _ := cfg.Get(k)
			if k == "endpoint" {
				v = logging.MaskURL(v)
			}
			data = append(data, []string{k, v})
		}
		pterm.Println(pterm.FgGray.Sprint("config file: " + path))
		if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
			return err
		}
		if len(cfg.Attrs) > 0 {
			pterm.Printfln("attributes: %d configured (see 'firefly attributes')", len(cfg.Attrs))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:       "set <key> <value>",
	Short:     "Change one setting in the config file",
	Args:      cobra.ExactArgs(2),
	ValidArgs: config.Keys(),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			p, err := config.Path()
			if err != nil {
				return err
			}
			path = p
		}
		cfg, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("not saved: %w", err)
		}
		if err := config.Save(path, cfg); err != nil {
			return err
		}
		v, _ := cfg.Get(args[0])
		pterm.Success.Printfln("%s = %s", args[0], v)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
