package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/peterh/liner"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"firefly/cli/internal/logging"
	"firefly/cli/internal/shell"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Edit a query interactively and fetch results",
	Long: `The shell command opens an interactive editor for the query. Clauses are added,
edited and removed by id, fetches run in the background and can be cancelled,
and results are printed on demand. Type 'help' for the command list.

History is kept for the session only.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		cat, release := a.catalog(ctx)
		defer release()
		model := a.newModel(cat)
		sh := shell.New(ctx, model, a.cfg.Schema(), os.Stdout, a.log)
		defer func() {
			model.Cancel()
			sh.Wait()
		}()

		lin := liner.NewLiner()
		defer lin.Close()
		lin.SetCtrlCAborts(true)
		lin.SetTabCompletionStyle(liner.TabPrints)
		lin.SetCompleter(sh.Complete)

		pterm.Info.Printfln("Browsing %s in bucket %s at %s. Type 'help' for commands.",
			a.cfg.Folder, a.cfg.Bucket, logging.MaskURL(a.cfg.Endpoint))

		for {
			line, err := lin.Prompt("firefly> ")
			if err != nil {
				if errors.Is(err, io.EOF) {
					fmt.Println()
					return nil
				}
				if errors.Is(err, liner.ErrPromptAborted) {
					// Ctrl-C at the prompt cancels a running fetch instead of quitting
					_ = sh.Exec("cancel")
					continue
				}
				return err
			}
			if line != "" {
				lin.AppendHistory(line)
			}
			if err := sh.Exec(line); err != nil {
				if errors.Is(err, shell.ErrQuit) {
					return nil
				}
				pterm.Error.Println(logging.PresentError("", err))
				if hint := logging.Hint(err); hint != "" {
					pterm.Println(hint)
				}
			}
			if ctx.Err() != nil {
				return nil
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(shellCmd)
}
