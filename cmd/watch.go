package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"firefly/cli/internal/bridge"
	"firefly/cli/internal/logging"
)

var (
	watchAddr  string
	watchWhere []string
	watchFetch bool
	watchJSON  bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the change notifications of a 'firefly serve' process",
	Long: `The watch command connects to a running 'firefly serve' bridge and prints every
query and data notification as it happens. With --fetch it also asks the server
to run a fetch, replacing the server's query with the --where clauses.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		addr := a.cfg.Bridge.Addr
		if cmd.Flags().Changed("addr") {
			addr = watchAddr
		}
		ctx := cmd.Context()

		client, err := bridge.Dial(addr)
		if err != nil {
			return err
		}
		defer client.Close()

		snap, err := client.Snapshot(ctx)
		if err != nil {
			logging.PresentStreamError(addr, err.Error())
			return reportedError{err}
		}
		if !watchJSON {
			pterm.Info.Printfln("Connected to %s: %d clauses, %d domains, %s", addr, len(snap.Query), len(snap.Records), snap.State)
		}

		events, err := client.Watch(ctx)
		if err != nil {
			logging.PresentStreamError(addr, err.Error())
			return reportedError{err}
		}

		if watchFetch {
			go func() {
				res, err := client.Fetch(ctx, watchWhere, len(watchWhere) > 0)
				if err != nil {
					if ctx.Err() == nil {
						pterm.Error.Println(logging.PresentError("fetch", err))
					}
					return
				}
				a.log.Info("fetch finished", "session", res.Session, "rows", res.Rows, "enriched", res.Enriched)
			}()
		}

		enc := json.NewEncoder(os.Stdout)
		for e := range events {
			switch e.Type {
			case bridge.EventStreamClosed:
				return nil
			case bridge.EventStreamError:
				if ctx.Err() != nil {
					return nil
				}
				logging.PresentStreamError(addr, e.Message)
				return reportedError{fmt.Errorf("bridge stream: %s", e.Message)}
			}
			if watchJSON {
				if err := enc.Encode(e); err != nil {
					return err
				}
				continue
			}
			printEvent(e)
		}
		return nil
	},
}

func printEvent(e bridge.Event) {
	switch e.Type {
	case bridge.EventWatching:
		pterm.Println(pterm.FgGray.Sprint("watching for changes"))
	case bridge.EventQueryChanged:
		pterm.Println(pterm.FgCyan.Sprint("query changed"))
	case bridge.EventResync:
		pterm.Warning.Println("events were dropped; run 'firefly watch' again for a fresh snapshot")
	case bridge.EventDataChanged:
		if e.Row < 0 {
			pterm.Printfln("%s %s  %d domains  %s", pterm.FgYellow.Sprint("reset"), e.State, e.Rows, pterm.FgGray.Sprint(shortSession(e.Session)))
			return
		}
		name, _ := e.Record["name"].(string)
		attrs, _ := e.Record["attributes"].(map[string]any)
		pterm.Printfln("%s row %d  %s  %d attributes", pterm.FgGreen.Sprint("✓"), e.Row, path.Base(name), len(attrs))
	}
}

func shortSession(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	watchCmd.Flags().StringVar(&watchAddr, "addr", "", "bridge address (default bridge.addr)")
	watchCmd.Flags().StringArrayVarP(&watchWhere, "where", "w", nil, "query clause for --fetch (repeatable)")
	watchCmd.Flags().BoolVar(&watchFetch, "fetch", false, "ask the server to run a fetch")
	watchCmd.Flags().BoolVar(&watchJSON, "json", false, "print events as JSON lines")
	rootCmd.AddCommand(watchCmd)
}
