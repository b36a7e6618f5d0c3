package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"firefly/cli/internal/bridge"
	"firefly/cli/internal/browser"
	"firefly/cli/internal/metrics"
)

var (
	serveAddr        string
	serveMetricsAddr string
	serveWhere       []string
	serveFetch       bool
	serveBuffer      int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host a query model for remote consumers over gRPC",
	Long: `The serve command keeps one query model in memory and exposes it through the
firefly.bridge.Browser gRPC service. Remote consumers can replace the query,
trigger and cancel fetches, take snapshots and watch the model's change
notifications ('firefly watch' is one such consumer).

With --metrics-addr (or metrics.addr in the config) Prometheus metrics for
catalog requests and enrichment are served at /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			a.cfg.Bridge.Addr = serveAddr
		}
		if cmd.Flags().Changed("metrics-addr") {
			a.cfg.Metrics.Addr = serveMetricsAddr
		}
		ctx := cmd.Context()

		cat, release := a.catalog(ctx)
		defer release()
		model := a.newModel(cat)
		for _, w := range serveWhere {
			c, err := browser.ParseClause(w)
			if err != nil {
				return err
			}
			model.AddClause(c.Attribute, c.Op, c.Value)
		}

		lis, err := net.Listen("tcp", a.cfg.Bridge.Addr)
		if err != nil {
			return err
		}
		srv := bridge.NewServer(model, a.log, serveBuffer)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return bridge.Serve(gctx, lis, srv) })

		if a.cfg.Metrics.Addr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			hs := &http.Server{Addr: a.cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
			g.Go(func() error {
				a.log.Info("metrics listening", "addr", a.cfg.Metrics.Addr)
				if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return hs.Shutdown(sctx)
			})
		}

		if serveFetch {
			g.Go(func() error {
				if err := model.Fetch(gctx); err != nil {
					a.log.Error("initial fetch failed", "error", err)
				}
				return nil
			})
		}

		pterm.Success.Printfln("Serving %s on %s (Ctrl-C to stop)", a.cfg.Folder, lis.Addr())
		err = g.Wait()
		model.Cancel()
		return err
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "bridge listen address (default bridge.addr)")
	serveCmd.Flags().StringVar(&serveMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (default metrics.addr)")
	serveCmd.Flags().StringArrayVarP(&serveWhere, "where", "w", nil, "initial query clause (repeatable)")
	serveCmd.Flags().BoolVar(&serveFetch, "fetch", false, "run the initial query on start")
	serveCmd.Flags().IntVar(&serveBuffer, "watch-buffer", bridge.DefaultWatchBuffer, "events queued per watcher before it is resynced")
	rootCmd.AddCommand(serveCmd)
}
