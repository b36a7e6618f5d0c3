// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the firefly CLI.
// It implements the subcommands that browse the FIREfly flight catalog on an
// HSDS server: one-shot queries, an interactive query shell, a gRPC bridge for
// remote consumers, PostgreSQL export and credential management, all on top of
// the Cobra CLI framework.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"firefly/cli/internal/config"
	"firefly/cli/internal/hsds"
	"firefly/cli/internal/httperrors"
	"firefly/cli/internal/logging"
)

var (
	showVersion bool

	cfgFile      string
	flagEndpoint string
	flagBucket   string
	flagFolder   string
	flagBatch    int
	flagLogLevel string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "firefly",
	Short: "Browse the FIREfly flight catalog on an HSDS server",
	Long: `firefly queries the FIREfly flight data catalog hosted on an HSDS (HDF over HTTP)
server. Queries are built from attribute clauses such as "max_altitude >= 1000";
matching domains are listed first and then enriched with their attribute values
as they arrive.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			return printVersion(cmd)
		}
		// If no flag is set, show help
		return cmd.Help()
	},
}

// Execute runs the CLI application. Ctrl-C cancels the command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var shown reportedError
		if !errors.As(err, &shown) {
			fmt.Fprintln(os.Stderr, logging.PresentError("", err))
			if hint := logging.Hint(err); hint != "" {
				fmt.Fprintln(os.Stderr, hint)
			}
		}
		stop()
		os.Exit(1)
	}
}

// reportedError marks an error that was already explained to the user.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

// catalogFailure explains a failed catalog request with pterm and returns it
// marked as reported.
func (a *app) catalogFailure(err error, context string) error {
	return reportedError{httperrors.FormatNetworkError(err, context, httperrors.ExtractHostFromURL(a.cfg.Endpoint))}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI and server version information")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/firefly/config.json)")
	pf.StringVar(&flagEndpoint, "endpoint", "", "HSDS endpoint URL")
	pf.StringVar(&flagBucket, "bucket", "", "HSDS bucket")
	pf.StringVar(&flagFolder, "folder", "", "catalog folder to search")
	pf.IntVar(&flagBatch, "batch-size", 0, "attribute requests kept in flight")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "shorthand for --log-level debug")
}

// app is the configuration and logger shared by every command.
type app struct {
	cfg config.Config
	log *slog.Logger
}

// loadApp resolves configuration from file, environment and flags.
func loadApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		cfg.Endpoint = flagEndpoint
	}
	if flags.Changed("bucket") {
		cfg.Bucket = flagBucket
	}
	if flags.Changed("folder") {
		cfg.Folder = flagFolder
	}
	if flags.Changed("batch-size") {
		cfg.BatchSize = flagBatch
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &app{cfg: cfg, log: logging.New(cfg.LogLevel, os.Stderr)}, nil
}

// printVersion shows the CLI version and, when reachable, the server's.
func printVersion(cmd *cobra.Command) error {
	a, err := loadApp(cmd)
	if err != nil {
		fmt.Printf("firefly %s\n", Version)
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	serverVersion := "unknown"
	if info, err := hsds.New(a.cfg.Endpoint, a.clientOptions()...).About(ctx); err == nil && info.Version != "" {
		serverVersion = info.Version
	} else if err != nil {
		a.log.Debug("server version unavailable", "error", err)
	}
	fmt.Printf("firefly %s\nhsds %s (%s)\n", Version, serverVersion, logging.MaskURL(a.cfg.Endpoint))
	return nil
}
