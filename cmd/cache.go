package cmd

import (
	"errors"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"firefly/cli/internal/attrcache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the Redis attribute cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Drop every cached attribute map of the configured bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		if a.cfg.Cache.RedisAddr == "" {
			return errors.New("no cache configured; set cache.redis_addr")
		}
		rdb, err := attrcache.Dial(cmd.Context(), a.cfg.Cache.RedisAddr)
		if err != nil {
			return err
		}
		defer rdb.Close()

		n, err := attrcache.Purge(cmd.Context(), rdb, a.cfg.Bucket)
		if err != nil {
			return err
		}
		pterm.Success.Printfln("Removed %d cached entries for bucket %s", n, a.cfg.Bucket)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
