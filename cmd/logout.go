// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"firefly/cli/internal/keychain"
)

var logoutAll bool

// logoutCmd removes stored credentials from the OS keychain.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the saved HSDS credentials",
	Long: `The logout command removes the HSDS username and password from the OS keychain.
HSDS keeps no server-side session, so nothing is sent to the server.

With --all the stored export DSN is removed as well.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		km, err := keychain.GetManager()
		if err != nil {
			return err
		}
		if logoutAll {
			_ = km.ClearAll()
			fmt.Println("✅ All credentials have been removed")
			return nil
		}
		_ = km.ClearCredentials()
		fmt.Println("✅ HSDS credentials have been removed")
		return nil
	},
}

func init() {
	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "also remove the stored export DSN")
	rootCmd.AddCommand(logoutCmd)
}
