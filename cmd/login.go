// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"firefly/cli/internal/logging"
	"firefly/cli/internal/terminal"
)

var (
	loginUsername      string
	loginPasswordStdin bool
)

// loginCmd stores HSDS credentials after verifying them against the server.
var loginCmd = &cobra.Command{
	Use:     "login",
	Aliases: []string{"auth"},
	Short:   "Store HSDS credentials in the OS keychain",
	Long: `The login command asks for an HSDS username and password, checks them against the
server's /about endpoint and stores them in the OS keychain. Every other command
then authenticates with HTTP basic auth.

If valid credentials are already stored, it reports the account and exits.
Use --password-stdin to pipe the password in non-interactive setups.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		svc := a.authService()
		if svc == nil {
			return errors.New("no OS keychain is available to store credentials; set FIREFLY_USERNAME and FIREFLY_PASSWORD instead")
		}
		// If already logged in with valid credentials, short-circuit
		if account, ok, _ := svc.WhoAmI(ctx); ok && loginUsername == "" {
			fmt.Printf("Already logged in as %s\n", account)
			return nil
		}

		in := bufio.NewReader(os.Stdin)
		username := strings.TrimSpace(loginUsername)
		if username == "" {
			prompt := "HSDS username: "
			username, err = terminal.ReadLine(in, prompt)
			if err != nil {
				return err
			}
			terminal.ClearPreviousLines(len(prompt) + len(username))
		}
		var password string
		if loginPasswordStdin {
			password, err = terminal.ReadLine(in, "")
		} else {
			password, err = terminal.ReadPassword(in, "HSDS password for "+username+": ")
		}
		if err != nil {
			return err
		}

		stop := startInlineSpinner(os.Stdout, "Verifying credentials with "+logging.MaskURL(a.cfg.Endpoint), spinnerFrames, 120*time.Millisecond)
		info, err := svc.Login(ctx, username, password)
		stop()
		if err != nil {
			return a.catalogFailure(err, "Login failed")
		}

		pterm.Success.Printfln("Logged in as %s", username)
		if info.Greeting != "" {
			pterm.Println(pterm.FgGray.Sprint(info.Greeting))
		}
		if info.Name != "" || info.Version != "" {
			pterm.Println(pterm.FgGray.Sprintf("%s %s, state %s", info.Name, info.Version, info.State))
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "HSDS username (prompted when empty)")
	loginCmd.Flags().BoolVar(&loginPasswordStdin, "password-stdin", false, "read the password from stdin")
	rootCmd.AddCommand(loginCmd)
}
