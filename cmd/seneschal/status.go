package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newStatusCmd())
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connection, folder and last sync state",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Printf("Domain:     %s\n", a.cfg.Domain)
			fmt.Printf("Data file:  %s\n", a.cfg.DataFile)

			if a.provider.IsConnected() {
				account := emailFromIDToken(a.auth.IDToken(providerName))
				if account == "" {
					account = "connected"
				}
				fmt.Printf("Account:    %s\n", green(account))
			} else {
				fmt.Printf("Account:    %s\n", red("not logged in"))
			}

			folder, err := a.provider.Folder()
			if err != nil {
				return err
			}
			if folder != nil {
				fmt.Printf("Folder:     %s\n", folder.Name)
			} else {
				fmt.Printf("Folder:     %s\n", red("not configured"))
			}

			lastSync, err := a.engine.LastSync()
			if err != nil {
				return err
			}
			if lastSync == "" {
				lastSync = "never"
			}
			fmt.Printf("Last sync:  %s\n", lastSync)

			if a.engine.CanSync() {
				fmt.Printf("Ready:      %s\n", green("yes"))
			} else {
				fmt.Printf("Ready:      %s\n", red("no"))
			}
			return nil
		},
	}
}
