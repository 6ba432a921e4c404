package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newLogoutCmd())
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Drop the stored Google Drive credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.provider.IsConnected() {
				fmt.Println("Not logged in")
				return nil
			}

			if err := a.provider.Disconnect(); err != nil {
				return err
			}
			fmt.Println(green("Logged out"))
			return nil
		},
	}
}
