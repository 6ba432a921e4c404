package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vanastassiou/seneschal/internal/syncer"
)

func init() {
	rootCmd.AddCommand(newSyncCmd())
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync cycle against the remote folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			unsubscribe := a.engine.OnStatusChange(func(status syncer.Status, lastError string) {
				switch status {
				case syncer.StatusSyncing:
					fmt.Println("Syncing", cyan(a.cfg.Domain), "...")
				case syncer.StatusError:
					fmt.Println(red("Sync failed:"), lastError)
				}
			})
			defer unsubscribe()

			res := a.engine.Sync(cmd.Context())
			if !res.Success {
				return fmt.Errorf("%s", res.Error)
			}

			lastSync, _ := a.engine.LastSync()
			fmt.Println(green("Synced"), "at", lastSync)
			return nil
		},
	}
}
