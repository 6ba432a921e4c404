package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vanastassiou/seneschal/internal/gdrive"
)

func init() {
	folderCmd := &cobra.Command{
		Use:   "folder",
		Short: "Manage the Drive folder used for syncing",
	}
	folderCmd.AddCommand(newFolderListCmd(), newFolderSetCmd(), newFolderClearCmd())
	rootCmd.AddCommand(folderCmd)
}

func newFolderListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List Drive folders visible to the granted scopes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			folders, err := a.provider.ListFolders(cmd.Context())
			if err != nil {
				return err
			}
			if len(folders) == 0 {
				fmt.Println("No folders visible. Create one in Drive first.")
				return nil
			}

			current, _ := a.provider.Folder()
			for _, f := range folders {
				marker := "  "
				if current != nil && current.ID == f.ID {
					marker = green("* ")
				}
				fmt.Printf("%s%s  (%s)\n", marker, f.Name, f.ID)
			}
			return nil
		},
	}
}

func newFolderSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <name>",
		Short: "Select the folder to sync into, by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			folders, err := a.provider.ListFolders(cmd.Context())
			if err != nil {
				return err
			}

			var match *gdrive.Folder
			for i := range folders {
				if folders[i].Name == args[0] {
					if match != nil {
						return fmt.Errorf("multiple folders named %q; pick a unique name", args[0])
					}
					match = &folders[i]
				}
			}
			if match == nil {
				return fmt.Errorf("no folder named %q", args[0])
			}

			if err := a.provider.SelectFolder(match); err != nil {
				return err
			}
			fmt.Println(green("Sync folder set:"), match.Name)
			return nil
		},
	}
}

func newFolderClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the folder selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.provider.RemoveFolder(); err != nil {
				return err
			}
			fmt.Println("Sync folder cleared")
			return nil
		},
	}
}
