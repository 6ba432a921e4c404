package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vanastassiou/seneschal/internal/jsonx"
)

func init() {
	filesCmd := &cobra.Command{
		Use:   "files",
		Short: "Inspect the data files in the shared sync folder",
	}
	filesCmd.AddCommand(newFilesListCmd(), newFilesShowCmd())
	rootCmd.AddCommand(filesCmd)
}

func newFilesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every domain's data file in the sync folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			files, err := a.provider.ListAllDomainFiles(cmd.Context())
			if err != nil {
				return err
			}
			if len(files) == 0 {
				fmt.Println("No data files in the sync folder yet")
				return nil
			}

			for _, f := range files {
				marker := "  "
				if f.Domain == a.cfg.Domain {
					marker = green("* ")
				}
				fmt.Printf("%s%-20s %s\n", marker, f.Domain, f.LastModified)
			}
			return nil
		},
	}
}

func newFilesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <domain>",
		Short: "Print a domain's remote data as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			data := a.provider.FetchDomainData(cmd.Context(), args[0])
			if data == nil {
				fmt.Printf("No data for domain %q\n", args[0])
				return nil
			}

			raw, err := jsonx.Marshal(data)
			if err != nil {
				return err
			}
			os.Stdout.Write(raw)
			fmt.Println()
			return nil
		},
	}
}
