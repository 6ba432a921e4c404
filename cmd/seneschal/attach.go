package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func init() {
	attachCmd := &cobra.Command{
		Use:   "attach",
		Short: "Manage binary attachments in the sync folder",
	}
	attachCmd.AddCommand(
		newAttachPutCmd(),
		newAttachListCmd(),
		newAttachGetCmd(),
		newAttachRemoveCmd(),
	)
	rootCmd.AddCommand(attachCmd)
}

func newAttachPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <file>",
		Short: "Upload a file as an attachment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			// attachment names use a '-' delimiter, so the id itself must not
			// contain one
			id := strings.ReplaceAll(uuid.NewString(), "-", "")
			att, err := a.provider.UploadAttachment(cmd.Context(), id, filepath.Base(args[0]), content)
			if err != nil {
				return err
			}

			fmt.Println(green("Uploaded"), att.Filename)
			fmt.Println("ID:", cyan(att.ID))
			return nil
		},
	}
}

func newAttachListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the domain's attachments",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			attachments, err := a.provider.ListAttachments(cmd.Context())
			if err != nil {
				return err
			}
			if len(attachments) == 0 {
				fmt.Println("No attachments")
				return nil
			}

			for _, att := range attachments {
				fmt.Printf("%s  %s\n", cyan(att.ID), att.Filename)
			}
			return nil
		},
	}
}

func newAttachGetCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Download an attachment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			att, content, err := a.provider.DownloadAttachment(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			dest := output
			if dest == "" {
				dest = att.Filename
			}
			if err := os.WriteFile(dest, content, 0644); err != nil {
				return err
			}

			fmt.Println(green("Downloaded"), dest)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "destination path (defaults to the attachment's filename)")
	return cmd
}

func newAttachRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete an attachment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.provider.DeleteAttachment(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Attachment deleted")
			return nil
		},
	}
}
