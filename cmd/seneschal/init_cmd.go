package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vanastassiou/seneschal/internal/config"
	"github.com/vanastassiou/seneschal/internal/utils"
)

func init() {
	rootCmd.AddCommand(newInitCmd())
}

func newInitCmd() *cobra.Command {
	var clientID string
	var clientSecret string
	var redirectURI string
	var domain string
	var dataFile string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the OAuth client credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")

			if utils.FileExists(configPath) {
				fmt.Println("Config already exists at", cyan(configPath))
				fmt.Println("Edit it directly or remove it to start over.")
				return nil
			}

			if clientID == "" {
				return fmt.Errorf("--client-id is required")
			}

			cfg := &config.Config{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				RedirectURI:  redirectURI,
				Domain:       domain,
				DataFile:     dataFile,
				Path:         configPath,
			}
			cfg.ApplyDefaults()

			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return err
			}

			fmt.Println(green("Config written"))
			fmt.Printf("Config path: %s\n", cyan(cfg.Path))
			fmt.Printf("Domain:      %s\n", cyan(cfg.Domain))
			fmt.Printf("Data file:   %s\n", cyan(cfg.DataFile))
			fmt.Println()
			fmt.Println("Run", cyan("seneschal login"), "to authorize access to Google Drive.")
			return nil
		},
	}

	cmd.Flags().SortFlags = false
	cmd.Flags().StringVar(&clientID, "client-id", "", "OAuth client id")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "OAuth client secret (omit for public clients)")
	cmd.Flags().StringVar(&redirectURI, "redirect-uri", config.DefaultRedirectURI, "loopback redirect URI registered with the OAuth client")
	cmd.Flags().StringVar(&domain, "domain", config.DefaultDomain, "domain to sync")
	cmd.Flags().StringVar(&dataFile, "data-file", config.DefaultDataFile, "local JSON snapshot the sync engine reads and writes")

	return cmd
}
