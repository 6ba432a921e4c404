package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/vanastassiou/seneschal/internal/config"
	"github.com/vanastassiou/seneschal/internal/utils"
	"github.com/vanastassiou/seneschal/internal/version"
)

var (
	home, _        = os.UserHomeDir()
	configFileName = "config"
)

var (
	red   = color.New(color.FgHiRed, color.Bold).SprintFunc()
	green = color.New(color.FgHiGreen).SprintFunc()
	cyan  = color.New(color.FgHiCyan).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:           "seneschal",
	Short:         "Sync application data through Google Drive",
	Version:       version.Detailed(),
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().SortFlags = false
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "config file")
	rootCmd.PersistentFlags().StringP("domain", "d", "", "domain to sync (overrides config)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug output to the terminal")
}

func main() {
	setupLogging()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", red("ERROR"), err)
		os.Exit(1)
	}
}

func setupLogging() {
	terminalLevel := slog.LevelWarn
	for _, arg := range os.Args[1:] {
		if arg == "-v" || arg == "--verbose" {
			terminalLevel = slog.LevelDebug
		}
	}

	stdoutHandler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      terminalLevel,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})
	fileHandler := slog.NewTextHandler(&lumberjack.Logger{
		Filename:   config.DefaultLogFilePath,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     30, // days
	}, &slog.HandlerOptions{Level: slog.LevelDebug})

	slog.SetDefault(slog.New(utils.NewFanoutHandler(stdoutHandler, fileHandler)))
}

// loadConfig resolves the config file from the --config flag, the standard
// search paths and SENESCHAL_* environment variables, in that order of
// precedence for individual keys.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if cmd.Flag("config").Changed {
		configFilePath, _ := cmd.Flags().GetString("config")
		viper.SetConfigFile(configFilePath)
	} else {
		viper.AddConfigPath(filepath.Join(home, ".seneschal"))
		viper.AddConfigPath(filepath.Join(home, ".config/seneschal"))
		viper.SetConfigName(configFileName)
		viper.SetConfigType("json")
	}

	if err := viper.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !enoent && !notFound {
			return nil, fmt.Errorf("config read '%s': %w", viper.ConfigFileUsed(), err)
		}
	}

	viper.BindPFlag("domain", cmd.Flags().Lookup("domain"))

	viper.SetEnvPrefix("SENESCHAL")
	viper.AutomaticEnv()

	cfg := &config.Config{
		Path:         viper.ConfigFileUsed(),
		ClientID:     viper.GetString("client_id"),
		ClientSecret: viper.GetString("client_secret"),
		RedirectURI:  viper.GetString("redirect_uri"),
		Scopes:       viper.GetStringSlice("scopes"),
		Domain:       viper.GetString("domain"),
		DataFile:     viper.GetString("data_file"),
		StatePath:    viper.GetString("state_path"),
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
