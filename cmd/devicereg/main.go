package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"devicereg/internal/app"
	"devicereg/internal/config"
	"devicereg/internal/logging"
)

// set via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "devicereg",
		Short:        "Account registry with device self-destruct flags and UTM links",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), versionCmd())
	return root
}

func serveCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := logging.Setup(cfg.Log.Level)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					logger.Error("[app] close database", "err", err)
				}
			}()
			return a.Run(ctx)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the YAML config file")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
