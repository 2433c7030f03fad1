package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dcrubro/ftc-driver-hub/internal/config"
	"github.com/dcrubro/ftc-driver-hub/internal/logging"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func main() {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "ftchub",
		Short: "Driver station for FTC robot controllers",
		Long: `ftchub speaks the FTC Driver Station UDP protocol to a robot controller.

It keeps the session alive with heartbeats and gamepad snapshots, tracks
the robot's op-mode state and telemetry, and can expose everything over
HTTP and a websocket feed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error, off")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format: console or json")

	rootCmd.AddCommand(
		connectCmd(opts),
		decodeCmd(),
		historyCmd(opts),
		tokenCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config named by --config, or the default path when
// it exists.
func (o *rootOptions) loadConfig() (config.Config, error) {
	if o.configPath != "" {
		return config.Load(o.configPath)
	}
	return config.LoadOptional(config.DefaultPath())
}

func (o *rootOptions) logger(cfg config.Config) (*zap.Logger, error) {
	lo := logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}
	if o.logLevel != "" {
		lo.Level = o.logLevel
	}
	if o.logFormat != "" {
		lo.Format = o.logFormat
	}
	return logging.New(lo)
}
