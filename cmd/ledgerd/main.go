package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"equipment-ledger-backend/config"
	"equipment-ledger-backend/internal/logging"
)

const appName = "ledgerd"

func main() {
	command := NewLedgerCommand()
	if err := command.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// NewLedgerCommand builds the root command. The configuration file is taken
// from --config, then CONFIG_PATH, then ./config/config.yaml. When neither
// the flag nor the variable is set and ./config/config.yaml does not exist,
// built-in defaults are used.
func NewLedgerCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           fmt.Sprintf("%s [command]", appName),
		Short:         "Equipment ledger backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the YAML configuration file")

	env := func() (*config.Config, *zap.Logger, error) {
		return loadEnv(configPath)
	}
	cmd.AddCommand(NewServeCommand(env))
	cmd.AddCommand(NewMigrateCommand(env))
	cmd.AddCommand(NewScanCommand(env))
	cmd.AddCommand(NewLabelCommand())

	return cmd
}

type envFunc func() (*config.Config, *zap.Logger, error)

func loadEnv(configPath string) (*config.Config, *zap.Logger, error) {
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	explicit := configPath != ""
	if !explicit {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	defaults := err != nil && !explicit && errors.Is(err, fs.ErrNotExist)
	switch {
	case defaults:
		cfg = config.Default()
	case err != nil:
		return nil, nil, fmt.Errorf("failed to load configuration from %s: %w", configPath, err)
	}

	logger, err := logging.NewLogger(&cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	if defaults {
		logger.Info("no configuration file found, using defaults", zap.String("path", configPath))
	} else {
		logger.Info("configuration loaded", zap.String("path", configPath))
	}
	return cfg, logger, nil
}
