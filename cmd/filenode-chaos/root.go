package main

import (
	"fmt"

	"github.com/opd-ai/filenode/config"
	"github.com/opd-ai/filenode/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgPath   string
	storePath string
	logLevel  string
	logFormat string
	globalCfg *config.Config

	// Global components
	globalStore *store.Store
)

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filenode-chaos",
		Short: "Fault-injection harness for the filenode state machines",
		Long: `filenode-chaos runs simulated transfers and connections against the
filenode state machines while injecting dropped packets, wrong offsets,
disconnects and corrupted chunks. Every run must either complete or end in a
recoverable state; the transition timeline can be persisted to SQLite for
later inspection.`,
		Example: `  filenode-chaos transfer --size 50000 --runs 20 --parallel 4
  filenode-chaos connect --fail-first 2 --heartbeats 10
  filenode-chaos timeline show --store timeline.db --format json
  filenode-chaos config init filenode.yaml`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd); err != nil {
				return err
			}
			if err := globalCfg.Log.Apply(logrus.StandardLogger()); err != nil {
				return err
			}

			if globalCfg.Store.Path == "" {
				return nil
			}
			st, err := store.New(globalCfg.Store.Path)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			globalStore = st
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			closeStore()
		},
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&storePath, "store", "", "SQLite timeline database (overrides store.path)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text or json)")

	cmd.AddCommand(
		newTransferCmd(),
		newConnectCmd(),
		newTimelineCmd(),
		newConfigCmd(),
	)

	return cmd
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(cmd *cobra.Command) error {
	if cfgPath != "" {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		globalCfg = cfg
	} else {
		globalCfg = config.DefaultConfig()
	}

	// The config subcommands never touch the store.
	if cmd.Parent() != nil && cmd.Parent().Name() == "config" {
		globalCfg.Store.Path = ""
	} else if storePath != "" {
		globalCfg.Store.Path = storePath
	}
	if logLevel != "" {
		globalCfg.Log.Level = logLevel
	}
	if logFormat != "" {
		globalCfg.Log.Format = logFormat
	}
	return globalCfg.Validate()
}

// closeStore closes the global store connection
func closeStore() {
	if globalStore == nil {
		return
	}
	if err := globalStore.Close(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "closeStore",
			"error":    err.Error(),
		}).Error("Failed to close store")
	}
	globalStore = nil
}
