// Package cli implements the modelman command tree.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"modelman/internal/config"
	"modelman/pkg/logger"
)

// GlobalFlags holds flags shared by every command.
type GlobalFlags struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
	Offline    bool
}

var globalFlags GlobalFlags

type contextKey struct{}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "modelman",
		Short: "Modelman - model library client",
		Long: `Modelman is a client for a model-manager backend.
It browses folders of models, searches the catalog, edits model
metadata, and keeps a local snapshot for offline browsing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" || cmd.Name() == "help" {
				return nil
			}

			configPath := globalFlags.ConfigPath
			if configPath == "" {
				var err error
				configPath, err = config.DefaultConfigPath()
				if err != nil {
					return err
				}
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			logLevel := cfg.Log.Level
			if globalFlags.Verbose {
				logLevel = "debug"
			}
			if globalFlags.Quiet {
				logLevel = "error"
			}
			if err := logger.Init(logger.LogConfig{
				Level:  logLevel,
				Format: cfg.Log.Format,
				File:   cfg.Log.File,
			}); err != nil {
				return err
			}

			cliCtx := &CLIContext{
				Config:     cfg,
				ConfigPath: configPath,
				Offline:    globalFlags.Offline,
			}
			cmd.SetContext(context.WithValue(cmd.Context(), contextKey{}, cliCtx))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&globalFlags.ConfigPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Quiet, "quiet", "q", false, "only log errors")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.Offline, "offline", false, "start in offline mode")

	rootCmd.AddCommand(
		newFoldersCmd(),
		newModelsCmd(),
		newShowCmd(),
		newSearchCmd(),
		newUpdateCmd(),
		newStatusCmd(),
		newBrowseCmd(),
		newDevServerCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// fromCommand extracts the CLI context installed by PersistentPreRunE.
func fromCommand(cmd *cobra.Command) *CLIContext {
	cliCtx, _ := cmd.Context().Value(contextKey{}).(*CLIContext)
	return cliCtx
}
