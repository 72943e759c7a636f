package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"modelman/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit the configuration",
	}
	cmd.AddCommand(newConfigGetCmd(), newConfigSetCmd(), newConfigSetTokenCmd())
	return cmd
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := fromCommand(cmd).Config
			fmt.Printf("backend.base_url:    %s\n", cfg.Backend.BaseURL)
			fmt.Printf("backend.timeout:     %s\n", cfg.Backend.GetTimeout())
			fmt.Printf("backend.max_retries: %d\n", cfg.Backend.MaxRetries)
			fmt.Printf("health.interval:     %s\n", cfg.Health.GetInterval())
			fmt.Printf("health.timeout:      %s\n", cfg.Health.GetTimeout())
			fmt.Printf("dedupe.grace:        %s\n", cfg.Dedupe.GetGrace())
			fmt.Printf("sync.schedule:       %s\n", cfg.Sync.Schedule)
			fmt.Printf("cache.path:          %s\n", cfg.Cache.Path)
			fmt.Printf("log.level:           %s\n", cfg.Log.Level)
			if cfg.Backend.APIToken != "" {
				fmt.Println("backend.api_token:   (set)")
			}
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := fromCommand(cmd)
			cfg := cliCtx.Config

			key, value := args[0], args[1]
			switch key {
			case "backend.base_url":
				cfg.Backend.BaseURL = value
			case "backend.timeout":
				cfg.Backend.Timeout = value
			case "backend.max_retries":
				n, err := strconv.Atoi(value)
				if err != nil {
					return fmt.Errorf("invalid max_retries %q", value)
				}
				cfg.Backend.MaxRetries = n
			case "health.interval":
				cfg.Health.Interval = value
			case "health.timeout":
				cfg.Health.Timeout = value
			case "dedupe.grace":
				cfg.Dedupe.Grace = value
			case "sync.schedule":
				cfg.Sync.Schedule = value
			case "cache.path":
				cfg.Cache.Path = value
			case "log.level":
				cfg.Log.Level = value
			case "log.format":
				cfg.Log.Format = value
			default:
				return fmt.Errorf("unknown config key %q", key)
			}

			if err := config.Save(cfg, cliCtx.ConfigPath); err != nil {
				return err
			}
			fmt.Printf("Set %s\n", key)
			return nil
		},
	}
}

func newConfigSetTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-token",
		Short: "Store the backend API token (prompted without echo)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := fromCommand(cmd)

			fmt.Print("API token: ")
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				return fmt.Errorf("read token: %w", err)
			}

			cliCtx.Config.Backend.APIToken = strings.TrimSpace(string(raw))
			if err := config.Save(cliCtx.Config, cliCtx.ConfigPath); err != nil {
				return err
			}
			fmt.Println("Token saved")
			return nil
		},
	}
}
