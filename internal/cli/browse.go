package cli

import (
	"github.com/spf13/cobra"

	"modelman/internal/config"
	"modelman/internal/connectivity"
	"modelman/internal/syncsched"
	"modelman/internal/tui"
	"modelman/pkg/logger"
)

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the catalog interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := fromCommand(cmd)
			app, err := cliCtx.BuildApp()
			if err != nil {
				return err
			}
			defer app.Close()

			app.Monitor.Start()
			defer app.Monitor.Stop()

			// Bridge real link state into the store's connectivity signal
			// unless the session was forced offline.
			if !cliCtx.Offline {
				prober := connectivity.NewProber(0)
				unsub := prober.Subscribe(app.Connectivity.SetOnline)
				prober.Start()
				defer func() {
					unsub()
					prober.Stop()
				}()
			}

			if schedule := cliCtx.Config.Sync.Schedule; schedule != "" {
				ctx := cmd.Context()
				sched, err := syncsched.New(schedule, func() {
					app.Store.LoadFolders(ctx)
				})
				if err != nil {
					return err
				}
				sched.Start()
				defer sched.Stop()
			}

			stopWatch, err := config.Watch(cliCtx.ConfigPath, func(cfg *config.Config) {
				logger.SetLevel(cfg.Log.Level)
			})
			if err != nil {
				log := logger.With("cli")
				log.Warn().Err(err).Msg("Config watch unavailable")
			} else {
				defer stopWatch()
			}

			if cliCtx.Offline {
				if err := app.Store.LoadFromCache(); err != nil {
					log := logger.With("cli")
					log.Warn().Err(err).Msg("Failed to load cached catalog")
				}
			}

			return tui.Run(app.Store)
		},
	}
}
