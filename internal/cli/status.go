package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show backend and cache status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := fromCommand(cmd)
			app, err := cliCtx.BuildApp()
			if err != nil {
				return err
			}
			defer app.Close()

			fmt.Printf("Backend: %s\n", cliCtx.Config.Backend.BaseURL)

			healthy := app.Monitor.CheckNow(cmd.Context())
			if healthy {
				fmt.Println("Health:  ok")
			} else {
				fmt.Println("Health:  unreachable")
			}

			if app.Cache != nil {
				fetched, err := app.Cache.LastFetched()
				switch {
				case err != nil:
					fmt.Printf("Cache:   %s (unreadable: %v)\n", app.Cache.Path(), err)
				case fetched.IsZero():
					fmt.Printf("Cache:   %s (empty)\n", app.Cache.Path())
				default:
					fmt.Printf("Cache:   %s (fetched %s)\n", app.Cache.Path(), fetched.Local().Format("2006-01-02 15:04:05"))
				}
			} else {
				fmt.Println("Cache:   disabled")
			}
			return nil
		},
	}
}
