package cli

import (
	"github.com/spf13/cobra"

	"modelman/internal/store"
)

func newSearchCmd() *cobra.Command {
	var folderID string
	var types, tags []string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search models by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := fromCommand(cmd).BuildApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if folderID != "" {
				app.Store.SelectFolder(cmd.Context(), folderID)
			}
			if len(types) > 0 || len(tags) > 0 {
				app.Store.SetFilters(store.Filters{Types: types, Tags: tags})
			}

			models, err := app.Store.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printModels(models)
			return nil
		},
	}

	cmd.Flags().StringVar(&folderID, "folder", "", "restrict the search to one folder")
	cmd.Flags().StringSliceVar(&types, "type", nil, "filter by model type")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "filter by tag")
	return cmd
}
