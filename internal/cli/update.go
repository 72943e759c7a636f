package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"modelman/internal/gateway"
)

func newUpdateCmd() *cobra.Command {
	var (
		name        string
		description string
		notes       string
		rating      int
		tags        []string
	)

	cmd := &cobra.Command{
		Use:   "update <model-id>",
		Short: "Update a model's metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch gateway.MetadataPatch
			if cmd.Flags().Changed("name") {
				patch.DisplayName = &name
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("notes") {
				patch.Notes = &notes
			}
			if cmd.Flags().Changed("rating") {
				patch.Rating = &rating
			}
			if cmd.Flags().Changed("tag") {
				patch.Tags = &tags
			}

			app, err := fromCommand(cmd).BuildApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Store.UpdateModelMetadata(cmd.Context(), args[0], patch); err != nil {
				return err
			}
			fmt.Printf("Updated %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	cmd.Flags().IntVar(&rating, "rating", 0, "rating 1-5")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tags (repeatable)")
	return cmd
}
