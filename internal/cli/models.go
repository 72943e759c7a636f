package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"modelman/internal/gateway"
)

func newModelsCmd() *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "models <folder-id>",
		Short: "List the models in a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folderID := args[0]

			app, err := fromCommand(cmd).BuildApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if cached {
				if app.Cache == nil {
					return errors.New("catalog cache is disabled")
				}
				models, err := app.Cache.Models(folderID)
				if err != nil {
					return err
				}
				printModels(models)
				return nil
			}

			app.Store.SelectFolder(cmd.Context(), folderID)
			state := app.Store.State()
			if state.Errors.Models != "" {
				return errors.New(state.Errors.Models)
			}
			printModels(state.ModelsByFolder[folderID])
			return nil
		},
	}

	cmd.Flags().BoolVar(&cached, "cached", false, "list from the offline catalog cache")
	return cmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <model-id>",
		Short: "Show a model's full record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := fromCommand(cmd).BuildApp()
			if err != nil {
				return err
			}
			defer app.Close()

			app.Store.LoadModelDetails(cmd.Context(), args[0])
			state := app.Store.State()
			if state.Errors.ModelDetails != "" {
				return errors.New(state.Errors.ModelDetails)
			}
			printDetail(state.SelectedModel)
			return nil
		},
	}
}

func printModels(models []gateway.Model) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tSIZE\tTAGS")
	for _, m := range models {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\n", m.ID, m.Name, m.Type, formatSize(m.SizeBytes), m.Tags)
	}
	w.Flush()
}

func printDetail(d *gateway.ModelDetail) {
	if d == nil {
		fmt.Println("no model loaded")
		return
	}
	fmt.Printf("ID:          %s\n", d.ID)
	fmt.Printf("Name:        %s\n", d.Name)
	fmt.Printf("Folder:      %s\n", d.FolderID)
	fmt.Printf("Type:        %s\n", d.Type)
	fmt.Printf("Size:        %s\n", formatSize(d.SizeBytes))
	fmt.Printf("Version:     %s\n", d.Version)
	fmt.Printf("Source:      %s\n", d.Source)
	fmt.Printf("Usage count: %d\n", d.UsageCount)
	if d.Description != "" {
		fmt.Printf("Description: %s\n", d.Description)
	}
	if d.Metadata.Rating > 0 {
		fmt.Printf("Rating:      %d/5\n", d.Metadata.Rating)
	}
	if len(d.Metadata.Tags) > 0 {
		fmt.Printf("Tags:        %v\n", d.Metadata.Tags)
	}
	if d.Metadata.Notes != "" {
		fmt.Printf("Notes:       %s\n", d.Metadata.Notes)
	}
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
