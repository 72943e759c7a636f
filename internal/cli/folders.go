package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"modelman/internal/gateway"
)

func newFoldersCmd() *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "folders",
		Short: "List model folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := fromCommand(cmd).BuildApp()
			if err != nil {
				return err
			}
			defer app.Close()

			if cached {
				if err := app.Store.LoadFromCache(); err != nil {
					return err
				}
			} else {
				app.Store.LoadFolders(cmd.Context())
			}

			state := app.Store.State()
			if state.Errors.Folders != "" {
				return errors.New(state.Errors.Folders)
			}
			printFolders(state.Folders)
			return nil
		},
	}

	cmd.Flags().BoolVar(&cached, "cached", false, "list from the offline catalog cache")
	return cmd
}

func printFolders(folders []gateway.Folder) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tMODELS\tPATH")
	for _, f := range folders {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", f.ID, f.Name, f.ModelCount, f.Path)
	}
	w.Flush()
}
