package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is stamped by the build.
var Version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the modelman version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("modelman %s\n", Version)
		},
	}
}
