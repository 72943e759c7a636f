package cli

import (
	"github.com/spf13/cobra"

	"modelman/internal/devserver"
)

func newDevServerCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run an in-memory fake backend for development",
		RunE: func(cmd *cobra.Command, args []string) error {
			return devserver.New().ListenAndServe(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:5101", "listen address")
	return cmd
}
