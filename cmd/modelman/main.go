package main

import (
	"fmt"
	"os"

	"modelman/internal/cli"
	"modelman/pkg/logger"
)

func main() {
	defer logger.Close()

	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
