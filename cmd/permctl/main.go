package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "permctl",
		Short:         "Inspect channel positions and resolve planet permissions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newPositionCmd())
	root.AddCommand(newResolveCmd())
	root.AddCommand(newResolvePlanetCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
