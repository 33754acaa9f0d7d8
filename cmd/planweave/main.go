package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/planweave/planweave/cmd/planweave/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "planweave",
		Short: "Work with multi-document project plans",
		Long:  "planweave resolves document graphs with import references into merged plan trees and partitions edited trees back into their source documents.",
	}

	rootCmd.PersistentFlags().String("root", ".", "Document root directory")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.AddCommand(commands.NewResolveCmd())
	rootCmd.AddCommand(commands.NewCheckCmd())
	rootCmd.AddCommand(commands.NewAssignIDsCmd())
	rootCmd.AddCommand(commands.NewFmtCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
