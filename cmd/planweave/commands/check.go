package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/planweave/planweave/internal/logger"
	"github.com/planweave/planweave/internal/models"
)

// NewCheckCmd creates the check command
func NewCheckCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check <document>",
		Short: "Resolve a document graph and report problems",
		Long:  "Check resolves the document graph and prints every warning (cycles, missing imports, duplicate ids). With --strict, warnings make the command fail.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, zapLogger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync(zapLogger) }()

			doc, warnings, err := eng.Resolve(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to resolve %s: %w", args[0], err)
			}

			nodeCount := 0
			models.WalkNodes(doc.Children, func(*models.Node) bool {
				nodeCount++
				return true
			})

			for _, warning := range warnings {
				fmt.Fprintf(os.Stderr, "warning [%s] %s: %s\n", warning.Kind, warning.Document, warning.Message)
			}
			fmt.Printf("%s: %d nodes, %d warnings\n", doc.Path, nodeCount, len(warnings))

			if strict && len(warnings) > 0 {
				return fmt.Errorf("%d warnings", len(warnings))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as errors")
	return cmd
}
