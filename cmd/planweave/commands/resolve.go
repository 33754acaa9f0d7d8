package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/planweave/planweave/internal/format"
	"github.com/planweave/planweave/internal/logger"
)

// NewResolveCmd creates the resolve command
func NewResolveCmd() *cobra.Command {
	var withProvenance bool

	cmd := &cobra.Command{
		Use:   "resolve <document>",
		Short: "Resolve a document graph into one merged tree",
		Long:  "Resolve expands every import reference in the document graph and prints the merged tree in the structured encoding.",
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

			for _, warning := range warnings {
				fmt.Fprintf(os.Stderr, "warning [%s] %s: %s\n", warning.Kind, warning.Document, warning.Message)
			}

			serialize := format.Serialize
			if withProvenance {
				serialize = format.SerializeWithProvenance
			}
			out, err := serialize(doc, format.EncodingJSON)
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}

	cmd.Flags().BoolVar(&withProvenance, "provenance", false, "Include per-node provenance in the output")
	return cmd
}
