package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/planweave/planweave/internal/format"
	"github.com/planweave/planweave/internal/logger"
)

// NewAssignIDsCmd creates the assign-ids command
func NewAssignIDsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign-ids <document>",
		Short: "Assign UUIDs to nodes that lack an id",
		Long:  "Assign-ids loads a single document, gives every node without an id a fresh UUID, and writes the document back in place. Imports are not followed; run it per document.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, docStore, zapLogger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync(zapLogger) }()

			ctx := context.Background()
			doc, err := eng.Load(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", args[0], err)
			}

			assigned := eng.AssignIDs(doc)
			if assigned == 0 {
				fmt.Printf("%s: all nodes already have ids\n", doc.Path)
				return nil
			}

			enc, err := format.EncodingForPath(doc.Path)
			if err != nil {
				return err
			}
			data, err := format.Serialize(doc, enc)
			if err != nil {
				return err
			}
			if err := docStore.Write(ctx, doc.Path, data); err != nil {
				return fmt.Errorf("failed to write %s: %w", doc.Path, err)
			}

			fmt.Printf("%s: assigned %d ids\n", doc.Path, assigned)
			return nil
		},
	}
}
