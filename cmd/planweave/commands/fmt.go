package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/planweave/planweave/internal/format"
	"github.com/planweave/planweave/internal/logger"
)

// NewFmtCmd creates the fmt command
func NewFmtCmd() *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "fmt <document>",
		Short: "Re-serialize a document in canonical form",
		Long:  "Fmt parses one document and re-serializes it through the format bridge, normalizing field aliases into the canonical shape.",
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

			enc, err := format.EncodingForPath(doc.Path)
			if err != nil {
				return err
			}
			data, err := format.Serialize(doc, enc)
			if err != nil {
				return err
			}

			if write {
				if err := docStore.Write(ctx, doc.Path, data); err != nil {
					return fmt.Errorf("failed to write %s: %w", doc.Path, err)
				}
				fmt.Printf("%s: formatted\n", doc.Path)
				return nil
			}
			fmt.Print(string(data))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the result back to the document instead of stdout")
	return cmd
}
