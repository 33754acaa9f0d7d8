package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/planweave/planweave/internal/engine"
	"github.com/planweave/planweave/internal/logger"
	"github.com/planweave/planweave/internal/resolver"
	"github.com/planweave/planweave/internal/store"
)

// setup builds the engine from the persistent flags shared by every
// command
func setup(cmd *cobra.Command) (*engine.Engine, *store.FSStore, *zap.Logger, error) {
	root, err := cmd.Flags().GetString("root")
	if err != nil {
		return nil, nil, nil, err
	}
	debug, err := cmd.Flags().GetBool("debug")
	if err != nil {
		return nil, nil, nil, err
	}

	zapLogger, err := logger.NewDevelopmentLogger(debug)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	docStore, err := store.NewFSStore(root)
	if err != nil {
		return nil, nil, nil, err
	}

	eng := engine.New(docStore, resolver.DefaultLimits(), zapLogger)
	return eng, docStore, zapLogger, nil
}
