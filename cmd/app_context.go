package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/khanhnv2901/hapi-cli/internal/checker"
)

// AppContext carries the dependencies every command needs.
type AppContext struct {
	Logger   *zap.SugaredLogger
	Config   *CLIConfig
	Registry *checker.Registry
}

type appContextKey struct{}

func withAppContext(ctx context.Context, app *AppContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, appContextKey{}, app)
}

// getAppContext returns the context installed by the root command, or a
// default one for commands invoked without it.
func getAppContext(cmd *cobra.Command) *AppContext {
	if ctx := cmd.Context(); ctx != nil {
		if app, ok := ctx.Value(appContextKey{}).(*AppContext); ok && app != nil {
			return app
		}
	}
	return &AppContext{
		Logger:   zap.NewNop().Sugar(),
		Config:   cliConfig,
		Registry: checker.Default(),
	}
}
