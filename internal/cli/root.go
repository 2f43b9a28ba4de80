package cli

import (
	"context"

	"cvforge/internal/config"
	"cvforge/internal/errors"

	"github.com/spf13/cobra"
)

// Unexported key types keep the context values private to this package.
type (
	configKeyType struct{}
	loggerKeyType struct{}
)

var (
	configKey = configKeyType{}
	loggerKey = loggerKeyType{}
)

var rootCmd = &cobra.Command{
	Use:   "cvforge",
	Short: "Turn a job posting and a structured profile into a tailored resume",
	Long: `Cvforge turns a raw job posting and a structured user profile into a
tailored resume and cover letter using AI. It structures the posting, picks the
most relevant projects for each experience slot, and generates the content in
the posting's language.`,
}

// Execute runs the CLI with the config and logger threaded through the
// command context so every subcommand can reach them.
func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	// Execute always seeds the context; reaching this is a programming error.
	panic("config not found in context")
}

func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context")
}

func init() {
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(structureCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}
