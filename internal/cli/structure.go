package cli

import (
	"context"
	"fmt"

	"cvforge/internal/ai"
	"cvforge/internal/common"
	"cvforge/internal/pipeline"
	"cvforge/internal/types"

	"github.com/spf13/cobra"
)

var structureCmd = &cobra.Command{
	Use:   "structure [job-file]",
	Short: "Structure a raw job posting into requirement data",
	Long: `Structure a raw job posting into a machine-readable requirement object:
title, company, required skills, keywords, soft skills, responsibilities and
action verbs, in the posting's detected language.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if structureConfig.OutputFormat == "" {
			structureConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(structureConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runStructure,
}

var structureConfig common.CommandConfig

func init() {
	structureCmd.Flags().StringVarP(&structureConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	structureCmd.Flags().StringVar(&structureConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	// Add completion for format flag
	_ = structureCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runStructure(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	services, err := ai.NewServices(cfg, types.RequestConfig{}, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI services: %w", err)
	}
	defer func() {
		if err := services.Close(); err != nil {
			logger.Warn("Failed to close AI services", "error", err.Error())
		}
	}()

	p := pipeline.New(services, cfg.Pipeline, logger)

	createInput := func(contents []string) (string, error) {
		if len(contents) != 1 {
			return "", fmt.Errorf("expected 1 file path, got %d", len(contents))
		}
		return contents[0], nil
	}

	logDetails := func(input string, cfg common.CommandConfig) {
		logger.Info("Starting job structuring",
			"job_chars", len(input),
			"output_format", cfg.OutputFormat)
	}

	structureOperation := func(ctx context.Context, jobText string) (*types.StructuredJob, *ai.TokenUsage, error) {
		job, err := p.Structure(ctx, jobText)
		return job, nil, err
	}

	err = common.RunAICommand(
		cmd.Context(),
		logger,
		structureConfig,
		args,
		createInput,
		structureOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to structure job posting: %w", err)
	}
	logger.Info("Job structuring completed successfully")
	return nil
}
