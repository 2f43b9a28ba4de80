package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"cvforge/internal/ai"
	"cvforge/internal/common"
	"cvforge/internal/pipeline"
	"cvforge/internal/types"

	"github.com/spf13/cobra"
)

var processCmd = &cobra.Command{
	Use:   "process [job-file] [profile-file]",
	Short: "Generate a tailored resume and cover letter",
	Long: `Generate a tailored resume and cover letter from a job posting and a
structured user profile. The command takes two arguments: the path to the raw
job posting (plain text) and the path to the user profile (JSON). Request-level
model overrides can be supplied with --request-config.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if processConfig.OutputFormat == "" {
			processConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(processConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runProcess,
}

var processConfig common.CommandConfig
var processRequestConfigFile string

func init() {
	processCmd.Flags().StringVarP(&processConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	processCmd.Flags().StringVar(&processConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	processCmd.Flags().StringVar(&processRequestConfigFile, "request-config", "", "JSON file with request-level model overrides")

	// Add completion for format flag
	_ = processCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

// loadRequestConfig reads request-level overrides from a JSON file
func loadRequestConfig(path string) (types.RequestConfig, error) {
	var reqConfig types.RequestConfig
	if path == "" {
		return reqConfig, nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the CLI flag
	if err != nil {
		return reqConfig, fmt.Errorf("failed to read request config: %w", err)
	}
	if err := json.Unmarshal(data, &reqConfig); err != nil {
		return reqConfig, fmt.Errorf("failed to parse request config: %w", err)
	}
	return reqConfig, nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	reqConfig, err := loadRequestConfig(processRequestConfigFile)
	if err != nil {
		return err
	}

	services, err := ai.NewServices(cfg, reqConfig, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI services: %w", err)
	}
	defer func() {
		if err := services.Close(); err != nil {
			logger.Warn("Failed to close AI services", "error", err.Error())
		}
	}()

	p := pipeline.New(services, cfg.Pipeline, logger)

	createInput := func(contents []string) (types.ProcessRequest, error) {
		if len(contents) != 2 {
			return types.ProcessRequest{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
		}

		var profile types.UserProfile
		if err := json.Unmarshal([]byte(contents[1]), &profile); err != nil {
			return types.ProcessRequest{}, fmt.Errorf("failed to parse user profile: %w", err)
		}

		return types.ProcessRequest{
			JobText:     contents[0],
			UserProfile: profile,
			Config:      reqConfig,
		}, nil
	}

	logDetails := func(input types.ProcessRequest, cfg common.CommandConfig) {
		logger.Info("Starting resume generation",
			"job_chars", len(input.JobText),
			"experience_slots", len(input.UserProfile.ExperiencesConfig),
			"projects", input.UserProfile.ProjectsDatabase.Len(),
			"output_format", cfg.OutputFormat)
	}

	processOperation := func(ctx context.Context, input types.ProcessRequest) (*types.ProcessResult, *ai.TokenUsage, error) {
		result, err := p.Process(ctx, input)
		return result, nil, err
	}

	err = common.RunAICommand(
		cmd.Context(),
		logger,
		processConfig,
		args,
		createInput,
		processOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to generate resume: %w", err)
	}
	logger.Info("Resume generation completed successfully")
	return nil
}
