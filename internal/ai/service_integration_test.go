package ai

import (
	"log/slog"
	"testing"
	"time"

	"cvforge/internal/config"
	"cvforge/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timePtr(d time.Duration) *time.Duration { return &d }
func intPtr(i int) *int                      { return &i }
func float32Ptr(f float32) *float32          { return &f }
func boolPtr(b bool) *bool                   { return &b }
func strPtr(s string) *string                { return &s }

var testLogger = errors.NewLogger(slog.LevelDebug)

// testConfigWithOverrides sets global AI defaults plus overrides for
// structure and bullets; coverLetter inherits everything.
func testConfigWithOverrides() *config.Config {
	return &config.Config{
		AI: config.AIConfig{
			Provider:         "gemini",
			Model:            "global-model",
			Timeout:          60 * time.Second,
			APIKey:           "global-api-key",
			MaxRetries:       5,
			Temperature:      0.9,
			UseSystemPrompts: true,

			Structure: config.OperationAIConfig{
				Model:       "structure-specific-model",
				Timeout:     timePtr(90 * time.Second),
				Temperature: float32Ptr(0.1),
			},
			Bullets: config.OperationAIConfig{
				Model:      "bullets-specific-model",
				MaxRetries: intPtr(1),
			},
		},
	}
}

func TestOperationConfigDerivation(t *testing.T) {
	testConfig := testConfigWithOverrides()

	t.Run("structure overrides with global fallbacks", func(t *testing.T) {
		cfg := testConfig.GetStructureConfig()
		assert.Equal(t, "structure-specific-model", cfg.Model)
		assert.Equal(t, 90*time.Second, *cfg.Timeout)
		assert.Equal(t, float32(0.1), *cfg.Temperature)
		assert.Equal(t, "global-api-key", cfg.APIKey)
		assert.Equal(t, 5, *cfg.MaxRetries)
	})

	t.Run("bullets overrides only model and retries", func(t *testing.T) {
		cfg := testConfig.GetBulletsConfig()
		assert.Equal(t, "bullets-specific-model", cfg.Model)
		assert.Equal(t, 1, *cfg.MaxRetries)
		assert.Equal(t, 60*time.Second, *cfg.Timeout)
		assert.Equal(t, float32(0.9), *cfg.Temperature)
	})

	t.Run("coverLetter inherits everything", func(t *testing.T) {
		cfg := testConfig.GetCoverLetterConfig()
		assert.Equal(t, "global-model", cfg.Model)
		assert.Equal(t, 60*time.Second, *cfg.Timeout)
		assert.Equal(t, "global-api-key", cfg.APIKey)
		assert.Equal(t, 5, *cfg.MaxRetries)
	})

	// Every derived config must be consumable by the service factory.
	for _, op := range []struct {
		name string
		cfg  config.OperationAIConfig
	}{
		{"structure", testConfig.GetStructureConfig()},
		{"bullets", testConfig.GetBulletsConfig()},
		{"coverLetter", testConfig.GetCoverLetterConfig()},
	} {
		cfg := op.cfg
		_, err := NewService(&cfg, op.name, testLogger)
		assert.NoError(t, err, "service creation for %s", op.name)
	}
}

func TestRequestOverridesOnOperationConfig(t *testing.T) {
	testConfig := testConfigWithOverrides()

	t.Run("direct model override wins", func(t *testing.T) {
		op := testConfig.GetStructureConfig().WithOverrides(strPtr("request-model"), nil, strPtr("default-model"))
		assert.Equal(t, "request-model", op.Model)
	})

	t.Run("default model applies without direct override", func(t *testing.T) {
		op := testConfig.GetCoverLetterConfig().WithOverrides(nil, nil, strPtr("default-model"))
		assert.Equal(t, "default-model", op.Model)
	})

	t.Run("temperature override", func(t *testing.T) {
		op := testConfig.GetBulletsConfig().WithOverrides(nil, float32Ptr(0.9), nil)
		assert.Equal(t, float32(0.9), *op.Temperature)
	})

	t.Run("no overrides keeps server config", func(t *testing.T) {
		op := testConfig.GetBulletsConfig().WithOverrides(nil, nil, nil)
		assert.Equal(t, "bullets-specific-model", op.Model)
	})
}

func TestCircuitBreakerIntegrationWithServices(t *testing.T) {
	testOpConfig := &config.OperationAIConfig{
		Provider:         "gemini",
		Model:            "test-model",
		Timeout:          timePtr(30 * time.Second),
		APIKey:           "test-key",
		MaxRetries:       intPtr(1),
		Temperature:      float32Ptr(0.5),
		UseSystemPrompts: boolPtr(true),
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      5,
			Interval:         30 * time.Second,
			Timeout:          45 * time.Second,
			MinRequests:      2,
			FailureThreshold: 0.8,
		},
	}

	service, err := NewService(testOpConfig, "test-op", testLogger)
	require.NoError(t, err)

	assert.Equal(t, uint32(5), service.config.CircuitBreaker.MaxRequests)
	assert.Equal(t, 0.8, service.config.CircuitBreaker.FailureThreshold)

	geminiProvider, ok := service.Provider.(*GeminiProvider)
	require.True(t, ok, "provider should be *GeminiProvider")

	stats := geminiProvider.GetCircuitBreakerStats()

	aiOpsStats, ok := stats["ai_operations"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "AI-test-op", aiOpsStats["name"])

	modelOpsStats, ok := stats["model_operations"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "AI-Model-test-op", modelOpsStats["name"])

	assert.Equal(t, true, stats["overall_healthy"])
}
