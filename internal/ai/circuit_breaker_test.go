package ai

import (
	"errors"
	"testing"
	"time"

	"cvforge/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"google.golang.org/genai"
)

func breakerConfig(enabled bool) *config.OperationAIConfig {
	return &config.OperationAIConfig{
		Provider: "gemini",
		Model:    "gemini-2.5-pro",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          enabled,
			MaxRequests:      3,
			Interval:         60 * time.Second,
			Timeout:          60 * time.Second,
			MinRequests:      3,
			FailureThreshold: 0.6,
		},
	}
}

func TestCircuitBreakerPerOperation(t *testing.T) {
	operations := []string{"structure", "role", "bullets", "profile", "softSkills", "coverLetter"}

	breakers := make(map[string]*AICircuitBreaker, len(operations))
	for _, op := range operations {
		breakers[op] = NewAICircuitBreaker(op, breakerConfig(true), nil)
	}

	for _, op := range operations {
		t.Run(op, func(t *testing.T) {
			stats := breakers[op].GetStats()
			assert.Equal(t, "AI-"+op, stats["name"])
			assert.Equal(t, "closed", stats["state"])
			assert.Equal(t, true, stats["enabled"])
			assert.True(t, breakers[op].IsHealthy())
		})
	}

	// Breakers must be independent instances
	assert.NotSame(t, breakers["structure"], breakers["bullets"])
	assert.NotSame(t, breakers["bullets"], breakers["coverLetter"])
}

func TestModelCircuitBreakerName(t *testing.T) {
	cb := NewModelCircuitBreaker("structure", breakerConfig(true), nil)
	require.NotNil(t, cb)
	assert.Equal(t, "AI-Model-structure", cb.GetStats()["name"])
}

func TestCircuitBreakerDisabled(t *testing.T) {
	cb := NewAICircuitBreaker("structure", breakerConfig(false), nil)
	assert.Nil(t, cb)

	// A nil breaker still executes the call and reports healthy
	resp, err := cb.Execute(func() (*genai.GenerateContentResponse, error) {
		return &genai.GenerateContentResponse{}, nil
	})
	assert.NoError(t, err)
	assert.NotNil(t, resp)
	assert.True(t, cb.IsHealthy())
	assert.Equal(t, map[string]any{"enabled": false}, cb.GetStats())
}

func TestCircuitBreakerPassesThroughErrors(t *testing.T) {
	cb := NewAICircuitBreaker("structure", breakerConfig(true), nil)
	require.NotNil(t, cb)

	wantErr := errors.New("upstream unavailable")
	_, err := cb.Execute(func() (*genai.GenerateContentResponse, error) {
		return nil, wantErr
	})
	assert.ErrorIs(t, err, wantErr)

	// One failure is below the trip floor, so the breaker stays closed
	assert.True(t, cb.IsHealthy())
}

func TestCircuitBreakerTripsAfterRepeatedFailures(t *testing.T) {
	cfg := breakerConfig(true)
	cfg.CircuitBreaker.MinRequests = 3
	cfg.CircuitBreaker.FailureThreshold = 0.6

	cb := NewAICircuitBreaker("bullets", cfg, nil)
	require.NotNil(t, cb)

	for range 3 {
		_, _ = cb.Execute(func() (*genai.GenerateContentResponse, error) {
			return nil, errors.New("boom")
		})
	}

	assert.False(t, cb.IsHealthy())
	assert.Equal(t, "open", cb.GetStats()["state"])
}
