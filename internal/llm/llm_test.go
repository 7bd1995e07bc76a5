package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func recordingPolicy(attempts int) (RetryPolicy, *[]time.Duration) {
	var slept []time.Duration
	p := NewRetryPolicy(attempts, time.Second)
	p.Sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return p, &slept
}

func TestRetryPolicyRetriesTransientErrors(t *testing.T) {
	p, slept := recordingPolicy(3)

	calls := 0
	err := p.Do(context.Background(), func(_ context.Context, attempt int) error {
		calls++
		if attempt < 3 {
			return fmt.Errorf("failed to generate text: %w", genai.APIError{Code: 429, Message: "slow down"})
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *slept)
}

func TestRetryPolicyGivesUpAfterMaxAttempts(t *testing.T) {
	p, slept := recordingPolicy(3)

	calls := 0
	err := p.Do(context.Background(), func(context.Context, int) error {
		calls++
		return genai.APIError{Code: 503, Message: "unavailable"}
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, *slept, 2)
}

func TestRetryPolicyStopsOnPermanentError(t *testing.T) {
	p, slept := recordingPolicy(3)

	calls := 0
	err := p.Do(context.Background(), func(context.Context, int) error {
		calls++
		return genai.APIError{Code: 400, Message: "bad request"}
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *slept)
}

func TestRetryPolicyHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewRetryPolicy(5, time.Hour)
	calls := 0
	err := p.Do(ctx, func(context.Context, int) error {
		calls++
		return genai.APIError{Code: 500}
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, calls)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit", genai.APIError{Code: 429}, true},
		{"server error", genai.APIError{Code: 500}, true},
		{"gateway", fmt.Errorf("wrapped: %w", genai.APIError{Code: 504}), true},
		{"pointer", &genai.APIError{Code: 502}, true},
		{"client error", genai.APIError{Code: 403}, false},
		{"timeout", fmt.Errorf("call: %w", context.DeadlineExceeded), true},
		{"plain", errors.New("empty response from LLM"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestDelayDoubles(t *testing.T) {
	p := NewRetryPolicy(0, 0)
	assert.Equal(t, DefaultMaxAttempts, p.MaxAttempts)
	assert.Equal(t, 2*time.Second, p.Delay(1))
	assert.Equal(t, 4*time.Second, p.Delay(2))
	assert.Equal(t, 8*time.Second, p.Delay(3))
}

func TestBuildConfig(t *testing.T) {
	assert.Nil(t, buildConfig(TextGenerationOptions{}))

	cfg := buildConfig(TextGenerationOptions{MaxTokens: 100, Temperature: 0.3, SystemInstruction: "be brief"})
	require.NotNil(t, cfg)
	assert.Equal(t, int32(100), cfg.MaxOutputTokens)
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.3, *cfg.Temperature, 1e-6)
	require.NotNil(t, cfg.SystemInstruction)
	assert.Equal(t, "be brief", cfg.SystemInstruction.Parts[0].Text)
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(context.Background(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gemini API key is required")
}

func TestNewClientModelDefaults(t *testing.T) {
	c, err := NewClient(context.Background(), Options{APIKey: "test-key"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, c.GetModelName())

	c, err = NewClient(context.Background(), Options{APIKey: "test-key", Model: "gemini-2.5-pro"})
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", c.GetModelName())
}

func TestGenerateTextIntegration(t *testing.T) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY not set, skipping integration test")
	}

	client, err := NewClient(context.Background(), Options{APIKey: apiKey, Timeout: 30 * time.Second})
	require.NoError(t, err)

	_, err = client.GenerateText(context.Background(), "", TextGenerationOptions{})
	assert.Error(t, err)

	text, err := client.GenerateText(context.Background(), "Reply with the single word: owl", TextGenerationOptions{MaxTokens: 20})
	require.NoError(t, err)
	assert.NotEmpty(t, text)
}
