package llm

import (
	"context"
	"fmt"
	"time"

	"noctua/internal/logger"

	"google.golang.org/genai"
)

const (
	// DefaultModel is the Gemini model used for narrative synthesis.
	DefaultModel = "gemini-2.5-flash"
	// DefaultTimeout bounds a single generation attempt.
	DefaultTimeout = 120 * time.Second
)

// Client represents a client for interacting with Gemini.
type Client struct {
	apiKey    string
	modelName string
	timeout   time.Duration
	retry     RetryPolicy
	gClient   *genai.Client
}

// Options configures NewClient.
type Options struct {
	APIKey       string
	Model        string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// TextGenerationOptions contains options for text generation
type TextGenerationOptions struct {
	MaxTokens         int32   // Maximum number of tokens to generate
	Temperature       float32 // Temperature for randomness (0.0 to 1.0)
	Model             string  // Model to use (optional, defaults to client's model)
	SystemInstruction string  // Optional system prompt
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required. Set GEMINI_API_KEY environment variable or ai.gemini.api_key in config file")
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		apiKey:    opts.APIKey,
		modelName: opts.Model,
		timeout:   opts.Timeout,
		retry:     NewRetryPolicy(opts.MaxRetries, opts.RetryBackoff),
		gClient:   gClient,
	}, nil
}

// GetModelName returns the default model of the client.
func (c *Client) GetModelName() string {
	return c.modelName
}

// GenerateText generates text using the LLM with specified options. Rate
// limit and server errors are retried with exponential backoff.
func (c *Client) GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	modelName := c.modelName
	if options.Model != "" {
		modelName = options.Model
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}
	config := buildConfig(options)

	var text string
	err := c.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		start := time.Now()
		resp, err := c.gClient.Models.GenerateContent(callCtx, modelName, contents, config)
		if err != nil {
			logger.Warn("Gemini request failed", "model", modelName, "attempt", attempt, "error", err.Error())
			return fmt.Errorf("failed to generate text: %w", err)
		}

		text = resp.Text()
		if text == "" {
			return fmt.Errorf("empty response from LLM")
		}
		logger.Debug("Gemini request succeeded", "model", modelName, "attempt", attempt, "duration", time.Since(start).String())
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

func buildConfig(options TextGenerationOptions) *genai.GenerateContentConfig {
	if options.MaxTokens <= 0 && options.Temperature <= 0 && options.SystemInstruction == "" {
		return nil
	}

	config := &genai.GenerateContentConfig{}
	if options.MaxTokens > 0 {
		config.MaxOutputTokens = options.MaxTokens
	}
	if options.Temperature > 0 {
		temp := options.Temperature
		config.Temperature = &temp
	}
	if options.SystemInstruction != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: options.SystemInstruction}},
		}
	}
	return config
}
