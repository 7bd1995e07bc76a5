package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"noctua/internal/core"
	"noctua/internal/llm"
	"noctua/internal/logger"
)

// LLMClient defines the interface for LLM operations needed by the narrative generator
type LLMClient interface {
	GenerateText(ctx context.Context, prompt string, options llm.TextGenerationOptions) (string, error)
}

// ErrUnusableResponse means the model answered but not in the expected shape.
var ErrUnusableResponse = errors.New("unusable narrative response")

// Segment is one block of the synthesis request.
type Segment struct {
	Number     int
	Topic      core.Topic
	Minutes    int
	WordBudget int
	Articles   []core.ClassifiedArticle
}

// Request is everything the model needs to write one episode script.
type Request struct {
	ShowName string
	Date     string
	Segments []Segment
}

// Result holds one prose block per requested segment, in request order.
type Result struct {
	Prose   []string
	Summary string // Empty when the model omitted the summary
}

// Generator writes segment prose with an LLM.
type Generator struct {
	llmClient   LLMClient
	temperature float32
	maxTokens   int32
}

// NewGenerator creates a new narrative generator
func NewGenerator(llmClient LLMClient, temperature float32, maxTokens int32) *Generator {
	return &Generator{
		llmClient:   llmClient,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Synthesize asks the model for the episode script and parses it. Any error
// means the caller should render the segments itself.
func (g *Generator) Synthesize(ctx context.Context, req Request) (*Result, error) {
	if g == nil || g.llmClient == nil {
		return nil, fmt.Errorf("no narrative client configured")
	}
	if len(req.Segments) == 0 {
		return nil, fmt.Errorf("no segments to synthesize")
	}

	response, err := g.llmClient.GenerateText(ctx, BuildPrompt(req), llm.TextGenerationOptions{
		MaxTokens:         g.maxTokens,
		Temperature:       g.temperature,
		SystemInstruction: SystemInstruction(req.ShowName),
	})
	if err != nil {
		return nil, fmt.Errorf("narrative synthesis failed: %w", err)
	}

	result, err := ParseResponse(response, req)
	if err != nil {
		return nil, err
	}

	for i, seg := range req.Segments {
		if words := len(strings.Fields(result.Prose[i])); words > seg.WordBudget*2 {
			logger.Warn("Segment prose far over budget", "topic", seg.Topic.String(), "words", words, "budget", seg.WordBudget)
		}
	}
	return result, nil
}

// FallbackSummary is the episode summary used when the model provides none.
func FallbackSummary(showName string, topics []core.Topic) string {
	if len(topics) == 0 {
		return TrimWords(fmt.Sprintf("Your daily briefing from %s.", showName), MaxSummaryWords)
	}
	names := make([]string, len(topics))
	for i, t := range topics {
		names[i] = t.String()
	}
	return TrimWords(fmt.Sprintf("Today on %s: %s.", showName, JoinList(names)), MaxSummaryWords)
}

// JoinList renders "a", "a and b", "a, b, and c".
func JoinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
}
