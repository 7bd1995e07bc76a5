package narrative

import (
	"context"
	"errors"
	"strings"
	"testing"

	"noctua/internal/core"
	"noctua/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	response string
	err      error
	prompt   string
	options  llm.TextGenerationOptions
}

func (f *fakeLLM) GenerateText(_ context.Context, prompt string, options llm.TextGenerationOptions) (string, error) {
	f.prompt = prompt
	f.options = options
	return f.response, f.err
}

func testRequest() Request {
	return Request{
		ShowName: "The Hootline",
		Date:     "2026-02-16",
		Segments: []Segment{
			{Number: 1, Topic: core.TopicTech, Minutes: 5, WordBudget: 750, Articles: []core.ClassifiedArticle{
				{Article: core.Article{Source: "The Neuron", Title: "Agents ship", Content: "Three agent products launched."}, Topic: core.TopicTech},
			}},
			{Number: 2, Topic: core.TopicSeattle, Minutes: 1, WordBudget: 150, Articles: []core.ClassifiedArticle{
				{Article: core.Article{Source: "Capitol Hill Seattle", Title: "Bus lanes", Content: "Aurora gets bus lanes."}, Topic: core.TopicSeattle},
			}},
		},
	}
}

const goodResponse = `## SEGMENT 1: Latest in Tech
Three agent products launched this week, says The Neuron.

## SEGMENT 2: Seattle (~1 minute)
Aurora Avenue is getting bus lanes.
---
===EPISODE SUMMARY===
Agents go mainstream and Seattle buses get faster lanes.`

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(testRequest())
	assert.Contains(t, prompt, "## SEGMENT 1: Latest in Tech (~5 minutes, ~750 words)")
	assert.Contains(t, prompt, "## SEGMENT 2: Seattle (~1 minute, ~150 words)")
	assert.Contains(t, prompt, "Agents ship\nSource: The Neuron\nThree agent products launched.")
	assert.Contains(t, prompt, SummaryDelimiter)
	assert.True(t, strings.Index(prompt, "SEGMENT 1") < strings.Index(prompt, "SEGMENT 2"))
}

func TestBuildPromptExcerptsLongArticles(t *testing.T) {
	req := testRequest()
	req.Segments[0].Articles[0].Content = strings.Repeat("word ", ExcerptWords+50)
	prompt := BuildPrompt(req)
	assert.Contains(t, prompt, "word ...")
	assert.Less(t, strings.Count(prompt, "word"), ExcerptWords+20)
}

func TestParseResponse(t *testing.T) {
	result, err := ParseResponse(goodResponse, testRequest())
	require.NoError(t, err)
	require.Len(t, result.Prose, 2)
	assert.Equal(t, "Three agent products launched this week, says The Neuron.", result.Prose[0])
	assert.Equal(t, "Aurora Avenue is getting bus lanes.", result.Prose[1])
	assert.Equal(t, "Agents go mainstream and Seattle buses get faster lanes.", result.Summary)
}

func TestParseResponseCodeFenceAndLongSummary(t *testing.T) {
	long := strings.Repeat("very ", 40) + "long."
	resp := "```markdown\n" + strings.Replace(goodResponse,
		"Agents go mainstream and Seattle buses get faster lanes.", long, 1) + "\n```"

	result, err := ParseResponse(resp, testRequest())
	require.NoError(t, err)
	assert.Len(t, strings.Fields(result.Summary), MaxSummaryWords)
}

func TestParseResponseWithoutSummary(t *testing.T) {
	resp := strings.SplitN(goodResponse, SummaryDelimiter, 2)[0]
	result, err := ParseResponse(resp, testRequest())
	require.NoError(t, err)
	assert.Empty(t, result.Summary)
}

func TestParseResponseRejectsDeviations(t *testing.T) {
	tests := map[string]string{
		"empty":           "",
		"missing segment": "## SEGMENT 1: Latest in Tech\nProse.\n===EPISODE SUMMARY===\nDone.",
		"wrong order":     "## SEGMENT 1: Seattle\nA.\n## SEGMENT 2: Latest in Tech\nB.",
		"wrong number":    "## SEGMENT 1: Latest in Tech\nA.\n## SEGMENT 3: Seattle\nB.",
		"empty prose":     "## SEGMENT 1: Latest in Tech\n\n## SEGMENT 2: Seattle\nB.",
		"extra segment":   "## SEGMENT 1: Latest in Tech\nA.\n## SEGMENT 2: Seattle\nB.\n## SEGMENT 3: Other\nC.",
		"prose only":      "Here is a lovely script without any headers at all.",
	}
	for name, resp := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseResponse(resp, testRequest())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnusableResponse))
		})
	}
}

func TestSynthesize(t *testing.T) {
	client := &fakeLLM{response: goodResponse}
	g := NewGenerator(client, 0.3, 4096)

	result, err := g.Synthesize(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Len(t, result.Prose, 2)
	assert.Contains(t, client.prompt, "## SEGMENT 1: Latest in Tech")
	assert.Contains(t, client.options.SystemInstruction, "The Hootline")
	assert.Equal(t, int32(4096), client.options.MaxTokens)
}

func TestSynthesizeFailures(t *testing.T) {
	_, err := NewGenerator(&fakeLLM{err: errors.New("quota")}, 0, 0).Synthesize(context.Background(), testRequest())
	assert.Error(t, err)

	_, err = NewGenerator(&fakeLLM{response: "nonsense"}, 0, 0).Synthesize(context.Background(), testRequest())
	assert.True(t, errors.Is(err, ErrUnusableResponse))

	_, err = NewGenerator(nil, 0, 0).Synthesize(context.Background(), testRequest())
	assert.Error(t, err)

	var g *Generator
	_, err = g.Synthesize(context.Background(), testRequest())
	assert.Error(t, err)
}

func TestFallbackSummary(t *testing.T) {
	assert.Equal(t, "Today on The Hootline: Latest in Tech, Seattle, and Other.",
		FallbackSummary("The Hootline", []core.Topic{core.TopicTech, core.TopicSeattle, core.TopicOther}))
	assert.Equal(t, "Your daily briefing from The Hootline.", FallbackSummary("The Hootline", nil))

	all := core.AllTopics()
	assert.LessOrEqual(t, len(strings.Fields(FallbackSummary("The Hootline", all))), MaxSummaryWords)
}

func TestJoinList(t *testing.T) {
	assert.Equal(t, "", JoinList(nil))
	assert.Equal(t, "a", JoinList([]string{"a"}))
	assert.Equal(t, "a and b", JoinList([]string{"a", "b"}))
	assert.Equal(t, "a, b, and c", JoinList([]string{"a", "b", "c"}))
}
