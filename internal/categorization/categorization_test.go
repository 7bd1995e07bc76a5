package categorization

import (
	"strings"
	"testing"

	"noctua/internal/content"
	"noctua/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func article(source, title, body string) core.Article {
	return core.Article{Source: source, Title: title, Content: body, Words: len(strings.Fields(body))}
}

func TestFilteredSendersReturnNull(t *testing.T) {
	c := NewClassifier(0, 0)

	source := content.ExtractSenderName(`"Google" <no-reply@google.com>`)
	_, ok := c.Classify(article(source, "Senate passes bill", "Congress and the Senate, Republicans and Democrats."))
	assert.False(t, ok)

	for _, s := range []string{"noreply", " NotebookLM ", "Gmail Team", "substack", "no-reply", "Google One"} {
		_, ok := c.Classify(article(s, "Arsenal win", "Arsenal Gunners Arteta"))
		assert.False(t, ok, s)
		assert.True(t, IsFilteredSender(s), s)
	}

	_, ok = c.Assign(article("google", "t", "b"))
	assert.False(t, ok)
}

func TestFilteredSenderRequiresExactMatch(t *testing.T) {
	c := NewClassifier(0, 0)
	_, ok := c.Classify(article("Google News Digest", "t", "nothing relevant here"))
	assert.True(t, ok)
}

func TestSenateArticleIsUSPolitics(t *testing.T) {
	c := NewClassifier(0, 0)
	a := article("Politico Playbook", "Senate Passes Major Bill",
		"Congress approved the measure after the Senate vote, with Republicans and Democrats split on the final text.")

	topic, ok := c.Classify(a)
	require.True(t, ok)
	assert.Equal(t, core.TopicUSPolitics, topic)
	assert.GreaterOrEqual(t, c.Scores(a)[core.TopicUSPolitics], 2)
}

func TestSourceMapOverridesKeywords(t *testing.T) {
	c := NewClassifier(0, 0)
	tests := []struct {
		source string
		want   core.Topic
	}{
		{"The Neuron", core.TopicTech},
		{"TLDR AI", core.TopicTech},
		{"Lenny’s Newsletter", core.TopicProductManagement},
		{"Morning Chalk Up", core.TopicCrossFit},
		{"The Hindu", core.TopicIndianPolitics},
		{"Capitol Hill Seattle Blog", core.TopicSeattle},
		{"Polygon", core.TopicEntertainment},
		{"verge", core.TopicTech},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			topic, ok := c.Classify(article(tt.source, "Arsenal beat Chelsea", "Arsenal Gunners Arteta Emirates Stadium"))
			require.True(t, ok)
			assert.Equal(t, tt.want, topic)
		})
	}
}

func TestGoogleAlertLabels(t *testing.T) {
	c := NewClassifier(0, 0)
	tests := map[string]core.Topic{
		"Google Alerts (Arsenal)":        core.TopicArsenal,
		"Google Alert (Max Verstappen)":  core.TopicFormula1,
		"Google Alerts (Indian Cricket)": core.TopicIndianCricket,
		"google alerts(badminton)":       core.TopicBadminton,
	}
	for source, want := range tests {
		topic, ok := c.Classify(article(source, "t", "no keywords at all"))
		require.True(t, ok)
		assert.Equal(t, want, topic, source)
	}

	topic, ok := c.Classify(article("Google Alerts (Knitting)", "t", "no keywords at all"))
	require.True(t, ok)
	assert.Equal(t, core.TopicOther, topic)
}

func TestKeywordTieKeepsEarlierTopic(t *testing.T) {
	c := NewClassifier(0, 0)
	a := article("Aggregator", "Ukraine war coverage", "Netflix released a movie about it.")
	scores := c.Scores(a)
	require.Equal(t, 2, scores[core.TopicWorldPolitics])
	require.Equal(t, 2, scores[core.TopicEntertainment])

	topic, _ := c.Classify(a)
	assert.Equal(t, core.TopicWorldPolitics, topic)
}

func TestSingleKeywordFallsBackToOther(t *testing.T) {
	a := article("Aggregator", "Weekend reading", "A long essay that mentions AI once.")

	topic, ok := NewClassifier(0, 0).Classify(a)
	require.True(t, ok)
	assert.Equal(t, core.TopicOther, topic)

	topic, _ = NewClassifier(1, 0).Classify(a)
	assert.Equal(t, core.TopicTech, topic)
}

func TestEmptySourceUsesKeywords(t *testing.T) {
	topic, ok := NewClassifier(0, 0).Classify(article("", "F1 season opener", "Verstappen led the Grand Prix."))
	require.True(t, ok)
	assert.Equal(t, core.TopicFormula1, topic)
}

func TestScanWindowLimitsKeywordText(t *testing.T) {
	filler := strings.Repeat("x", 100)
	a := article("Aggregator", "Untitled", filler+" Seahawks Seattle Tacoma")

	topic, _ := NewClassifier(0, 50).Classify(a)
	assert.Equal(t, core.TopicOther, topic)

	topic, _ = NewClassifier(0, 0).Classify(a)
	assert.Equal(t, core.TopicSeattle, topic)
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := NewClassifier(0, 0)
	a := article("Daily Roundup", "OpenAI and the Senate", "Congress asked OpenAI about AI software and the White House responded.")
	first, _ := c.Classify(a)
	for i := 0; i < 20; i++ {
		got, _ := c.Classify(a)
		assert.Equal(t, first, got)
	}
}

func TestAssign(t *testing.T) {
	a := article("Wodwell", "Today's WOD", "Five rounds for time.")
	ca, ok := NewClassifier(0, 0).Assign(a)
	require.True(t, ok)
	assert.Equal(t, core.TopicCrossFit, ca.Topic)
	assert.Equal(t, a, ca.Article)
}
