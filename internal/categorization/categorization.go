package categorization

import (
	"regexp"
	"strings"

	"noctua/internal/core"
)

const (
	// DefaultMinMatches is the keyword count below which an article lands in Other.
	DefaultMinMatches = 2
	// DefaultScanChars bounds how much of the body keyword scoring reads.
	DefaultScanChars = 2000
)

var quoteReplacer = strings.NewReplacer(
	"‘", "'", "’", "'",
	"“", `"`, "”", `"`,
)

// Classifier assigns articles to podcast topics. It holds only immutable
// tables and is safe for concurrent use.
type Classifier struct {
	minMatches int
	scanChars  int
	keywords   []topicPatterns
}

// NewClassifier creates a classifier. Non-positive arguments select the defaults.
func NewClassifier(minMatches, scanChars int) *Classifier {
	if minMatches <= 0 {
		minMatches = DefaultMinMatches
	}
	if scanChars <= 0 {
		scanChars = DefaultScanChars
	}
	return &Classifier{
		minMatches: minMatches,
		scanChars:  scanChars,
		keywords:   compileKeywords(),
	}
}

// Classify returns the topic for an article. The boolean is false when the
// sender is transactional and the article must be dropped.
//
// Sender identity is checked before content: Google Alerts labels first, then
// the single-topic newsletter table, then keyword scoring.
func (c *Classifier) Classify(article core.Article) (core.Topic, bool) {
	source := NormalizeSource(article.Source)
	if filteredSenders[source] {
		return core.TopicOther, false
	}

	if topic, ok := alertTopic(source); ok {
		return topic, true
	}

	if topic, ok := sourceTopic(source); ok {
		return topic, true
	}

	return c.keywordTopic(article), true
}

// Assign classifies an article into its two-stage form.
func (c *Classifier) Assign(article core.Article) (core.ClassifiedArticle, bool) {
	topic, ok := c.Classify(article)
	if !ok {
		return core.ClassifiedArticle{}, false
	}
	return core.ClassifiedArticle{Article: article, Topic: topic}, true
}

// Scores reports the keyword match count for every topic that has keyword rules.
func (c *Classifier) Scores(article core.Article) map[core.Topic]int {
	text := c.scanText(article)
	scores := make(map[core.Topic]int, len(c.keywords))
	for _, tp := range c.keywords {
		scores[tp.topic] = countMatches(tp.patterns, text)
	}
	return scores
}

// IsFilteredSender reports whether a sender display name is transactional.
func IsFilteredSender(source string) bool {
	return filteredSenders[NormalizeSource(source)]
}

// NormalizeSource lowercases, trims and straightens quotes in a sender name.
func NormalizeSource(source string) string {
	return quoteReplacer.Replace(strings.ToLower(strings.TrimSpace(source)))
}

func alertTopic(source string) (core.Topic, bool) {
	m := alertPattern.FindStringSubmatch(source)
	if m == nil {
		return core.TopicOther, false
	}
	topic, ok := alertTopics[strings.TrimSpace(m[1])]
	return topic, ok
}

func sourceTopic(source string) (core.Topic, bool) {
	// An empty source is a substring of every key.
	if source == "" {
		return core.TopicOther, false
	}
	for _, rule := range sourceTopics {
		if strings.Contains(source, rule.key) || strings.Contains(rule.key, source) {
			return rule.topic, true
		}
	}
	return core.TopicOther, false
}

func (c *Classifier) keywordTopic(article core.Article) core.Topic {
	text := c.scanText(article)

	best, bestScore := core.TopicOther, 0
	for _, tp := range c.keywords {
		// Strictly greater keeps the earlier topic on ties.
		if score := countMatches(tp.patterns, text); score > bestScore {
			best, bestScore = tp.topic, score
		}
	}

	if bestScore < c.minMatches {
		return core.TopicOther
	}
	return best
}

func (c *Classifier) scanText(article core.Article) string {
	body := article.Content
	if runes := []rune(body); len(runes) > c.scanChars {
		body = string(runes[:c.scanChars])
	}
	return article.Title + " " + body
}

func countMatches(patterns []*regexp.Regexp, text string) int {
	n := 0
	for _, p := range patterns {
		if p.MatchString(text) {
			n++
		}
	}
	return n
}
