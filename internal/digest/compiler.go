// Package digest turns a day's classified articles into the script document
// handed to the narration service.
package digest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"noctua/internal/core"
	"noctua/internal/logger"
	"noctua/internal/narrative"
)

const (
	// WordsPerMinute converts a segment's nominal minutes to its word budget.
	WordsPerMinute = 150
	// MaxTextRunes is the narration service's hard source size limit.
	MaxTextRunes = 100_000
	// TruncationMarker ends any document cut down to MaxTextRunes.
	TruncationMarker = "\n\n[... digest truncated to fit the source size limit ...]\n"

	truncationMargin = 200
	weatherTimeout   = 3 * time.Second
)

// ErrNoArticles is returned when nothing is left to compile.
var ErrNoArticles = errors.New("no articles to compile")

// Synthesizer writes the prose for every segment of an episode.
type Synthesizer interface {
	Synthesize(ctx context.Context, req narrative.Request) (*narrative.Result, error)
}

// WeatherProvider returns a short phrase like "52°F and overcast in Seattle".
type WeatherProvider interface {
	Describe(ctx context.Context) (string, error)
}

// Compiler assembles CompiledDigests. Both collaborators are optional: without
// a synthesizer every segment uses the raw fallback renderer, and without a
// weather provider the intro omits the weather.
type Compiler struct {
	synthesizer    Synthesizer
	weather        WeatherProvider
	weatherTimeout time.Duration
}

// NewCompiler creates a compiler.
func NewCompiler(synthesizer Synthesizer, weather WeatherProvider) *Compiler {
	return &Compiler{
		synthesizer:    synthesizer,
		weather:        weather,
		weatherTimeout: weatherTimeout,
	}
}

// segmentPlan is one non-empty segment of the document, numbered in show order.
type segmentPlan struct {
	number   int
	segment  core.Segment
	articles []core.ClassifiedArticle
}

func (p segmentPlan) wordBudget() int {
	return WordBudget(p.segment.Minutes)
}

// WordBudget is the spoken word budget of a segment.
func WordBudget(minutes int) int {
	return minutes * WordsPerMinute
}

// ArticleCap is the most articles a segment of the given length keeps.
// Halves round to even, so three minutes keep four articles.
func ArticleCap(minutes int) int {
	return max(2, int(math.RoundToEven(float64(minutes)*1.5)))
}

// Compile builds the document for digest using show's running order.
func (c *Compiler) Compile(ctx context.Context, digest core.DailyDigest, show core.Show) (*core.CompiledDigest, error) {
	if len(digest.Articles) == 0 {
		return nil, ErrNoArticles
	}

	plans := c.plan(digest.Articles, show)
	if len(plans) == 0 {
		return nil, fmt.Errorf("%w: none of %d articles fit show %s", ErrNoArticles, len(digest.Articles), show.ID)
	}

	topics := make([]core.Topic, len(plans))
	for i, p := range plans {
		topics[i] = p.segment.Topic
	}

	prose, summary, synthesized := c.synthesize(ctx, show, digest.Date, plans)
	if summary == "" {
		summary = narrative.FallbackSummary(show.Name, topics)
	}

	weather := c.describeWeather(ctx)
	text := enforceCeiling(assemble(show, digest.Date, weather, plans, prose))

	compiled := &core.CompiledDigest{
		Date:           core.FormatDate(digest.Date),
		ShowID:         show.ID,
		Text:           text,
		TotalWords:     len(strings.Fields(text)),
		SegmentCounts:  make(map[string]int, len(plans)),
		SegmentSources: make(map[string][]string, len(plans)),
		Summary:        summary,
		Synthesized:    synthesized,
	}
	for _, p := range plans {
		name := p.segment.Topic.String()
		compiled.ArticleCount += len(p.articles)
		compiled.SegmentCounts[name] = len(p.articles)
		compiled.SegmentSources[name] = uniqueSources(p.articles)
	}
	compiled.TopicsSummary = topicsSummary(plans)

	logger.Info("Compiled digest",
		"date", compiled.Date,
		"show", show.ID,
		"articles", compiled.ArticleCount,
		"words", compiled.TotalWords,
		"chars", len([]rune(text)),
		"segments", len(plans),
		"synthesized", synthesized)

	return compiled, nil
}

// plan groups articles into the show's segments, drops topics the show does
// not carry and caps each segment.
func (c *Compiler) plan(articles []core.ClassifiedArticle, show core.Show) []segmentPlan {
	grouped := make(map[core.Topic][]core.ClassifiedArticle)
	skipped := 0
	for _, a := range articles {
		if _, ok := show.Segment(a.Topic); !ok {
			skipped++
			continue
		}
		grouped[a.Topic] = append(grouped[a.Topic], a)
	}
	if skipped > 0 {
		logger.Info("Articles outside the show's segments dropped", "show", show.ID, "count", skipped)
	}

	var plans []segmentPlan
	for _, seg := range show.Segments {
		list := grouped[seg.Topic]
		if len(list) == 0 {
			continue
		}
		if limit := ArticleCap(seg.Minutes); len(list) > limit {
			logger.Info("Capping segment", "topic", seg.Topic.String(), "from", len(list), "to", limit, "minutes", seg.Minutes)
			list = list[:limit]
		}
		plans = append(plans, segmentPlan{number: len(plans) + 1, segment: seg, articles: list})
	}
	return plans
}

// synthesize returns per-segment prose and the summary. On any failure it
// returns the raw fallback rendering and an empty summary.
func (c *Compiler) synthesize(ctx context.Context, show core.Show, date time.Time, plans []segmentPlan) ([]string, string, bool) {
	if c.synthesizer != nil {
		req := narrative.Request{
			ShowName: show.Name,
			Date:     core.FormatDate(date),
			Segments: make([]narrative.Segment, len(plans)),
		}
		for i, p := range plans {
			req.Segments[i] = narrative.Segment{
				Number:     p.number,
				Topic:      p.segment.Topic,
				Minutes:    p.segment.Minutes,
				WordBudget: p.wordBudget(),
				Articles:   p.articles,
			}
		}

		result, err := c.synthesizer.Synthesize(ctx, req)
		if err == nil && result != nil && len(result.Prose) == len(plans) {
			return result.Prose, result.Summary, true
		}
		if err == nil {
			err = fmt.Errorf("%w: prose count mismatch", narrative.ErrUnusableResponse)
		}
		logger.Warn("Narrative synthesis unavailable, using raw segment text", "error", err.Error())
	}

	prose := make([]string, len(plans))
	for i, p := range plans {
		prose[i] = RenderFallback(p.articles, p.wordBudget())
	}
	return prose, "", false
}

func (c *Compiler) describeWeather(ctx context.Context) string {
	if c.weather == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, c.weatherTimeout)
	defer cancel()

	desc, err := c.weather.Describe(ctx)
	if err != nil {
		logger.Debug("Weather lookup failed", "error", err.Error())
		return ""
	}
	return strings.TrimSpace(desc)
}

// enforceCeiling cuts text that exceeds MaxTextRunes and marks the cut.
func enforceCeiling(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxTextRunes {
		return text
	}
	logger.Warn("Digest exceeds source size limit, truncating", "chars", len(runes), "limit", MaxTextRunes)
	return string(runes[:MaxTextRunes-truncationMargin]) + TruncationMarker
}

func topicsSummary(plans []segmentPlan) string {
	if len(plans) == 0 {
		return "No segments"
	}
	parts := make([]string, len(plans))
	for i, p := range plans {
		parts[i] = fmt.Sprintf("%s (%d)", p.segment.Topic, len(p.articles))
	}
	return strings.Join(parts, "; ")
}

func uniqueSources(articles []core.ClassifiedArticle) []string {
	seen := make(map[string]bool, len(articles))
	sources := make([]string, 0, len(articles))
	for _, a := range articles {
		if a.Source == "" || seen[a.Source] {
			continue
		}
		seen[a.Source] = true
		sources = append(sources, a.Source)
	}
	return sources
}
