package dedupe

import (
	"strings"

	"noctua/internal/core"
	"noctua/internal/logger"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	// DefaultThreshold is the similarity above which two articles are duplicates.
	DefaultThreshold = 0.6
	// PrefixChars is how much of each article body is compared.
	PrefixChars = 500
)

// Deduplicator drops articles whose opening text closely matches an earlier one.
//
// Every article is compared with every article already kept, so a run costs
// O(n²) similarity computations. That is fine for a day's newsletters (tens of
// items) and would need an index such as shingling before it scales to thousands.
type Deduplicator struct {
	threshold float64
}

// New returns a Deduplicator. A threshold outside (0, 1] selects DefaultThreshold.
func New(threshold float64) *Deduplicator {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Deduplicator{threshold: threshold}
}

// Dedupe returns articles with near-duplicates removed. Order is preserved and
// the first occurrence wins.
func (d *Deduplicator) Dedupe(articles []core.ClassifiedArticle) []core.ClassifiedArticle {
	if len(articles) <= 1 {
		return articles
	}

	kept := make([]core.ClassifiedArticle, 0, len(articles))
	keptSeqs := make([][]string, 0, len(articles))

	for _, a := range articles {
		seq := prefixSeq(a.Content)
		duplicate := false
		for i, existing := range keptSeqs {
			if ratio(seq, existing) > d.threshold {
				logger.Info("Dropping duplicate article",
					"title", a.Title, "source", a.Source,
					"duplicate_of", kept[i].Title)
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, a)
			keptSeqs = append(keptSeqs, seq)
		}
	}

	return kept
}

// Similarity is the longest-matching-blocks ratio of the lowercased opening
// PrefixChars runes of a and b, in [0, 1].
func Similarity(a, b string) float64 {
	return ratio(prefixSeq(a), prefixSeq(b))
}

func ratio(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	return difflib.NewMatcher(a, b).Ratio()
}

// prefixSeq splits the comparison prefix into one element per rune.
func prefixSeq(text string) []string {
	runes := []rune(strings.ToLower(text))
	if len(runes) > PrefixChars {
		runes = runes[:PrefixChars]
	}
	seq := make([]string, len(runes))
	for i, r := range runes {
		seq[i] = string(r)
	}
	return seq
}
