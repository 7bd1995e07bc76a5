package digest

import (
	"fmt"
	"strings"

	"noctua/internal/core"
)

const (
	charsPerWord = 6
	// Title, source line and spacing of one rendered article.
	articleOverhead = 80
	// Floor per article when the budget is tiny.
	minArticleChars   = 200
	fallbackCutMarker = "\n[...]"
)

// RenderFallback renders a segment's articles verbatim, trimmed so the segment
// stays proportionate to its word budget.
func RenderFallback(articles []core.ClassifiedArticle, wordBudget int) string {
	if len(articles) == 0 {
		return ""
	}
	budget := max(wordBudget*charsPerWord-articleOverhead*len(articles), minArticleChars*len(articles))

	sizes := make([]int, len(articles))
	for i, a := range articles {
		sizes[i] = len([]rune(a.Content))
	}
	caps := Allocate(sizes, budget)

	blocks := make([]string, len(articles))
	for i, a := range articles {
		blocks[i] = fmt.Sprintf("### %s\n\n*Source: %s*\n\n%s", a.Title, a.Source, trimTo(a.Content, caps[i]))
	}
	return strings.Join(blocks, "\n\n")
}

// Allocate splits budget across items of the given sizes. Each round offers
// every unsettled item an equal share of what is left; items that fit take
// their full size and leave the division. When a round settles nobody, the
// rest get the final equal share.
func Allocate(sizes []int, budget int) []int {
	caps := make([]int, len(sizes))
	remaining := make([]int, 0, len(sizes))
	for i := range sizes {
		remaining = append(remaining, i)
	}

	left := budget
	for len(remaining) > 0 {
		share := left / len(remaining)
		var next []int
		for _, i := range remaining {
			if sizes[i] <= share {
				caps[i] = sizes[i]
				left -= sizes[i]
			} else {
				next = append(next, i)
			}
		}
		if len(next) == len(remaining) {
			for _, i := range next {
				caps[i] = share
			}
			break
		}
		remaining = next
	}
	return caps
}

// trimTo cuts content to limit runes, backing up to the last line break, and
// marks the cut.
func trimTo(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	cut := string(runes[:max(limit, 0)])
	if i := strings.LastIndexByte(cut, '\n'); i >= 0 {
		cut = cut[:i]
	}
	return cut + fallbackCutMarker
}
