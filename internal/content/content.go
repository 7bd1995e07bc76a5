package content

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"noctua/internal/core"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// DefaultMinContentChars is the shortest cleaned body accepted as an article.
const DefaultMinContentChars = 50

// ErrContentTooShort marks a message whose cleaned body is below the minimum length.
var ErrContentTooShort = errors.New("content too short")

var (
	// nonContentSelector lists elements that never carry newsletter prose.
	nonContentSelector = "script, style, nav, header, footer, form, iframe, frame, frameset, object, embed, noscript, svg"

	trackingImgPattern  = regexp.MustCompile(`(?i)<img[^>]+(width=["']1["']|height=["']1["']|tracking|pixel|beacon|open\.gif|t\.gif)[^>]*>`)
	trackingAttrPattern = regexp.MustCompile(`(?i)(tracking|pixel|beacon|open\.gif|t\.gif)`)
	hiddenStylePattern  = regexp.MustCompile(`(?i)(display\s*:\s*none|visibility\s*:\s*hidden)`)

	junkLinePattern = regexp.MustCompile(`(?i)(unsubscribe|manage\s+preferences|view\s+in\s+browser|email\s+preferences|update\s+your\s+profile|powered\s+by|©\s*\d{4}|all\s+rights\s+reserved|privacy\s+policy|terms\s+of\s+service|follow\s+us\s+on)`)

	senderNamePattern = regexp.MustCompile(`^"?([^"<]+)"?\s*<`)
)

// Normalizer turns raw messages into articles.
type Normalizer struct {
	MinChars int
}

// NewNormalizer returns a Normalizer that rejects bodies shorter than minChars.
// A non-positive value selects DefaultMinContentChars.
func NewNormalizer(minChars int) *Normalizer {
	if minChars <= 0 {
		minChars = DefaultMinContentChars
	}
	return &Normalizer{MinChars: minChars}
}

// Normalize cleans msg into an Article. The HTML body is preferred over the text body.
func (n *Normalizer) Normalize(msg core.RawMessage) (core.Article, error) {
	var text string
	if strings.TrimSpace(msg.HTMLBody) != "" {
		text = CleanHTML(msg.HTMLBody)
	} else {
		text = CleanText(msg.TextBody)
	}

	if got := utf8.RuneCountInString(text); got < n.MinChars {
		return core.Article{}, fmt.Errorf("%w: %q has %d characters, need %d", ErrContentTooShort, msg.Subject, got, n.MinChars)
	}

	return core.Article{
		Source:     ExtractSenderName(msg.Sender),
		Title:      strings.TrimSpace(msg.Subject),
		Content:    text,
		Words:      len(strings.Fields(text)),
		ReceivedAt: msg.Date,
	}, nil
}

// CleanHTML strips markup, hidden elements, tracking artifacts and footer junk
// from a newsletter body and returns its text, one trimmed line per text run.
// Malformed markup is parsed permissively and never fails.
func CleanHTML(raw string) string {
	raw = trackingImgPattern.ReplaceAllString(raw, "")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		// The html5 parser only fails on reader errors; fall back to the raw text.
		return CleanText(raw)
	}

	doc.Find(nonContentSelector).Remove()

	doc.Find("[style]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		style, _ := s.Attr("style")
		return hiddenStylePattern.MatchString(style)
	}).Remove()

	doc.Find("img").FilterFunction(func(_ int, s *goquery.Selection) bool {
		w, _ := s.Attr("width")
		h, _ := s.Attr("height")
		return isPixelDimension(w) || isPixelDimension(h)
	}).Remove()

	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			s.Remove()
			return
		}
		s.ReplaceWithNodes(&html.Node{Type: html.TextNode, Data: text})
	})

	// Tracking images that survived the pre-parse pattern, e.g. with unquoted attributes.
	doc.Find("img").FilterFunction(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		class, _ := s.Attr("class")
		return trackingAttrPattern.MatchString(src + " " + class)
	}).Remove()

	var parts []string
	for _, node := range doc.Nodes {
		collectText(node, &parts)
	}
	return CleanText(strings.Join(parts, "\n"))
}

// CleanText trims every line and drops empty lines and footer boilerplate.
// It is idempotent: cleaning its own output changes nothing.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || junkLinePattern.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// ExtractSenderName returns the display name of a From header.
//
//	"Morning Brew" <crew@morningbrew.com>  ->  Morning Brew
//	news@example.com                       ->  news
func ExtractSenderName(sender string) string {
	if m := senderNamePattern.FindStringSubmatch(sender); m != nil {
		return strings.TrimSpace(m[1])
	}
	if at := strings.Index(sender, "@"); at >= 0 {
		return sender[:at]
	}
	return sender
}

func isPixelDimension(v string) bool {
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	return v == "0" || v == "1"
}

// collectText appends the text under n, one part per run of adjacent text
// nodes, so a sentence split by a replaced link stays on one line.
func collectText(n *html.Node, parts *[]string) {
	var run strings.Builder
	flush := func() {
		if run.Len() > 0 {
			*parts = append(*parts, run.String())
			run.Reset()
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			run.WriteString(c.Data)
		case html.ElementNode, html.DocumentNode:
			flush()
			collectText(c, parts)
		}
	}
	flush()
}
