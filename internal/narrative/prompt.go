package narrative

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// SummaryDelimiter separates the segment prose from the episode summary.
	SummaryDelimiter = "===EPISODE SUMMARY==="
	// MaxSummaryWords bounds the episode summary sentence.
	MaxSummaryWords = 25
	// ExcerptWords is how much of each article the model sees.
	ExcerptWords = 400
)

// segmentHeader matches "## SEGMENT 2: US Politics" with an optional trailing
// parenthetical such as "(~3 minutes, ~450 words)".
var segmentHeader = regexp.MustCompile(`(?mi)^#{1,3}[ \t]*SEGMENT[ \t]+(\d+)[ \t]*:[ \t]*([^\n(]+?)[ \t]*(?:\([^\n]*\))?[ \t]*$`)

var codeFence = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\n(.*?)\\s*```$")

// SystemInstruction describes tone and format for the script writer.
func SystemInstruction(showName string) string {
	return fmt.Sprintf(`You are the head writer for %s, a daily spoken news briefing.
Write in a warm, conversational, informative register meant to be read aloud.
Rules:
- Cover only what the provided articles say; do not invent facts, quotes or numbers.
- Stay within each segment's word budget.
- Do not use bullet points, tables, links or URLs. Write flowing paragraphs.
- Mention sources by name when it helps the listener.
- Keep segment headers exactly as given, in the given order.`, showName)
}

// BuildPrompt renders the synthesis request with every segment's budget and
// article excerpts, followed by the output contract.
func BuildPrompt(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Write the script for the %s episode of %s.\n\n", req.Date, req.ShowName)
	b.WriteString("SEGMENTS AND SOURCE ARTICLES:\n\n")

	for _, seg := range req.Segments {
		fmt.Fprintf(&b, "## SEGMENT %d: %s (~%d %s, ~%d words)\n\n",
			seg.Number, seg.Topic, seg.Minutes, minutesLabel(seg.Minutes), seg.WordBudget)
		for i, a := range seg.Articles {
			fmt.Fprintf(&b, "[%d] %s\nSource: %s\n%s\n\n", i+1, a.Title, a.Source, excerpt(a.Content, ExcerptWords))
		}
	}

	b.WriteString("OUTPUT FORMAT:\n")
	b.WriteString("For each segment above, in the same order, write the header line exactly as\n")
	b.WriteString("\"## SEGMENT N: <topic>\" followed by that segment's prose.\n")
	fmt.Fprintf(&b, "After the last segment write a line containing only %s,\n", SummaryDelimiter)
	fmt.Fprintf(&b, "then one sentence of at most %d words summarising the whole episode.\n", MaxSummaryWords)
	return b.String()
}

// ParseResponse splits a model response into per-segment prose and the
// summary. The response must contain every requested segment, numbered and
// ordered as requested, each with non-empty prose.
func ParseResponse(response string, req Request) (*Result, error) {
	text := strings.TrimSpace(strings.ReplaceAll(response, "\r\n", "\n"))
	if m := codeFence.FindStringSubmatch(text); m != nil {
		text = m[1]
	}

	body, summary := text, ""
	if idx := strings.LastIndex(text, SummaryDelimiter); idx >= 0 {
		body = text[:idx]
		summary = firstLine(strings.TrimSpace(text[idx+len(SummaryDelimiter):]))
	}

	headers := segmentHeader.FindAllStringSubmatchIndex(body, -1)
	if len(headers) != len(req.Segments) {
		return nil, fmt.Errorf("%w: got %d segments, want %d", ErrUnusableResponse, len(headers), len(req.Segments))
	}

	prose := make([]string, len(headers))
	for i, h := range headers {
		want := req.Segments[i]
		number, _ := strconv.Atoi(body[h[2]:h[3]])
		name := strings.TrimSpace(body[h[4]:h[5]])
		if number != want.Number || !strings.EqualFold(name, want.Topic.String()) {
			return nil, fmt.Errorf("%w: segment %d is %q, want %d %q", ErrUnusableResponse, i+1, name, want.Number, want.Topic)
		}

		end := len(body)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}
		p := strings.TrimSpace(body[h[1]:end])
		p = strings.TrimSpace(strings.TrimSuffix(p, "---"))
		if p == "" {
			return nil, fmt.Errorf("%w: segment %d has no prose", ErrUnusableResponse, want.Number)
		}
		prose[i] = p
	}

	return &Result{Prose: prose, Summary: TrimWords(summary, MaxSummaryWords)}, nil
}

// TrimWords keeps at most n words of s, collapsing whitespace.
func TrimWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

func excerpt(content string, words int) string {
	fields := strings.Fields(content)
	if len(fields) <= words {
		return content
	}
	return strings.Join(fields[:words], " ") + " ..."
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

func minutesLabel(m int) string {
	if m == 1 {
		return "minute"
	}
	return "minutes"
}
