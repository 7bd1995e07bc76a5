package core

import "time"

// RawMessage is an inbound newsletter email as delivered by a mailbox source.
type RawMessage struct {
	Sender   string    `json:"sender"`    // Free-form sender header, e.g. "Name" <addr>
	Subject  string    `json:"subject"`   // Subject line, becomes the article title
	Date     time.Time `json:"date"`      // Time the message was received
	HTMLBody string    `json:"html_body"` // HTML body (optional)
	TextBody string    `json:"text_body"` // Plain-text body (optional)
}

// Article is the cleaned, unclassified form of a RawMessage.
type Article struct {
	Source     string    `json:"source"`      // Sender display name
	Title      string    `json:"title"`       // Subject of the originating message
	Content    string    `json:"content"`     // Cleaned plain text
	Words      int       `json:"words"`       // Whitespace-separated word count of Content
	ReceivedAt time.Time `json:"received_at"` // Timestamp of the originating message
}

// ClassifiedArticle is an Article with its assigned topic.
type ClassifiedArticle struct {
	Article
	Topic Topic `json:"topic"`
}

// DailyDigest is the deduplicated, classified set of articles for one day.
type DailyDigest struct {
	Date       time.Time           `json:"date"`
	Articles   []ClassifiedArticle `json:"articles"`
	TotalWords int                 `json:"total_words"`
}

// NewDailyDigest builds a digest for date and computes its word total.
func NewDailyDigest(date time.Time, articles []ClassifiedArticle) DailyDigest {
	total := 0
	for _, a := range articles {
		total += a.Words
	}
	return DailyDigest{Date: date, Articles: articles, TotalWords: total}
}

// CompiledDigest is the script document handed to the narration service.
type CompiledDigest struct {
	Date           string              `json:"date"` // YYYY-MM-DD
	ShowID         string              `json:"show_id"`
	Text           string              `json:"text"`
	ArticleCount   int                 `json:"article_count"`
	TotalWords     int                 `json:"total_words"`
	TopicsSummary  string              `json:"topics_summary"`
	SegmentCounts  map[string]int      `json:"segment_counts"`
	SegmentSources map[string][]string `json:"segment_sources"`
	Summary        string              `json:"summary"`     // One-sentence episode summary
	Synthesized    bool                `json:"synthesized"` // False when the raw fallback renderer produced the prose
}

// DigestRecord is a persisted CompiledDigest.
type DigestRecord struct {
	CompiledDigest
	CreatedAt time.Time `json:"created_at"`
}

// DigestListing is the summary view of a DigestRecord, without the text.
type DigestListing struct {
	Date          string    `json:"date"`
	ShowID        string    `json:"show_id"`
	ArticleCount  int       `json:"article_count"`
	TotalWords    int       `json:"total_words"`
	TopicsSummary string    `json:"topics_summary"`
	Summary       string    `json:"summary"`
	CreatedAt     time.Time `json:"created_at"`
}

// Episode is a published audio episode. Its existence locks the digest for the same date.
type Episode struct {
	Date            string    `json:"date"`
	AudioPath       string    `json:"audio_path"`
	SizeBytes       int64     `json:"size_bytes"`
	DurationSeconds int       `json:"duration_seconds"`
	TopicsSummary   string    `json:"topics_summary"`
	Summary         string    `json:"summary"`
	PublishedAt     time.Time `json:"published_at"`
}

// DateLayout is the calendar date format used as the digest and episode key.
const DateLayout = "2006-01-02"

// FormatDate renders t as a digest key.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
