package pipeline

import (
	"context"
	"time"

	"noctua/internal/core"
)

// MessageSource supplies the raw messages for a run
type MessageSource interface {
	// Name identifies the source in logs and step messages
	Name() string

	// Fetch returns the messages received in the window ending at now
	Fetch(ctx context.Context, now time.Time) ([]core.RawMessage, error)
}

// ArticleNormalizer cleans raw messages into articles
type ArticleNormalizer interface {
	// Normalize returns an error for messages with too little content
	Normalize(msg core.RawMessage) (core.Article, error)
}

// ArticleClassifier assigns topics
type ArticleClassifier interface {
	// Assign returns false for articles from filtered senders
	Assign(article core.Article) (core.ClassifiedArticle, bool)
}

// ArticleDeduplicator removes near-duplicate articles, keeping the first
type ArticleDeduplicator interface {
	Dedupe(articles []core.ClassifiedArticle) []core.ClassifiedArticle
}

// DigestCompiler builds the script document for a show
type DigestCompiler interface {
	// Compile returns digest.ErrNoArticles when nothing fits the show
	Compile(ctx context.Context, digest core.DailyDigest, show core.Show) (*core.CompiledDigest, error)
}

// DigestStore persists compiled digests and the run log
type DigestStore interface {
	// SaveDigest returns false when the date is locked by a published episode
	SaveDigest(ctx context.Context, compiled *core.CompiledDigest, force bool) (bool, error)

	StartRun(ctx context.Context, runID string) error
	LogStep(ctx context.Context, runID, step, status, message string) error
	FinishRun(ctx context.Context, runID, status, errMsg string) error
}
