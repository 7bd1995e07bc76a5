package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"noctua/internal/categorization"
	"noctua/internal/content"
	"noctua/internal/core"
	"noctua/internal/digest"
	"noctua/internal/logger"

	"github.com/google/uuid"
)

// Run log step names, in execution order.
const (
	StepFetch   = "1. Fetch emails"
	StepParse   = "2. Parse content"
	StepCompile = "3. Compile digest"
	StepSave    = "4. Save digest"
)

// Pipeline runs one day's fetch, parse, compile and save, recording every step
// in the run log.
type Pipeline struct {
	source     MessageSource
	normalizer ArticleNormalizer
	classifier ArticleClassifier
	dedupe     ArticleDeduplicator
	compiler   DigestCompiler
	store      DigestStore
	now        func() time.Time
}

// NewPipeline creates a pipeline from its components
func NewPipeline(
	source MessageSource,
	normalizer ArticleNormalizer,
	classifier ArticleClassifier,
	dedupe ArticleDeduplicator,
	compiler DigestCompiler,
	store DigestStore,
) *Pipeline {
	return &Pipeline{
		source:     source,
		normalizer: normalizer,
		classifier: classifier,
		dedupe:     dedupe,
		compiler:   compiler,
		store:      store,
		now:        time.Now,
	}
}

// RunOptions configures a run
type RunOptions struct {
	Date   time.Time // Digest date; zero means the run time
	Show   core.Show
	DryRun bool // Compile but do not save
	Force  bool // Save even if an episode locks the date
}

// RunResult describes what a run did. Digest is nil when there was nothing to
// compile.
type RunResult struct {
	RunID    string
	Messages int
	Articles int
	Digest   *core.CompiledDigest
	Saved    bool
	Locked   bool
}

// NewRunID returns a short random run identifier.
func NewRunID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Run executes the pipeline. Empty inboxes, days with no usable articles and
// locked dates finish successfully; source and store failures fail the run.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	now := p.now()
	date, fetchEnd := opts.Date, now
	if date.IsZero() {
		date = now
	} else {
		fetchEnd = FetchWindowEnd(date, now)
	}

	result := &RunResult{RunID: NewRunID()}
	if err := p.store.StartRun(ctx, result.RunID); err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	logger.Info("Pipeline run started", "run_id", result.RunID, "date", core.FormatDate(date), "show", opts.Show.ID, "source", p.source.Name())

	// Step 1: fetch
	if err := p.logStep(ctx, result.RunID, StepFetch, core.StepRunning, ""); err != nil {
		return result, err
	}
	messages, err := p.source.Fetch(ctx, fetchEnd)
	if err != nil {
		return result, p.fail(ctx, result.RunID, StepFetch, fmt.Errorf("failed to fetch messages: %w", err))
	}
	result.Messages = len(messages)
	if len(messages) == 0 {
		return result, p.finish(ctx, result.RunID, StepFetch, core.StepSkipped, "no messages")
	}
	if err := p.logStep(ctx, result.RunID, StepFetch, core.StepSuccess, fmt.Sprintf("%d messages", len(messages))); err != nil {
		return result, err
	}

	// Step 2: parse
	if err := p.logStep(ctx, result.RunID, StepParse, core.StepRunning, ""); err != nil {
		return result, err
	}
	daily := p.ParseMessages(date, messages)
	result.Articles = len(daily.Articles)
	if len(daily.Articles) == 0 {
		return result, p.finish(ctx, result.RunID, StepParse, core.StepSkipped, "no usable articles")
	}
	if err := p.logStep(ctx, result.RunID, StepParse, core.StepSuccess, fmt.Sprintf("%d articles", len(daily.Articles))); err != nil {
		return result, err
	}

	// Step 3: compile
	if err := p.logStep(ctx, result.RunID, StepCompile, core.StepRunning, ""); err != nil {
		return result, err
	}
	compiled, err := p.compiler.Compile(ctx, daily, opts.Show)
	if errors.Is(err, digest.ErrNoArticles) {
		return result, p.finish(ctx, result.RunID, StepCompile, core.StepSkipped, err.Error())
	}
	if err != nil {
		return result, p.fail(ctx, result.RunID, StepCompile, fmt.Errorf("failed to compile digest: %w", err))
	}
	result.Digest = compiled
	if err := p.logStep(ctx, result.RunID, StepCompile, core.StepSuccess, compiled.TopicsSummary); err != nil {
		return result, err
	}

	// Step 4: save
	if opts.DryRun {
		return result, p.finish(ctx, result.RunID, StepSave, core.StepSkipped, "dry run")
	}
	if err := p.logStep(ctx, result.RunID, StepSave, core.StepRunning, ""); err != nil {
		return result, err
	}
	saved, err := p.store.SaveDigest(ctx, compiled, opts.Force)
	if err != nil {
		return result, p.fail(ctx, result.RunID, StepSave, fmt.Errorf("failed to save digest: %w", err))
	}
	result.Saved = saved
	if !saved {
		result.Locked = true
		return result, p.finish(ctx, result.RunID, StepSave, core.StepSkipped, "locked: episode already published for "+compiled.Date)
	}
	return result, p.finish(ctx, result.RunID, StepSave, core.StepSuccess, "saved "+compiled.Date)
}

// FetchWindowEnd is where the mailbox window ends for a run on date: the end
// of that calendar day in date's location, or now if the day is not over yet.
func FetchWindowEnd(date, now time.Time) time.Time {
	y, m, d := date.Date()
	end := time.Date(y, m, d+1, 0, 0, 0, 0, date.Location())
	if end.After(now) {
		return now
	}
	return end
}

// ParseMessages normalizes, classifies and deduplicates messages into the
// day's digest. Messages that cannot be used are logged and skipped.
func (p *Pipeline) ParseMessages(date time.Time, messages []core.RawMessage) core.DailyDigest {
	var classified []core.ClassifiedArticle
	for _, msg := range messages {
		if sender := content.ExtractSenderName(msg.Sender); categorization.IsFilteredSender(sender) {
			logger.Info("Skipping filtered sender", "source", sender, "subject", msg.Subject)
			continue
		}
		article, err := p.normalizer.Normalize(msg)
		if err != nil {
			logger.Info("Skipping message", "subject", msg.Subject, "reason", err.Error())
			continue
		}
		ca, ok := p.classifier.Assign(article)
		if !ok {
			logger.Info("Skipping filtered sender", "source", article.Source, "subject", article.Title)
			continue
		}
		classified = append(classified, ca)
	}

	kept := p.dedupe.Dedupe(classified)
	logger.Info("Parsed messages", "messages", len(messages), "articles", len(classified), "unique", len(kept))
	return core.NewDailyDigest(date, kept)
}

// logStep records a step. A run whose log cannot be written is closed as failed.
func (p *Pipeline) logStep(ctx context.Context, runID, step, status, message string) error {
	if err := p.store.LogStep(ctx, runID, step, status, message); err != nil {
		return p.fail(ctx, runID, step, fmt.Errorf("failed to log step %q: %w", step, err))
	}
	return nil
}

// finish records the last step and closes the run as successful.
func (p *Pipeline) finish(ctx context.Context, runID, step, status, message string) error {
	if err := p.logStep(ctx, runID, step, status, message); err != nil {
		return err
	}
	if err := p.store.FinishRun(ctx, runID, core.RunSuccess, ""); err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	logger.Info("Pipeline run finished", "run_id", runID, "step", step, "status", status, "detail", message)
	return nil
}

// fail records the failing step, closes the run as failed and returns cause.
func (p *Pipeline) fail(ctx context.Context, runID, step string, cause error) error {
	logger.Error("Pipeline step failed", cause, "run_id", runID, "step", step)
	if err := p.store.LogStep(ctx, runID, step, core.StepFailed, cause.Error()); err != nil {
		logger.Error("Failed to log step failure", err, "run_id", runID)
	}
	if err := p.store.FinishRun(ctx, runID, core.RunFailed, cause.Error()); err != nil {
		logger.Error("Failed to mark run failed", err, "run_id", runID)
	}
	return cause
}
