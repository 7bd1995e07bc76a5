package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"noctua/internal/core"
	"noctua/internal/logger"

	sq "github.com/Masterminds/squirrel"
)

var digestColumns = []string{
	"date", "show_id", "text", "article_count", "total_words", "topics_summary",
	"summary", "segment_counts", "segment_sources", "synthesized", "created_at",
}

// SaveDigest upserts the compiled digest for its date. When an episode has been
// published for that date the digest is locked: the save is skipped and false
// is returned unless force is set.
func (s *Store) SaveDigest(ctx context.Context, compiled *core.CompiledDigest, force bool) (bool, error) {
	if compiled == nil {
		return false, fmt.Errorf("no digest to save")
	}

	locked, err := s.HasEpisode(ctx, compiled.Date)
	if err != nil {
		return false, err
	}
	if locked && !force {
		logger.Info("Digest is locked by a published episode, not saving", "date", compiled.Date)
		return false, nil
	}

	counts, err := json.Marshal(nonNilCounts(compiled.SegmentCounts))
	if err != nil {
		return false, fmt.Errorf("failed to encode segment counts: %w", err)
	}
	sources, err := json.Marshal(nonNilSources(compiled.SegmentSources))
	if err != nil {
		return false, fmt.Errorf("failed to encode segment sources: %w", err)
	}

	query, args, err := sq.Insert("digests").
		Columns(digestColumns...).
		Values(
			compiled.Date,
			compiled.ShowID,
			compiled.Text,
			compiled.ArticleCount,
			compiled.TotalWords,
			compiled.TopicsSummary,
			compiled.Summary,
			string(counts),
			string(sources),
			compiled.Synthesized,
			s.now(),
		).
		Suffix(`ON CONFLICT(date) DO UPDATE SET
			show_id = excluded.show_id,
			text = excluded.text,
			article_count = excluded.article_count,
			total_words = excluded.total_words,
			topics_summary = excluded.topics_summary,
			summary = excluded.summary,
			segment_counts = excluded.segment_counts,
			segment_sources = excluded.segment_sources,
			synthesized = excluded.synthesized,
			created_at = excluded.created_at`).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build digest upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return false, fmt.Errorf("failed to save digest: %w", err)
	}

	if locked {
		logger.Warn("Locked digest overwritten by force", "date", compiled.Date)
	}
	return true, nil
}

// GetDigest returns the digest for date, or nil if there is none.
func (s *Store) GetDigest(ctx context.Context, date string) (*core.DigestRecord, error) {
	query, args, err := sq.Select(digestColumns...).
		From("digests").
		Where(sq.Eq{"date": date}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build digest query: %w", err)
	}

	var (
		rec     core.DigestRecord
		counts  string
		sources string
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&rec.Date,
		&rec.ShowID,
		&rec.Text,
		&rec.ArticleCount,
		&rec.TotalWords,
		&rec.TopicsSummary,
		&rec.Summary,
		&counts,
		&sources,
		&rec.Synthesized,
		&rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get digest: %w", err)
	}

	if err := json.Unmarshal([]byte(counts), &rec.SegmentCounts); err != nil {
		return nil, fmt.Errorf("failed to decode segment counts: %w", err)
	}
	if err := json.Unmarshal([]byte(sources), &rec.SegmentSources); err != nil {
		return nil, fmt.Errorf("failed to decode segment sources: %w", err)
	}

	return &rec, nil
}

// ListDigests returns digest summaries, newest date first. A limit of zero or
// less returns all of them.
func (s *Store) ListDigests(ctx context.Context, limit int) ([]core.DigestListing, error) {
	query, args, err := limited(sq.Select(
		"date", "show_id", "article_count", "total_words", "topics_summary", "summary", "created_at",
	).From("digests").OrderBy("date DESC"), limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build digest list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list digests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var listings []core.DigestListing
	for rows.Next() {
		var l core.DigestListing
		if err := rows.Scan(&l.Date, &l.ShowID, &l.ArticleCount, &l.TotalWords, &l.TopicsSummary, &l.Summary, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan digest: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate digests: %w", err)
	}

	return listings, nil
}

// DeleteDigest removes the digest for date and reports whether one existed.
func (s *Store) DeleteDigest(ctx context.Context, date string) (bool, error) {
	return s.deleteByDate(ctx, "digests", date)
}

func (s *Store) deleteByDate(ctx context.Context, table, date string) (bool, error) {
	query, args, err := sq.Delete(table).Where(sq.Eq{"date": date}).ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build delete: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func nonNilCounts(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}

func nonNilSources(m map[string][]string) map[string][]string {
	if m == nil {
		return map[string][]string{}
	}
	return m
}
