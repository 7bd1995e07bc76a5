package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"noctua/internal/core"

	sq "github.com/Masterminds/squirrel"
)

var episodeColumns = []string{
	"date", "audio_path", "size_bytes", "duration_seconds", "topics_summary", "summary", "published_at",
}

// SaveEpisode records a published episode, locking the digest for its date.
func (s *Store) SaveEpisode(ctx context.Context, ep core.Episode) error {
	if ep.Date == "" {
		return fmt.Errorf("episode date is required")
	}
	if ep.PublishedAt.IsZero() {
		ep.PublishedAt = s.now()
	}

	query, args, err := sq.Insert("episodes").
		Columns(episodeColumns...).
		Values(ep.Date, ep.AudioPath, ep.SizeBytes, ep.DurationSeconds, ep.TopicsSummary, ep.Summary, ep.PublishedAt).
		Suffix(`ON CONFLICT(date) DO UPDATE SET
			audio_path = excluded.audio_path,
			size_bytes = excluded.size_bytes,
			duration_seconds = excluded.duration_seconds,
			topics_summary = excluded.topics_summary,
			summary = excluded.summary,
			published_at = excluded.published_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build episode upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save episode: %w", err)
	}
	return nil
}

// HasEpisode reports whether an episode was published for date.
func (s *Store) HasEpisode(ctx context.Context, date string) (bool, error) {
	query, args, err := sq.Select("COUNT(*)").From("episodes").Where(sq.Eq{"date": date}).ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build episode lookup: %w", err)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check episode: %w", err)
	}
	return n > 0, nil
}

// GetEpisode returns the episode for date, or nil if there is none.
func (s *Store) GetEpisode(ctx context.Context, date string) (*core.Episode, error) {
	query, args, err := sq.Select(episodeColumns...).From("episodes").Where(sq.Eq{"date": date}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build episode query: %w", err)
	}

	ep, err := scanEpisode(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get episode: %w", err)
	}
	return ep, nil
}

// ListEpisodes returns episodes, newest date first.
func (s *Store) ListEpisodes(ctx context.Context, limit int) ([]core.Episode, error) {
	query, args, err := limited(sq.Select(episodeColumns...).From("episodes").OrderBy("date DESC"), limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build episode list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var episodes []core.Episode
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan episode: %w", err)
		}
		episodes = append(episodes, *ep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate episodes: %w", err)
	}
	return episodes, nil
}

// DeleteEpisode removes the episode for date, unlocking its digest.
func (s *Store) DeleteEpisode(ctx context.Context, date string) (bool, error) {
	return s.deleteByDate(ctx, "episodes", date)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEpisode(row rowScanner) (*core.Episode, error) {
	var ep core.Episode
	err := row.Scan(&ep.Date, &ep.AudioPath, &ep.SizeBytes, &ep.DurationSeconds, &ep.TopicsSummary, &ep.Summary, &ep.PublishedAt)
	if err != nil {
		return nil, err
	}
	return &ep, nil
}
