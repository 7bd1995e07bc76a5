// Package mailbox supplies the raw newsletter messages a pipeline run works on.
package mailbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"noctua/internal/core"
	"noctua/internal/logger"
)

// ErrNotConfigured means the source is missing the settings it needs.
var ErrNotConfigured = errors.New("mailbox source not configured")

// Source fetches the messages for a run ending at now.
type Source interface {
	Name() string
	Fetch(ctx context.Context, now time.Time) ([]core.RawMessage, error)
}

// FileSource reads a JSON array of messages, for manual imports and backfills.
type FileSource struct {
	path string
}

// NewFileSource creates a source backed by the JSON file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name identifies the source in logs.
func (f *FileSource) Name() string {
	return "file:" + f.path
}

// Fetch returns every message in the file. Messages without a date are
// stamped with now.
func (f *FileSource) Fetch(_ context.Context, now time.Time) ([]core.RawMessage, error) {
	if f.path == "" {
		return nil, fmt.Errorf("%w: no inbox file set", ErrNotConfigured)
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inbox file: %w", err)
	}

	var messages []core.RawMessage
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to parse inbox file %s: %w", f.path, err)
	}

	for i := range messages {
		if messages[i].Date.IsZero() {
			messages[i].Date = now
		}
	}

	logger.Info("Loaded messages from file", "path", f.path, "count", len(messages))
	return messages, nil
}
