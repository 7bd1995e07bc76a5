package mailbox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

var runTime = time.Date(2026, 2, 17, 7, 30, 0, 0, time.UTC)

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inbox.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"sender": "\"The Neuron\" <hi@theneurondaily.com>", "subject": "Agents ship", "date": "2026-02-16T14:00:00Z", "text_body": "Agents."},
		{"sender": "TLDR <dan@tldrnewsletter.com>", "subject": "Chips", "html_body": "<p>Chips.</p>"}
	]`), 0644))

	src := NewFileSource(path)
	msgs, err := src.Fetch(context.Background(), runTime)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Agents ship", msgs[0].Subject)
	assert.Equal(t, time.Date(2026, 2, 16, 14, 0, 0, 0, time.UTC), msgs[0].Date.UTC())
	assert.Equal(t, runTime, msgs[1].Date)
	assert.Equal(t, "<p>Chips.</p>", msgs[1].HTMLBody)
	assert.Equal(t, "file:"+path, src.Name())
}

func TestFileSourceErrors(t *testing.T) {
	_, err := NewFileSource("").Fetch(context.Background(), runTime)
	assert.True(t, errors.Is(err, ErrNotConfigured))

	_, err = NewFileSource(filepath.Join(t.TempDir(), "missing.json")).Fetch(context.Background(), runTime)
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"not": "a list"}`), 0644))
	_, err = NewFileSource(bad).Fetch(context.Background(), runTime)
	assert.Error(t, err)
}

func TestNewGmailSourceNotConfigured(t *testing.T) {
	_, err := NewGmailSource(context.Background(), GmailOptions{})
	assert.True(t, errors.Is(err, ErrNotConfigured))

	_, err = NewGmailSource(context.Background(), GmailOptions{
		CredentialsFile: filepath.Join(t.TempDir(), "nope.json"),
		TokenFile:       filepath.Join(t.TempDir(), "nope.json"),
	})
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestGmailSourceFetch(t *testing.T) {
	var gotQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		if r.URL.Query().Get("pageToken") == "" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"messages":      []map[string]string{{"id": "m1"}, {"id": "missing"}},
				"nextPageToken": "p2",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"messages": []map[string]string{{"id": "m2"}},
		})
	})
	mux.HandleFunc("/gmail/v1/users/me/messages/m1", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(gmail.Message{
			Id: "m1",
			Payload: &gmail.MessagePart{
				MimeType: "multipart/alternative",
				Headers: []*gmail.MessagePartHeader{
					{Name: "From", Value: "\"The Neuron\" <hi@theneurondaily.com>"},
					{Name: "Subject", Value: "Agents ship"},
					{Name: "Date", Value: "Mon, 16 Feb 2026 06:00:00 -0800"},
				},
				Parts: []*gmail.MessagePart{
					{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: b64("Plain agents.")}},
					{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: b64("<p>HTML agents.</p>")}},
				},
			},
		})
	})
	mux.HandleFunc("/gmail/v1/users/me/messages/m2", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(gmail.Message{
			Id:           "m2",
			InternalDate: runTime.Add(-time.Hour).UnixMilli(),
			Payload: &gmail.MessagePart{
				MimeType: "text/plain",
				Headers:  []*gmail.MessagePartHeader{{Name: "subject", Value: "Bus lanes"}},
				Body:     &gmail.MessagePartBody{Data: b64("Aurora gets bus lanes.")},
			},
		})
	})
	mux.HandleFunc("/gmail/v1/users/me/messages/missing", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	svc, err := gmail.NewService(context.Background(), option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	src := newGmailSource(svc, GmailOptions{Label: "Newsletters", Window: 24 * time.Hour})

	msgs, err := src.Fetch(context.Background(), runTime)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.True(t, strings.HasPrefix(gotQuery, "label:Newsletters after:"))
	assert.Equal(t, "Agents ship", msgs[0].Subject)
	assert.Equal(t, "<p>HTML agents.</p>", msgs[0].HTMLBody)
	assert.Equal(t, "Plain agents.", msgs[0].TextBody)
	assert.Equal(t, time.Date(2026, 2, 16, 14, 0, 0, 0, time.UTC), msgs[0].Date.UTC())

	assert.Equal(t, "Bus lanes", msgs[1].Subject)
	assert.Equal(t, "Aurora gets bus lanes.", msgs[1].TextBody)
	assert.Equal(t, runTime.Add(-time.Hour), msgs[1].Date.UTC())
}

func TestGmailQuery(t *testing.T) {
	src := newGmailSource(nil, GmailOptions{Label: "Daily Reads"})
	assert.Equal(t, "label:Daily-Reads after:1771227000 before:1771313400", src.Query(runTime))

	src = newGmailSource(nil, GmailOptions{Window: time.Hour})
	assert.Equal(t, "after:1771309800 before:1771313400", src.Query(runTime))
}

func TestExtractBodiesNested(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: base64.RawURLEncoding.EncodeToString([]byte("nested text?"))}},
					{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: b64("<b>nested</b>")}},
				},
			},
			{MimeType: "application/pdf", Body: &gmail.MessagePartBody{Data: b64("%PDF")}},
		},
	}
	html, text := extractBodies(payload)
	assert.Equal(t, "<b>nested</b>", html)
	assert.Equal(t, "nested text?", text)
}
