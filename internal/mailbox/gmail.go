package mailbox

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/mail"
	"os"
	"strings"
	"time"

	"noctua/internal/core"
	"noctua/internal/logger"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailOptions configures the Gmail source.
type GmailOptions struct {
	CredentialsFile string        // OAuth client credentials JSON
	TokenFile       string        // Authorized user token JSON
	Label           string        // Only messages carrying this label
	Window          time.Duration // How far back from the run time to look
	MaxMessages     int64         // Zero means no limit
}

// GmailSource lists labelled newsletter messages through the Gmail API.
type GmailSource struct {
	svc  *gmail.Service
	opts GmailOptions
}

// NewGmailSource authenticates with the configured credentials and token.
// Extra client options are passed to the Gmail service.
func NewGmailSource(ctx context.Context, opts GmailOptions, clientOpts ...option.ClientOption) (*GmailSource, error) {
	if opts.CredentialsFile == "" || opts.TokenFile == "" {
		return nil, fmt.Errorf("%w: gmail credentials or token file not set", ErrNotConfigured)
	}

	creds, err := os.ReadFile(opts.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read gmail credentials: %v", ErrNotConfigured, err)
	}
	oauthCfg, err := google.ConfigFromJSON(creds, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse gmail credentials: %w", err)
	}

	tokenData, err := os.ReadFile(opts.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read gmail token: %v", ErrNotConfigured, err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(tokenData, &token); err != nil {
		return nil, fmt.Errorf("failed to parse gmail token: %w", err)
	}

	clientOpts = append([]option.ClientOption{option.WithTokenSource(oauthCfg.TokenSource(ctx, &token))}, clientOpts...)
	svc, err := gmail.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	return newGmailSource(svc, opts), nil
}

func newGmailSource(svc *gmail.Service, opts GmailOptions) *GmailSource {
	if opts.Window <= 0 {
		opts.Window = 24 * time.Hour
	}
	return &GmailSource{svc: svc, opts: opts}
}

// Name identifies the source in logs.
func (g *GmailSource) Name() string {
	return "gmail:" + g.opts.Label
}

// Query is the Gmail search for the window ending at now.
func (g *GmailSource) Query(now time.Time) string {
	q := fmt.Sprintf("after:%d before:%d", now.Add(-g.opts.Window).Unix(), now.Unix())
	if g.opts.Label != "" {
		q = fmt.Sprintf("label:%s %s", strings.ReplaceAll(g.opts.Label, " ", "-"), q)
	}
	return q
}

// Fetch lists and downloads the messages in the window. Messages that fail to
// download are logged and skipped.
func (g *GmailSource) Fetch(ctx context.Context, now time.Time) ([]core.RawMessage, error) {
	query := g.Query(now)
	logger.Info("Querying Gmail", "query", query)

	var messages []core.RawMessage
	pageToken := ""
	for {
		call := g.svc.Users.Messages.List("me").Q(query).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list gmail messages: %w", err)
		}

		for _, ref := range resp.Messages {
			if g.opts.MaxMessages > 0 && int64(len(messages)) >= g.opts.MaxMessages {
				logger.Warn("Gmail message limit reached", "limit", g.opts.MaxMessages)
				return messages, nil
			}

			msg, err := g.svc.Users.Messages.Get("me", ref.Id).Format("full").Context(ctx).Do()
			if err != nil {
				logger.Error("Failed to fetch gmail message", err, "id", ref.Id)
				continue
			}
			messages = append(messages, toRawMessage(msg, now))
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	logger.Info("Fetched emails", "count", len(messages))
	return messages, nil
}

func toRawMessage(msg *gmail.Message, now time.Time) core.RawMessage {
	raw := core.RawMessage{Date: now}
	if msg.Payload == nil {
		return raw
	}

	raw.Subject = header(msg.Payload.Headers, "Subject")
	raw.Sender = header(msg.Payload.Headers, "From")
	if d, err := mail.ParseDate(header(msg.Payload.Headers, "Date")); err == nil {
		raw.Date = d
	} else if msg.InternalDate > 0 {
		raw.Date = time.UnixMilli(msg.InternalDate)
	}
	raw.HTMLBody, raw.TextBody = extractBodies(msg.Payload)
	return raw
}

func header(headers []*gmail.MessagePartHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// extractBodies walks a payload for its text/html and text/plain bodies.
// Later parts win, so the deepest alternative of a nested multipart is used.
func extractBodies(part *gmail.MessagePart) (htmlBody, textBody string) {
	var walk func(p *gmail.MessagePart)
	walk = func(p *gmail.MessagePart) {
		if p == nil {
			return
		}
		if p.Body != nil && p.Body.Data != "" {
			data := decodeBody(p.Body.Data)
			switch p.MimeType {
			case "text/html":
				htmlBody = data
			case "text/plain":
				textBody = data
			default:
				// A single-part message of some other type is treated as text.
				if p == part {
					textBody = data
				}
			}
		}
		for _, child := range p.Parts {
			walk(child)
		}
	}
	walk(part)
	return htmlBody, textBody
}

func decodeBody(data string) string {
	b, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		b, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
		if err != nil {
			return ""
		}
	}
	return strings.ToValidUTF8(string(b), "�")
}
