// Package gmail implements the service.MailClient interface on the Gmail
// API. Authentication uses an installed-app OAuth client: the client secrets
// come from a credentials file and the user token from a token file, which is
// rewritten whenever the access token is refreshed. Running the interactive
// consent flow to mint the initial token is out of scope here.
package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/mail"
	"os"
	"regexp"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/ThamerD/JappTracker/internal/service"
)

const unreadQuery = "is:unread in:inbox"

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

type Client struct {
	svc *gmailapi.Service
}

// NewClient builds an authenticated Gmail client. The token file must already
// exist; it is kept up to date as tokens are refreshed.
func NewClient(ctx context.Context, credentialsFile, tokenFile string) (*Client, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	cfg, err := google.ConfigFromJSON(b, gmailapi.GmailModifyScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials file: %w", err)
	}

	tok, err := loadToken(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("load token file (run the OAuth consent flow to create it): %w", err)
	}

	src := &savingTokenSource{
		path: tokenFile,
		src:  cfg.TokenSource(ctx, tok),
		last: tok,
	}

	svc, err := gmailapi.NewService(ctx, option.WithTokenSource(src))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}

	return &Client{svc: svc}, nil
}

// FetchUnread lists up to max unread inbox messages and fetches each in full,
// preserving the order the API returned them in.
func (c *Client) FetchUnread(ctx context.Context, max int) ([]service.EmailMessage, error) {
	listResp, err := c.svc.Users.Messages.List("me").
		Q(unreadQuery).
		MaxResults(int64(max)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list unread messages: %w", err)
	}

	messages := make([]service.EmailMessage, 0, len(listResp.Messages))
	for _, ref := range listResp.Messages {
		full, err := c.svc.Users.Messages.Get("me", ref.Id).
			Format("full").
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("get message %s: %w", ref.Id, err)
		}
		messages = append(messages, parseMessage(full))
	}

	return messages, nil
}

// MarkRead removes the UNREAD label from a message.
func (c *Client) MarkRead(ctx context.Context, messageID string) error {
	_, err := c.svc.Users.Messages.Modify("me", messageID, &gmailapi.ModifyMessageRequest{
		RemoveLabelIds: []string{"UNREAD"},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("mark message %s read: %w", messageID, err)
	}
	return nil
}

// parseMessage flattens a Gmail message into the pipeline's EmailMessage.
func parseMessage(msg *gmailapi.Message) service.EmailMessage {
	out := service.EmailMessage{
		ID:      msg.Id,
		Snippet: msg.Snippet,
	}

	var dateHeader string
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch h.Name {
			case "Subject":
				out.Subject = h.Value
			case "From":
				out.From = h.Value
			case "Date":
				dateHeader = h.Value
			}
		}
		out.BodyText = extractBody(msg.Payload)
	}

	// internalDate is the provider's receive timestamp in epoch millis; the
	// Date header is only a fallback.
	if msg.InternalDate > 0 {
		out.ReceivedAt = time.UnixMilli(msg.InternalDate)
	} else if dateHeader != "" {
		if t, err := mail.ParseDate(dateHeader); err == nil {
			out.ReceivedAt = t
		}
	}

	return out
}

// extractBody walks the MIME tree preferring text/plain; a tag-stripped
// text/html part is used only when no plain part exists.
func extractBody(payload *gmailapi.MessagePart) string {
	var plain, html string
	collectBodies(payload, &plain, &html)

	if plain != "" {
		return plain
	}
	return htmlTagRe.ReplaceAllString(html, "")
}

func collectBodies(part *gmailapi.MessagePart, plain, html *string) {
	if part == nil {
		return
	}

	if part.Body != nil && part.Body.Data != "" {
		data, err := decodeBody(part.Body.Data)
		if err == nil {
			switch part.MimeType {
			case "text/plain":
				if *plain == "" {
					*plain = data
				}
			case "text/html":
				if *html == "" {
					*html = data
				}
			}
		}
	}

	for _, child := range part.Parts {
		collectBodies(child, plain, html)
	}
}

// decodeBody handles both padded and unpadded url-safe base64; Gmail emits
// the unpadded form.
func decodeBody(data string) (string, error) {
	if b, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(b), nil
	}
	b, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func loadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return tok, nil
}

// savingTokenSource persists refreshed tokens back to the token file so the
// next run keeps working without a new consent flow.
type savingTokenSource struct {
	path string
	src  oauth2.TokenSource

	mu   sync.Mutex
	last *oauth2.Token
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil || tok.AccessToken != s.last.AccessToken {
		s.last = tok
		if err := saveToken(s.path, tok); err != nil {
			// Refresh still succeeded; the stale file only costs a refresh
			// round trip next run.
			return tok, nil
		}
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}
