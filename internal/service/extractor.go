package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ThamerD/JappTracker/internal/models"
	"github.com/ThamerD/JappTracker/pkg/logging"
)

// ClassifyThreshold is the minimum classifier confidence for an email to be
// treated as job related.
const ClassifyThreshold = 0.7

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// Extractor turns one email into a candidate JobApplication, or reports that
// the email is not job related. It only talks to the NLU backend; it never
// touches the mail transport or the record store.
type Extractor struct {
	nlu Analyzer
	log *logging.Logger
}

func NewExtractor(nlu Analyzer, log *logging.Logger) *Extractor {
	return &Extractor{nlu: nlu, log: log}
}

// Extract classifies the message, extracts the field set on a positive, and
// normalizes the result. Returns ErrNotJobRelated for negatives and
// ErrExtractionIncomplete when role or organization cannot be recovered.
func (e *Extractor) Extract(ctx context.Context, msg EmailMessage) (*models.JobApplication, error) {
	cls, err := e.nlu.Classify(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	if !cls.JobRelated || cls.Confidence < ClassifyThreshold {
		e.log.Debug("classified as not job related",
			"message_id", msg.ID, "confidence", cls.Confidence)
		return nil, ErrNotJobRelated
	}

	raw, err := e.nlu.Extract(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("extract fields: %w", err)
	}

	// Role and organization are space-canonical (internal runs collapsed,
	// case preserved) so the store's exact-match lookup agrees with the
	// normalized natural-key comparison.
	app := &models.JobApplication{
		Role:         collapseSpace(raw.Role),
		Organization: collapseSpace(raw.Organization),
		Status:       models.ParseStatus(raw.Status),
		Date:         parseApplicationDate(raw.Date, msg.ReceivedAt),
		Notes:        strings.TrimSpace(raw.Notes),
		EmailSubject: msg.Subject,
	}

	if link := strings.TrimSpace(raw.JobDescriptionLink); link != "" {
		if validLink(link) {
			app.JobDescriptionLink = link
		} else {
			e.log.Debug("dropping malformed job description link",
				"message_id", msg.ID, "link", link)
		}
	}

	if app.Role == "" || app.Organization == "" {
		return nil, fmt.Errorf("%w: role=%q organization=%q",
			ErrExtractionIncomplete, app.Role, app.Organization)
	}

	return app, nil
}

// parseApplicationDate parses the model-provided date, trying the ISO layout
// the prompt asks for first and a few loose layouts after. Falls back to the
// message's received time.
func parseApplicationDate(s string, received time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s != "" && !strings.EqualFold(s, "null") {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
	}
	return received
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func validLink(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
