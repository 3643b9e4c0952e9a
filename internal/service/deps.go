// Package service holds the core pipeline: classification and extraction of
// job-application emails, reconciliation against the record store, and the
// per-run orchestration loop. External collaborators are consumed through the
// interfaces declared here.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/ThamerD/JappTracker/internal/models"
)

var (
	// ErrNotJobRelated is the expected negative classification outcome; the
	// message is consumed silently.
	ErrNotJobRelated = errors.New("email is not job related")

	// ErrExtractionIncomplete means role or organization was still empty
	// after normalization. The message is consumed with a logged reason,
	// since a retry would extract the same thing.
	ErrExtractionIncomplete = errors.New("extraction missing required fields")

	// ErrStoreUnavailable marks transient record-store failures. The message
	// is left unread so a future run retries it.
	ErrStoreUnavailable = errors.New("record store unavailable")

	// ErrSchemaMismatch means the record store's property names or types do
	// not match what this program writes. That is a configuration error and
	// aborts the run.
	ErrSchemaMismatch = errors.New("record store schema mismatch")
)

// EmailMessage is one unread email as handed to the pipeline. It is never
// mutated and lives for a single pipeline pass.
type EmailMessage struct {
	ID         string
	From       string
	Subject    string
	BodyText   string
	Snippet    string
	ReceivedAt time.Time
}

// MailClient is the mail transport consumed by the pipeline.
type MailClient interface {
	FetchUnread(ctx context.Context, max int) ([]EmailMessage, error)
	MarkRead(ctx context.Context, messageID string) error
}

// Classification is the NLU backend's judgement on one email.
type Classification struct {
	JobRelated bool
	Confidence float64
}

// ExtractedFields is the raw, pre-normalization field set returned by the
// NLU backend. All values are free text exactly as the model produced them.
type ExtractedFields struct {
	Role               string
	Organization       string
	JobDescriptionLink string
	Status             string
	Date               string
	Notes              string
}

// Analyzer is the natural-language backend consumed by the Extractor.
type Analyzer interface {
	Classify(ctx context.Context, msg EmailMessage) (Classification, error)
	Extract(ctx context.Context, msg EmailMessage) (ExtractedFields, error)
}

// RecordStore is the persistent record-keeping backend. Find must be a single
// lookup by natural key, not a scan. Create assigns the next sequential
// Number itself and returns the new record's identifier.
type RecordStore interface {
	Find(ctx context.Context, role, organization string) (*models.Record, error)
	Create(ctx context.Context, app models.JobApplication) (string, error)
	Update(ctx context.Context, id string, patch models.RecordPatch) error
}
