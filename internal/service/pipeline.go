package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ThamerD/JappTracker/pkg/logging"
)

// RunSummary aggregates per-message outcomes for one pipeline run.
type RunSummary struct {
	Processed int
	Created   int
	Updated   int
	Skipped   int
	Failed    int
}

// Pipeline drives the per-message loop: fetch, extract, reconcile, mark read.
// Messages are handled strictly in fetch order, one at a time; a message is
// marked read only after its handling reached a terminal outcome, so anything
// unread is retried on the next run.
type Pipeline struct {
	mail       MailClient
	extractor  *Extractor
	reconciler *Reconciler
	log        *logging.Logger
}

func NewPipeline(mail MailClient, extractor *Extractor, reconciler *Reconciler, log *logging.Logger) *Pipeline {
	return &Pipeline{
		mail:       mail,
		extractor:  extractor,
		reconciler: reconciler,
		log:        log,
	}
}

// Run processes up to max unread messages. Per-message failures are isolated;
// only configuration-level errors (schema mismatch) abort the batch.
func (p *Pipeline) Run(ctx context.Context, max int) (RunSummary, error) {
	var summary RunSummary

	log := p.log.With("run_id", uuid.NewString())

	msgs, err := p.mail.FetchUnread(ctx, max)
	if err != nil {
		return summary, fmt.Errorf("fetch unread messages: %w", err)
	}
	if len(msgs) == 0 {
		log.Info("no unread messages")
		return summary, nil
	}

	log.Info("processing unread messages", "count", len(msgs))

	for _, msg := range msgs {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		summary.Processed++
		mlog := log.With("message_id", msg.ID, "subject", msg.Subject)

		app, err := p.extractor.Extract(ctx, msg)
		switch {
		case errors.Is(err, ErrNotJobRelated):
			p.markRead(ctx, mlog, msg.ID)
			summary.Skipped++
			continue
		case errors.Is(err, ErrExtractionIncomplete):
			// A retry would extract the same thing, so consume the message.
			mlog.Warn("skipping message with incomplete extraction", "err", err)
			p.markRead(ctx, mlog, msg.ID)
			summary.Skipped++
			continue
		case err != nil:
			mlog.Error("extraction failed, leaving message unread", "err", err)
			summary.Failed++
			continue
		}

		mlog.Info("extracted job application",
			"role", app.Role, "organization", app.Organization, "status", app.Status)

		action, err := p.reconciler.Reconcile(ctx, app)
		if err != nil {
			if errors.Is(err, ErrSchemaMismatch) {
				return summary, fmt.Errorf("reconcile: %w", err)
			}
			mlog.Error("reconciliation failed, leaving message unread", "err", err)
			summary.Failed++
			continue
		}

		p.markRead(ctx, mlog, msg.ID)

		switch action.Kind {
		case ActionCreated:
			mlog.Info("created record", "record_id", action.RecordID)
			summary.Created++
		case ActionUpdated:
			mlog.Info("updated record", "record_id", action.RecordID,
				"old_status", action.OldStatus, "new_status", action.NewStatus)
			summary.Updated++
		case ActionSkipped:
			mlog.Info("skipped duplicate record", "record_id", action.RecordID,
				"reason", action.Reason)
			summary.Skipped++
		}
	}

	log.Info("run complete",
		"processed", summary.Processed, "created", summary.Created,
		"updated", summary.Updated, "skipped", summary.Skipped,
		"failed", summary.Failed)

	return summary, nil
}

// markRead is best effort: if it fails the message stays unread and is simply
// reprocessed next run, which reconciliation handles idempotently.
func (p *Pipeline) markRead(ctx context.Context, log *logging.Logger, id string) {
	if err := p.mail.MarkRead(ctx, id); err != nil {
		log.Warn("failed to mark message read", "err", err)
	}
}
