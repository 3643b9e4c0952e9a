package service

import (
	"context"
	"fmt"

	"github.com/ThamerD/JappTracker/internal/models"
	"github.com/ThamerD/JappTracker/pkg/logging"
)

// ActionKind classifies the outcome of one reconciliation.
type ActionKind string

const (
	ActionCreated ActionKind = "created"
	ActionUpdated ActionKind = "updated"
	ActionSkipped ActionKind = "skipped"
)

// Action describes what the reconciler did with a candidate.
type Action struct {
	Kind     ActionKind
	RecordID string

	// OldStatus and NewStatus are set for ActionUpdated.
	OldStatus models.Status
	NewStatus models.Status

	// Reason is set for ActionSkipped.
	Reason string
}

// Reconciler matches a candidate against the record store by natural key and
// decides create vs update vs skip. Status comparison is plain equality: any
// change, including an apparently backward one, triggers an update because
// the most recently observed email is trusted over record history.
type Reconciler struct {
	store RecordStore
	log   *logging.Logger
}

func NewReconciler(store RecordStore, log *logging.Logger) *Reconciler {
	return &Reconciler{store: store, log: log}
}

func (r *Reconciler) Reconcile(ctx context.Context, app *models.JobApplication) (Action, error) {
	rec, err := r.store.Find(ctx, app.Role, app.Organization)
	if err != nil {
		return Action{}, fmt.Errorf("find record: %w", err)
	}

	// The store's filter semantics may be looser than ours; only a full
	// normalized natural-key match counts as the same application.
	if rec != nil && !models.SameKey(rec.Role, rec.Organization, app.Role, app.Organization) {
		r.log.Warn("store returned a record with a different natural key, treating as no match",
			"record_id", rec.ID, "record_role", rec.Role, "record_org", rec.Organization)
		rec = nil
	}

	if rec == nil {
		id, err := r.store.Create(ctx, *app)
		if err != nil {
			return Action{}, fmt.Errorf("create record: %w", err)
		}
		return Action{Kind: ActionCreated, RecordID: id}, nil
	}

	if rec.Status == app.Status {
		return r.skipWithRefresh(ctx, rec, app)
	}

	patch := models.RecordPatch{
		Status: &app.Status,
		Date:   &app.Date,
	}
	// Notes and the link follow the same rule as the skip path: filled in
	// when the record lacks them, never overwritten.
	if rec.JobDescriptionLink == "" && app.JobDescriptionLink != "" {
		patch.JobDescriptionLink = &app.JobDescriptionLink
	}
	if rec.Notes == "" && app.Notes != "" {
		patch.Notes = &app.Notes
	}
	if err := r.store.Update(ctx, rec.ID, patch); err != nil {
		return Action{}, fmt.Errorf("update record: %w", err)
	}

	return Action{
		Kind:      ActionUpdated,
		RecordID:  rec.ID,
		OldStatus: rec.Status,
		NewStatus: app.Status,
	}, nil
}

// skipWithRefresh reports a duplicate without rewriting status or date, but
// fills in notes and the job description link if the record lacks them and
// the new email supplied them.
func (r *Reconciler) skipWithRefresh(ctx context.Context, rec *models.Record, app *models.JobApplication) (Action, error) {
	var patch models.RecordPatch
	if rec.JobDescriptionLink == "" && app.JobDescriptionLink != "" {
		patch.JobDescriptionLink = &app.JobDescriptionLink
	}
	if rec.Notes == "" && app.Notes != "" {
		patch.Notes = &app.Notes
	}

	if patch.JobDescriptionLink != nil || patch.Notes != nil {
		if err := r.store.Update(ctx, rec.ID, patch); err != nil {
			return Action{}, fmt.Errorf("refresh record: %w", err)
		}
	}

	return Action{
		Kind:     ActionSkipped,
		RecordID: rec.ID,
		Reason:   "status unchanged",
	}, nil
}
