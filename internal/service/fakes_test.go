package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ThamerD/JappTracker/internal/models"
)

// stubAnalyzer returns canned classification and extraction results.
type stubAnalyzer struct {
	cls    Classification
	clsErr error

	fields ExtractedFields
	extErr error

	classifyCalls int
	extractCalls  int
}

func (s *stubAnalyzer) Classify(ctx context.Context, msg EmailMessage) (Classification, error) {
	s.classifyCalls++
	return s.cls, s.clsErr
}

func (s *stubAnalyzer) Extract(ctx context.Context, msg EmailMessage) (ExtractedFields, error) {
	s.extractCalls++
	return s.fields, s.extErr
}

// fakeStore is an in-memory RecordStore with the same natural-key lookup
// semantics the Notion store provides.
type fakeStore struct {
	records []*models.Record
	nextNum int

	findErr   error
	createErr error
	updateErr error

	finds   int
	creates int
	updates int
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextNum: 1}
}

func (s *fakeStore) Find(ctx context.Context, role, organization string) (*models.Record, error) {
	s.finds++
	if s.findErr != nil {
		return nil, s.findErr
	}
	for _, r := range s.records {
		if models.SameKey(r.Role, r.Organization, role, organization) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) Create(ctx context.Context, app models.JobApplication) (string, error) {
	s.creates++
	if s.createErr != nil {
		return "", s.createErr
	}
	rec := &models.Record{
		ID:                 fmt.Sprintf("page-%d", s.nextNum),
		Number:             s.nextNum,
		Role:               app.Role,
		Organization:       app.Organization,
		JobDescriptionLink: app.JobDescriptionLink,
		Status:             app.Status,
		Date:               app.Date,
		Notes:              app.Notes,
	}
	s.nextNum++
	s.records = append(s.records, rec)
	return rec.ID, nil
}

func (s *fakeStore) Update(ctx context.Context, id string, patch models.RecordPatch) error {
	s.updates++
	if s.updateErr != nil {
		return s.updateErr
	}
	for _, r := range s.records {
		if r.ID != id {
			continue
		}
		if patch.Status != nil {
			r.Status = *patch.Status
		}
		if patch.Date != nil {
			r.Date = *patch.Date
		}
		if patch.JobDescriptionLink != nil {
			r.JobDescriptionLink = *patch.JobDescriptionLink
		}
		if patch.Notes != nil {
			r.Notes = *patch.Notes
		}
		return nil
	}
	return fmt.Errorf("record %s not found", id)
}

// exactMatchStore finds records the way Notion's equals filter does:
// end-trimmed and case-insensitive, but whitespace inside the value is
// significant. Used to verify candidates are space-canonical before they
// reach the store.
type exactMatchStore struct {
	fakeStore
}

func newExactMatchStore() *exactMatchStore {
	return &exactMatchStore{fakeStore{nextNum: 1}}
}

func (s *exactMatchStore) Find(ctx context.Context, role, organization string) (*models.Record, error) {
	s.finds++
	if s.findErr != nil {
		return nil, s.findErr
	}
	for _, r := range s.records {
		if strings.EqualFold(strings.TrimSpace(r.Role), strings.TrimSpace(role)) &&
			strings.EqualFold(strings.TrimSpace(r.Organization), strings.TrimSpace(organization)) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

// fakeMail serves a fixed message list and records which ids were marked read.
type fakeMail struct {
	msgs     []EmailMessage
	fetchErr error
	markErr  error

	read []string
}

func (m *fakeMail) FetchUnread(ctx context.Context, max int) ([]EmailMessage, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	if len(m.msgs) > max {
		return m.msgs[:max], nil
	}
	return m.msgs, nil
}

func (m *fakeMail) MarkRead(ctx context.Context, messageID string) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.read = append(m.read, messageID)
	return nil
}

func (m *fakeMail) wasRead(id string) bool {
	for _, r := range m.read {
		if r == id {
			return true
		}
	}
	return false
}
