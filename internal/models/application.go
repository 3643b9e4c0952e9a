package models

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a job application. The set is closed:
// anything an email signals beyond these three collapses to StatusApplied.
type Status string

const (
	StatusApplied   Status = "Applied"
	StatusInterview Status = "Interview"
	StatusRejected  Status = "Rejected"
)

// ParseStatus normalizes an LLM-provided status string. Unknown or empty
// values default to Applied.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "interview":
		return StatusInterview
	case "rejected":
		return StatusRejected
	default:
		return StatusApplied
	}
}

// IsValid reports whether s is one of the three known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusApplied, StatusInterview, StatusRejected:
		return true
	}
	return false
}

// JobApplication is the candidate record extracted from a single email.
// It lives only for the duration of one message's processing.
type JobApplication struct {
	Role               string
	Organization       string
	JobDescriptionLink string
	Status             Status
	Date               time.Time
	Notes              string

	// EmailSubject is provenance for logging; it is never persisted.
	EmailSubject string
}

// Record is the persisted counterpart of a JobApplication, owned by the
// record store. ID is the store's page identifier; Number is the sequential
// human-facing index assigned at creation and immutable afterwards.
type Record struct {
	ID                 string
	Number             int
	Role               string
	Organization       string
	JobDescriptionLink string
	Status             Status
	Date               time.Time
	Notes              string
}

// RecordPatch is a partial update applied to an existing record. Nil fields
// are left untouched by the store.
type RecordPatch struct {
	Status             *Status
	Date               *time.Time
	JobDescriptionLink *string
	Notes              *string
}

// NormalizeKey canonicalizes one half of the natural key: lower-cased, with
// runs of whitespace collapsed to single spaces.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// SameKey reports whether two (role, organization) pairs denote the same
// application. Both halves must match; a role-only or organization-only match
// must never merge records.
func SameKey(role1, org1, role2, org2 string) bool {
	return NormalizeKey(role1) == NormalizeKey(role2) &&
		NormalizeKey(org1) == NormalizeKey(org2)
}
