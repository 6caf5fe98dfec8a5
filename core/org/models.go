package org

import (
	"time"
)

// Status is the review status of an accreditation sub-requirement.
type Status string

const (
	StatusPending           Status = "pending"
	StatusApproved          Status = "approved"
	StatusRevisionRequested Status = "revision_requested"

	// StatusRejected is a display status for accreditation documents;
	// it is never a transition target in the review workflow.
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRevisionRequested, StatusRejected:
		return true
	}
	return false
}

// RequirementKind identifies which sub-record of the accreditation
// aggregate a Requirement tracks.
type RequirementKind string

const (
	KindPresidentProfile RequirementKind = "president_profile"
	KindRoster           RequirementKind = "roster"
	KindFinancialReport  RequirementKind = "financial_report"
	KindDocument         RequirementKind = "document"
)

// DefaultAccreditationDocs are the named documents every organization
// must submit for accreditation, seeded at registration.
var DefaultAccreditationDocs = []string{
	"Joint Statement",
	"Constitution & By-laws",
	"Pledge Against Hazing",
	"Adviser's Acceptance Letter",
	"List of Officers",
}

type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Acronym   string    `json:"acronym"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Requirement is a single tracked sub-requirement of the accreditation
// aggregate: the president profile, the member roster, the financial
// report, or one named accreditation document.
//
// RevisionNotes is only meaningful while Status is revision_requested;
// it is not cleared on re-approval, history lives in Logs.
type Requirement struct {
	ID            string          `json:"id"`
	OrgID         string          `json:"org_id"`
	Kind          RequirementKind `json:"kind"`
	Name          string          `json:"name"` // document title for KindDocument
	Status        Status          `json:"status"`
	RevisionNotes string          `json:"revision_notes,omitempty"`
	Logs          []string        `json:"logs"` // append-only audit entries
	CreatedAt     time.Time       `json:"created_at"` // UTC
	UpdatedAt     time.Time       `json:"updated_at"` // UTC
}

// Accreditation is the per-organization aggregate over all tracked
// requirements. IsEverythingApproved is always recomputed from current
// children, never mutated directly.
type Accreditation struct {
	OrgID                string    `json:"org_id"`
	IsEverythingApproved bool      `json:"is_everything_approved"`
	CompletionNotified   bool      `json:"-"`
	UpdatedAt            time.Time `json:"updated_at"` // UTC
}

type NewOrganization struct {
	Name    string `json:"name"`
	Acronym string `json:"acronym"`
	Email   string `json:"email"`
}
