package org

import (
	"context"
	"database/sql"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/osdops/sdutrack/core"
)

var (
	// errors
	ErrNotFound          = errors.New("record not found")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidTransition = errors.New("status transition not allowed")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateOrganization(ctx context.Context, o Organization, exec ...core.DBExecutor) (Organization, error)
		GetOrganization(ctx context.Context, id string, exec ...core.DBExecutor) (Organization, error)
		QueryAllOrganizations(ctx context.Context, exec ...core.DBExecutor) ([]Organization, error)
		UpdateOrganization(ctx context.Context, o Organization, exec ...core.DBExecutor) (Organization, error)

		CreateRequirement(ctx context.Context, r Requirement, exec ...core.DBExecutor) (Requirement, error)
		GetRequirement(ctx context.Context, id string, exec ...core.DBExecutor) (Requirement, error)
		// QueryRequirements returns all tracked sub-requirements of an organization.
		QueryRequirements(ctx context.Context, orgID string, exec ...core.DBExecutor) ([]Requirement, error)
		UpdateRequirement(ctx context.Context, r Requirement, exec ...core.DBExecutor) (Requirement, error)

		GetAccreditation(ctx context.Context, orgID string, exec ...core.DBExecutor) (Accreditation, error)
		UpdateAccreditation(ctx context.Context, a Accreditation, exec ...core.DBExecutor) (Accreditation, error)
	}

	Service interface {
		Register(ctx context.Context, no NewOrganization) (Organization, error)
		GetOrganization(ctx context.Context, id string) (Organization, error)
		QueryAllOrganizations(ctx context.Context) ([]Organization, error)
		Deactivate(ctx context.Context, id string) (Organization, error)

		GetRequirement(ctx context.Context, id string) (Requirement, error)
		QueryRequirements(ctx context.Context, orgID string) ([]Requirement, error)
		TransitionStatus(ctx context.Context, in TransitionInput) (Requirement, error)

		GetAccreditation(ctx context.Context, orgID string) (Accreditation, error)
		RecomputeAccreditationStatus(ctx context.Context, orgID string) (Accreditation, error)
	}

	TransitionInput struct {
		RequirementID string `json:"requirement_id"`
		NewStatus     Status `json:"new_status"`
		Actor         string `json:"actor"`
		Role          string `json:"role"`
		RevisionNotes string `json:"revision_notes"`
	}

	service struct {
		db      core.DB
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, mailSvc core.EmailService, conf *core.Config) Service {
	return &service{
		db:      db,
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

func (svc *service) Register(ctx context.Context, no NewOrganization) (Organization, error) {
	now := nowFunc().UTC()
	o := Organization{
		ID:        uuid.New().String(),
		Name:      core.CleanString(no.Name),
		Acronym:   core.CleanString(no.Acronym),
		Email:     core.CleanString(no.Email, true /* lower */),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	tx, execs, err := svc.begin(ctx)
	if err != nil {
		return Organization{}, err
	}
	defer rollback(tx)

	if o, err = svc.repo.CreateOrganization(ctx, o, execs...); err != nil {
		return Organization{}, errors.Wrap(err, "creating organization")
	}
	if err = svc.seedRequirements(ctx, o, execs...); err != nil {
		return Organization{}, err
	}
	if _, err = svc.repo.UpdateAccreditation(ctx, Accreditation{OrgID: o.ID, UpdatedAt: now}, execs...); err != nil {
		return Organization{}, errors.Wrap(err, "creating accreditation")
	}
	return o, commit(tx)
}

// seedRequirements creates the fixed set of tracked sub-requirements:
// president profile, member roster, financial report and the named
// accreditation documents. All start out pending.
func (svc *service) seedRequirements(ctx context.Context, o Organization, exec ...core.DBExecutor) error {
	now := nowFunc().UTC()
	reqs := []Requirement{
		{Kind: KindPresidentProfile, Name: "President Profile"},
		{Kind: KindRoster, Name: "Member Roster"},
		{Kind: KindFinancialReport, Name: "Financial Report"},
	}
	for _, doc := range DefaultAccreditationDocs {
		reqs = append(reqs, Requirement{Kind: KindDocument, Name: doc})
	}
	for _, r := range reqs {
		r.ID = uuid.New().String()
		r.OrgID = o.ID
		r.Status = StatusPending
		r.CreatedAt = now
		r.UpdatedAt = now
		if _, err := svc.repo.CreateRequirement(ctx, r, exec...); err != nil {
			return errors.Wrapf(err, "seeding requirement %q", r.Name)
		}
	}
	return nil
}

func (svc *service) GetOrganization(ctx context.Context, id string) (Organization, error) {
	return svc.repo.GetOrganization(ctx, id)
}

func (svc *service) QueryAllOrganizations(ctx context.Context) ([]Organization, error) {
	return svc.repo.QueryAllOrganizations(ctx)
}

// Deactivate retires an organization. Organizations are never deleted.
func (svc *service) Deactivate(ctx context.Context, id string) (Organization, error) {
	o, err := svc.repo.GetOrganization(ctx, id)
	if err != nil {
		return Organization{}, err
	}
	o.IsActive = false
	o.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateOrganization(ctx, o)
}

func (svc *service) GetRequirement(ctx context.Context, id string) (Requirement, error) {
	return svc.repo.GetRequirement(ctx, id)
}

func (svc *service) QueryRequirements(ctx context.Context, orgID string) ([]Requirement, error) {
	return svc.repo.QueryRequirements(ctx, orgID)
}

// TransitionStatus moves a requirement through the review workflow,
// appends an audit-log entry and recomputes the accreditation aggregate
// in the same transaction. A revision request triggers a best-effort
// email to the organization.
func (svc *service) TransitionStatus(ctx context.Context, in TransitionInput) (Requirement, error) {
	if !in.NewStatus.Valid() {
		return Requirement{}, core.NewValidationError(ErrInvalidStatus,
			core.FieldError{Field: "new_status", Error: ErrInvalidStatus.Error()})
	}

	req, err := svc.repo.GetRequirement(ctx, in.RequirementID)
	if err != nil {
		return Requirement{}, err
	}
	if !CanTransition(req.Status, in.NewStatus) {
		return Requirement{}, core.NewValidationError(ErrInvalidTransition, core.FieldError{
			Field: "new_status",
			Error: fmt.Sprintf("cannot move from %q to %q", req.Status, in.NewStatus),
		})
	}

	now := nowFunc().UTC()
	req.Status = in.NewStatus
	if notes := core.CleanString(in.RevisionNotes); notes != "" {
		// stored verbatim, never concatenated; history is kept in Logs
		req.RevisionNotes = notes
	}
	req.Logs = append(req.Logs, NewLogEntry(now, in.Actor, in.Role, in.NewStatus))
	req.UpdatedAt = now

	tx, execs, err := svc.begin(ctx)
	if err != nil {
		return Requirement{}, err
	}
	defer rollback(tx)

	if req, err = svc.repo.UpdateRequirement(ctx, req, execs...); err != nil {
		return Requirement{}, errors.Wrap(err, "updating requirement")
	}
	_, completedNow, err := svc.recomputeAccreditation(ctx, req.OrgID, execs...)
	if err != nil {
		return Requirement{}, err
	}
	if err = commit(tx); err != nil {
		return Requirement{}, err
	}

	if completedNow {
		svc.sendAccreditationCompletedMail(ctx, req.OrgID)
	}
	if in.NewStatus == StatusRevisionRequested {
		svc.sendRevisionRequestedMail(ctx, req)
	}
	return req, nil
}

func (svc *service) GetAccreditation(ctx context.Context, orgID string) (Accreditation, error) {
	return svc.repo.GetAccreditation(ctx, orgID)
}

// RecomputeAccreditationStatus re-derives IsEverythingApproved from the
// current requirement statuses. Safe to call redundantly; the completion
// notification fires at most once per organization.
func (svc *service) RecomputeAccreditationStatus(ctx context.Context, orgID string) (Accreditation, error) {
	tx, execs, err := svc.begin(ctx)
	if err != nil {
		return Accreditation{}, err
	}
	defer rollback(tx)

	acc, completedNow, err := svc.recomputeAccreditation(ctx, orgID, execs...)
	if err != nil {
		return Accreditation{}, err
	}
	if err = commit(tx); err != nil {
		return Accreditation{}, err
	}

	if completedNow {
		svc.sendAccreditationCompletedMail(ctx, orgID)
	}
	return acc, nil
}

// recomputeAccreditation is the read-derive-write at the heart of the
// aggregate: reload all children, AND their statuses, persist. On a read
// failure the stored aggregate is left untouched.
func (svc *service) recomputeAccreditation(ctx context.Context, orgID string, exec ...core.DBExecutor) (Accreditation, bool, error) {
	reqs, err := svc.repo.QueryRequirements(ctx, orgID, exec...)
	if err != nil {
		return Accreditation{}, false, core.NewAggregationError("reloading requirements", err)
	}
	acc, err := svc.repo.GetAccreditation(ctx, orgID, exec...)
	if err != nil {
		return Accreditation{}, false, core.NewAggregationError("reloading accreditation", err)
	}

	approved := len(reqs) > 0
	for _, r := range reqs {
		if r.Status != StatusApproved {
			approved = false
			break
		}
	}

	completedNow := approved && !acc.IsEverythingApproved && !acc.CompletionNotified
	acc.IsEverythingApproved = approved
	if completedNow {
		acc.CompletionNotified = true
	}
	acc.UpdatedAt = nowFunc().UTC()

	if acc, err = svc.repo.UpdateAccreditation(ctx, acc, exec...); err != nil {
		return Accreditation{}, false, errors.Wrap(err, "updating accreditation")
	}
	return acc, completedNow, nil
}

func (svc *service) sendAccreditationCompletedMail(ctx context.Context, orgID string) {
	o, err := svc.repo.GetOrganization(ctx, orgID)
	if err != nil || o.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: o.Name, Address: o.Email}},
		Subject:      "Accreditation Complete",
		TemplateName: "accreditation_completed",
		TemplateData: o,
	})
}

func (svc *service) sendRevisionRequestedMail(ctx context.Context, req Requirement) {
	o, err := svc.repo.GetOrganization(ctx, req.OrgID)
	if err != nil || o.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: o.Name, Address: o.Email}},
		Subject:      fmt.Sprintf("Revision Requested: %s", req.Name),
		TemplateName: "revision_requested",
		TemplateData: req,
	})
}

// tx helpers; the dummy repos run without a DB.

func (svc *service) begin(ctx context.Context) (*sql.Tx, []core.DBExecutor, error) {
	if svc.db == nil {
		return nil, nil, nil
	}
	tx, err := svc.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, errors.Wrap(err, "beginning transaction")
	}
	return tx, []core.DBExecutor{tx}, nil
}

func rollback(tx *sql.Tx) {
	if tx != nil {
		_ = tx.Rollback()
	}
}

func commit(tx *sql.Tx) error {
	if tx == nil {
		return nil
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}
