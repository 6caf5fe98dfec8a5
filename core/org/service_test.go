package org

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osdops/sdutrack/core"
	emailsvc "github.com/osdops/sdutrack/services/email"
)

// fakeRepo is an in-memory Repository with injectable read failures.
type fakeRepo struct {
	orgs map[string]Organization
	reqs map[string]Requirement
	accs map[string]Accreditation

	failQueryReqs bool
	failGetAcc    bool
}

var _ Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orgs: make(map[string]Organization),
		reqs: make(map[string]Requirement),
		accs: make(map[string]Accreditation),
	}
}

func (r *fakeRepo) CreateOrganization(_ context.Context, o Organization, _ ...core.DBExecutor) (Organization, error) {
	r.orgs[o.ID] = o
	return o, nil
}

func (r *fakeRepo) GetOrganization(_ context.Context, id string, _ ...core.DBExecutor) (Organization, error) {
	if o, ok := r.orgs[id]; ok {
		return o, nil
	}
	return Organization{}, ErrNotFound
}

func (r *fakeRepo) QueryAllOrganizations(_ context.Context, _ ...core.DBExecutor) ([]Organization, error) {
	orgs := make([]Organization, 0, len(r.orgs))
	for _, o := range r.orgs {
		orgs = append(orgs, o)
	}
	return orgs, nil
}

func (r *fakeRepo) UpdateOrganization(_ context.Context, o Organization, _ ...core.DBExecutor) (Organization, error) {
	if _, ok := r.orgs[o.ID]; !ok {
		return Organization{}, ErrNotFound
	}
	r.orgs[o.ID] = o
	return o, nil
}

func (r *fakeRepo) CreateRequirement(_ context.Context, req Requirement, _ ...core.DBExecutor) (Requirement, error) {
	r.reqs[req.ID] = req
	return req, nil
}

func (r *fakeRepo) GetRequirement(_ context.Context, id string, _ ...core.DBExecutor) (Requirement, error) {
	if req, ok := r.reqs[id]; ok {
		return req, nil
	}
	return Requirement{}, ErrNotFound
}

func (r *fakeRepo) QueryRequirements(_ context.Context, orgID string, _ ...core.DBExecutor) ([]Requirement, error) {
	if r.failQueryReqs {
		return nil, errors.New("connection reset")
	}
	reqs := make([]Requirement, 0)
	for _, req := range r.reqs {
		if req.OrgID == orgID {
			reqs = append(reqs, req)
		}
	}
	return reqs, nil
}

func (r *fakeRepo) UpdateRequirement(_ context.Context, req Requirement, _ ...core.DBExecutor) (Requirement, error) {
	if _, ok := r.reqs[req.ID]; !ok {
		return Requirement{}, ErrNotFound
	}
	r.reqs[req.ID] = req
	return req, nil
}

func (r *fakeRepo) GetAccreditation(_ context.Context, orgID string, _ ...core.DBExecutor) (Accreditation, error) {
	if r.failGetAcc {
		return Accreditation{}, errors.New("connection reset")
	}
	if a, ok := r.accs[orgID]; ok {
		return a, nil
	}
	return Accreditation{}, ErrNotFound
}

func (r *fakeRepo) UpdateAccreditation(_ context.Context, a Accreditation, _ ...core.DBExecutor) (Accreditation, error) {
	r.accs[a.OrgID] = a
	return a, nil
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) Fatal(string, ...interface{}) {}

func newTestConfig() *core.Config {
	conf := &core.Config{
		AppName:         "SDUTrack",
		TestMode:        true,
		WorkDir:         core.Getwd(),
		FrontendBaseURL: "http://localhost:3000",
	}
	core.ParseEmailTemplates(conf, noopLogger{})
	return conf
}

func setup(t *testing.T) (Service, *fakeRepo) {
	t.Helper()
	emailsvc.ClearSentMessages()
	conf := newTestConfig()
	repo := newFakeRepo()
	return NewService(nil, repo, emailsvc.NewConsoleServiceMock(conf), conf), repo
}

func register(t *testing.T, svc Service) Organization {
	t.Helper()
	o, err := svc.Register(context.Background(), NewOrganization{
		Name:    "Circulo Mathematica",
		Acronym: "CM",
		Email:   "cm@test.edu.ph",
	})
	require.NoError(t, err)
	return o
}

func TestService_Register_seedsRequirements(t *testing.T) {
	svc, _ := setup(t)
	o := register(t, svc)

	reqs, err := svc.QueryRequirements(context.Background(), o.ID)
	require.NoError(t, err)
	require.Len(t, reqs, 3+len(DefaultAccreditationDocs))

	kinds := make(map[RequirementKind]int)
	for _, r := range reqs {
		assert.Equal(t, StatusPending, r.Status)
		assert.Equal(t, o.ID, r.OrgID)
		kinds[r.Kind]++
	}
	assert.Equal(t, 1, kinds[KindPresidentProfile])
	assert.Equal(t, 1, kinds[KindRoster])
	assert.Equal(t, 1, kinds[KindFinancialReport])
	assert.Equal(t, len(DefaultAccreditationDocs), kinds[KindDocument])

	acc, err := svc.GetAccreditation(context.Background(), o.ID)
	require.NoError(t, err)
	assert.False(t, acc.IsEverythingApproved)
}

func TestService_TransitionStatus_validation(t *testing.T) {
	svc, _ := setup(t)
	o := register(t, svc)
	reqs, err := svc.QueryRequirements(context.Background(), o.ID)
	require.NoError(t, err)

	_, err = svc.TransitionStatus(context.Background(), TransitionInput{
		RequirementID: reqs[0].ID,
		NewStatus:     "archived",
	})
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr), "want a validation error, got %v", err)

	// rejected is display-only, never a transition target
	_, err = svc.TransitionStatus(context.Background(), TransitionInput{
		RequirementID: reqs[0].ID,
		NewStatus:     StatusRejected,
	})
	require.True(t, errors.As(err, &vErr), "want a validation error, got %v", err)

	_, err = svc.TransitionStatus(context.Background(), TransitionInput{
		RequirementID: "nope",
		NewStatus:     StatusApproved,
	})
	assert.Equal(t, ErrNotFound, errors.Cause(err))
}

func TestService_TransitionStatus_notesAndLogs(t *testing.T) {
	svc, _ := setup(t)
	o := register(t, svc)
	reqs, err := svc.QueryRequirements(context.Background(), o.ID)
	require.NoError(t, err)

	req, err := svc.TransitionStatus(context.Background(), TransitionInput{
		RequirementID: reqs[0].ID,
		NewStatus:     StatusRevisionRequested,
		Actor:         "jdoe",
		Role:          "SDU Officer",
		RevisionNotes: "  Please attach the signed copy.  ",
	})
	require.NoError(t, err)

	// notes are stored verbatim (trimmed), never concatenated
	assert.Equal(t, "Please attach the signed copy.", req.RevisionNotes)
	require.Len(t, req.Logs, 1)
	assert.True(t, strings.HasSuffix(req.Logs[0], "Updated by jdoe (SDU Officer) → Status: revision_requested"), req.Logs[0])

	// re-approval keeps the notes; history lives in the logs
	req, err = svc.TransitionStatus(context.Background(), TransitionInput{
		RequirementID: req.ID,
		NewStatus:     StatusApproved,
		Actor:         "jdoe",
		Role:          "SDU Officer",
	})
	require.NoError(t, err)
	assert.Equal(t, "Please attach the signed copy.", req.RevisionNotes)
	require.Len(t, req.Logs, 2)
}

func TestService_accreditationAggregation(t *testing.T) {
	svc, _ := setup(t)
	o := register(t, svc)
	reqs, err := svc.QueryRequirements(context.Background(), o.ID)
	require.NoError(t, err)

	// approve all but the last one
	for _, r := range reqs[:len(reqs)-1] {
		_, err = svc.TransitionStatus(context.Background(), TransitionInput{
			RequirementID: r.ID,
			NewStatus:     StatusApproved,
			Actor:         "jdoe",
			Role:          "SDU Officer",
		})
		require.NoError(t, err)
	}
	acc, err := svc.GetAccreditation(context.Background(), o.ID)
	require.NoError(t, err)
	assert.False(t, acc.IsEverythingApproved)
	assert.Empty(t, emailsvc.SentMessages)

	// approving the last one flips the aggregate and notifies once
	last := reqs[len(reqs)-1]
	_, err = svc.TransitionStatus(context.Background(), TransitionInput{
		RequirementID: last.ID,
		NewStatus:     StatusApproved,
		Actor:         "jdoe",
		Role:          "SDU Officer",
	})
	require.NoError(t, err)

	acc, err = svc.GetAccreditation(context.Background(), o.ID)
	require.NoError(t, err)
	assert.True(t, acc.IsEverythingApproved)
	require.Len(t, emailsvc.SentMessages, 1)
	assert.Equal(t, "Accreditation Complete", emailsvc.SentMessages[0].Subject)

	// redundant recompute is a no-op; the notification fires at most once
	acc, err = svc.RecomputeAccreditationStatus(context.Background(), o.ID)
	require.NoError(t, err)
	assert.True(t, acc.IsEverythingApproved)
	assert.Len(t, emailsvc.SentMessages, 1)

	// a revision request drops the aggregate and mails the organization
	_, err = svc.TransitionStatus(context.Background(), TransitionInput{
		RequirementID: last.ID,
		NewStatus:     StatusRevisionRequested,
		Actor:         "jdoe",
		Role:          "SDU Officer",
		RevisionNotes: "Outdated roster.",
	})
	require.NoError(t, err)
	acc, err = svc.GetAccreditation(context.Background(), o.ID)
	require.NoError(t, err)
	assert.False(t, acc.IsEverythingApproved)
	require.Len(t, emailsvc.SentMessages, 2)
	assert.Contains(t, emailsvc.SentMessages[1].Subject, "Revision Requested")

	// re-approving flips it back but never re-notifies completion
	_, err = svc.TransitionStatus(context.Background(), TransitionInput{
		RequirementID: last.ID,
		NewStatus:     StatusApproved,
		Actor:         "jdoe",
		Role:          "SDU Officer",
	})
	require.NoError(t, err)
	acc, err = svc.GetAccreditation(context.Background(), o.ID)
	require.NoError(t, err)
	assert.True(t, acc.IsEverythingApproved)
	assert.Len(t, emailsvc.SentMessages, 2)
}

func TestService_recompute_readFailureLeavesAggregateUntouched(t *testing.T) {
	svc, repo := setup(t)
	o := register(t, svc)

	before, err := svc.GetAccreditation(context.Background(), o.ID)
	require.NoError(t, err)

	repo.failQueryReqs = true
	_, err = svc.RecomputeAccreditationStatus(context.Background(), o.ID)
	require.Error(t, err)
	assert.True(t, core.IsAggregationError(err), "want an aggregation error, got %v", err)
	repo.failQueryReqs = false

	after, err := svc.GetAccreditation(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestService_Deactivate(t *testing.T) {
	svc, _ := setup(t)
	o := register(t, svc)

	o, err := svc.Deactivate(context.Background(), o.ID)
	require.NoError(t, err)
	assert.False(t, o.IsActive)

	_, err = svc.Deactivate(context.Background(), "nope")
	assert.Equal(t, ErrNotFound, errors.Cause(err))
}
