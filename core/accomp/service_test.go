package accomp

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osdops/sdutrack/core"
)

// fakeRepo is an in-memory Repository with injectable read failures.
type fakeRepo struct {
	subs map[string]SubAccomplishment
	accs map[string]Accomplishment

	failQuerySubs bool
}

var _ Repository = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		subs: make(map[string]SubAccomplishment),
		accs: make(map[string]Accomplishment),
	}
}

func (r *fakeRepo) CreateSubAccomplishment(_ context.Context, s SubAccomplishment, _ ...core.DBExecutor) (SubAccomplishment, error) {
	r.subs[s.ID] = s
	return s, nil
}

func (r *fakeRepo) GetSubAccomplishment(_ context.Context, id string, _ ...core.DBExecutor) (SubAccomplishment, error) {
	if s, ok := r.subs[id]; ok {
		return s, nil
	}
	return SubAccomplishment{}, ErrNotFound
}

func (r *fakeRepo) QuerySubAccomplishments(_ context.Context, orgID string, _ ...core.DBExecutor) ([]SubAccomplishment, error) {
	if r.failQuerySubs {
		return nil, errors.New("connection reset")
	}
	subs := make([]SubAccomplishment, 0)
	for _, s := range r.subs {
		if s.OrgID == orgID {
			subs = append(subs, s)
		}
	}
	return subs, nil
}

func (r *fakeRepo) UpdateSubAccomplishment(_ context.Context, s SubAccomplishment, _ ...core.DBExecutor) (SubAccomplishment, error) {
	if _, ok := r.subs[s.ID]; !ok {
		return SubAccomplishment{}, ErrNotFound
	}
	r.subs[s.ID] = s
	return s, nil
}

func (r *fakeRepo) GetAccomplishment(_ context.Context, orgID string, _ ...core.DBExecutor) (Accomplishment, error) {
	if a, ok := r.accs[orgID]; ok {
		return a, nil
	}
	return Accomplishment{}, ErrAggregateNotFound
}

func (r *fakeRepo) UpdateOrCreateAccomplishment(_ context.Context, a Accomplishment, _ ...core.DBExecutor) (Accomplishment, error) {
	r.accs[a.OrgID] = a
	return a, nil
}

func setup(t *testing.T) (Service, *fakeRepo) {
	t.Helper()
	repo := newFakeRepo()
	return NewService(nil, repo, &core.Config{AppName: "SDUTrack", TestMode: true}), repo
}

func submit(t *testing.T, svc Service, category Category, title string) SubAccomplishment {
	t.Helper()
	s, err := svc.Submit(context.Background(), NewSubAccomplishment{
		OrgID:    "org-1",
		Category: category,
		Title:    title,
	})
	require.NoError(t, err)
	return s
}

func TestService_Submit(t *testing.T) {
	svc, _ := setup(t)

	s := submit(t, svc, CategoryPPAs, "  Tree Planting Drive ")
	assert.Equal(t, "Tree Planting Drive", s.Title)
	assert.NotEmpty(t, s.ID)
	assert.Empty(t, s.Documents)
	assert.Zero(t, s.AwardedPoints)
	assert.Nil(t, s.Grading)

	_, err := svc.Submit(context.Background(), NewSubAccomplishment{
		OrgID:    "org-1",
		Category: Category("sports"),
	})
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr), "want a validation error, got %v", err)
}

func TestService_AttachDocument(t *testing.T) {
	svc, _ := setup(t)
	s := submit(t, svc, CategoryExternal, "Regional Congress")

	s, err := svc.AttachDocument(context.Background(), s.ID, Document{
		Label:    " Official Invitation ",
		FileName: "invitation.pdf",
	})
	require.NoError(t, err)
	require.Len(t, s.Documents, 1)
	assert.Equal(t, "Official Invitation", s.Documents[0].Label)
	assert.Equal(t, DocumentPending, s.Documents[0].Status)

	_, err = svc.AttachDocument(context.Background(), s.ID, Document{Label: "   "})
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr), "want a validation error, got %v", err)

	_, err = svc.AttachDocument(context.Background(), "nope", Document{Label: "X"})
	assert.Equal(t, ErrNotFound, errors.Cause(err))
}

func TestService_Completeness(t *testing.T) {
	svc, _ := setup(t)
	s := submit(t, svc, CategoryExternal, "Regional Congress")

	cpl, err := svc.Completeness(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Len(t, cpl.MissingRequired, 4)

	s, err = svc.AttachDocument(context.Background(), s.ID, Document{Label: "official invitation"})
	require.NoError(t, err)
	cpl, err = svc.Completeness(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Len(t, cpl.MissingRequired, 3)
}

func TestService_GradeSub(t *testing.T) {
	svc, _ := setup(t)
	s := submit(t, svc, CategoryMeetings, "General Assembly")

	s, err := svc.GradeSub(context.Background(), GradeInput{
		SubAccomplishmentID: s.ID,
		Breakdown: map[string]int{
			"Meeting Documentation":      3,
			"Participation & Engagement": 2,
		},
		Comments: "Complete minutes.",
		GradedBy: "jdoe",
	})
	require.NoError(t, err)
	require.NotNil(t, s.Grading)
	assert.Equal(t, 5, s.Grading.TotalPoints)
	assert.Equal(t, 5, s.Grading.MaxPoints)
	assert.Equal(t, GradingStatusGraded, s.Grading.Status)
	assert.Equal(t, "jdoe", s.Grading.GradedBy)
	assert.Equal(t, 5, s.AwardedPoints)

	// the grand total tracks the graded child
	acc, err := svc.GetAccomplishment(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, 5, acc.GrandTotal)

	// re-grading overwrites, never accumulates
	s, err = svc.GradeSub(context.Background(), GradeInput{
		SubAccomplishmentID: s.ID,
		Breakdown:           map[string]int{"Meeting Documentation": 2},
		GradedBy:            "jdoe",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, s.AwardedPoints)

	acc, err = svc.GetAccomplishment(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, 2, acc.GrandTotal)
}

func TestService_grandTotalSumsChildren(t *testing.T) {
	svc, _ := setup(t)
	s1 := submit(t, svc, CategoryMeetings, "General Assembly")
	s2 := submit(t, svc, CategoryInstitutional, "University Week")

	_, err := svc.GradeSub(context.Background(), GradeInput{
		SubAccomplishmentID: s1.ID,
		Breakdown:           map[string]int{"Meeting Documentation": 3, "Participation & Engagement": 2},
		GradedBy:            "jdoe",
	})
	require.NoError(t, err)
	_, err = svc.GradeSub(context.Background(), GradeInput{
		SubAccomplishmentID: s2.ID,
		Breakdown:           map[string]int{"Attendance": 4, "Level of Participation": 3},
		GradedBy:            "jdoe",
	})
	require.NoError(t, err)

	acc, err := svc.GetAccomplishment(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, 12, acc.GrandTotal)

	// redundant recompute is a no-op
	acc, err = svc.RecomputeGrandTotal(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, 12, acc.GrandTotal)
}

func TestService_recompute_readFailureLeavesAggregateUntouched(t *testing.T) {
	svc, repo := setup(t)
	s := submit(t, svc, CategoryMeetings, "General Assembly")

	_, err := svc.GradeSub(context.Background(), GradeInput{
		SubAccomplishmentID: s.ID,
		Breakdown:           map[string]int{"Meeting Documentation": 3},
		GradedBy:            "jdoe",
	})
	require.NoError(t, err)

	before, err := svc.GetAccomplishment(context.Background(), "org-1")
	require.NoError(t, err)

	repo.failQuerySubs = true
	_, err = svc.RecomputeGrandTotal(context.Background(), "org-1")
	require.Error(t, err)
	assert.True(t, core.IsAggregationError(err), "want an aggregation error, got %v", err)
	repo.failQuerySubs = false

	after, err := svc.GetAccomplishment(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestService_GetAccomplishment_missingAggregate(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.GetAccomplishment(context.Background(), "org-1")
	assert.Equal(t, ErrAggregateNotFound, errors.Cause(err))
}
