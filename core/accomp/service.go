package accomp

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/osdops/sdutrack/core"
)

var (
	// errors
	ErrNotFound          = errors.New("sub-accomplishment not found")
	ErrAggregateNotFound = errors.New("accomplishment aggregate not found")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateSubAccomplishment(ctx context.Context, s SubAccomplishment, exec ...core.DBExecutor) (SubAccomplishment, error)
		GetSubAccomplishment(ctx context.Context, id string, exec ...core.DBExecutor) (SubAccomplishment, error)
		// QuerySubAccomplishments returns all children of an organization's aggregate.
		QuerySubAccomplishments(ctx context.Context, orgID string, exec ...core.DBExecutor) ([]SubAccomplishment, error)
		UpdateSubAccomplishment(ctx context.Context, s SubAccomplishment, exec ...core.DBExecutor) (SubAccomplishment, error)

		GetAccomplishment(ctx context.Context, orgID string, exec ...core.DBExecutor) (Accomplishment, error)
		UpdateOrCreateAccomplishment(ctx context.Context, a Accomplishment, exec ...core.DBExecutor) (Accomplishment, error)
	}

	Service interface {
		Submit(ctx context.Context, ns NewSubAccomplishment) (SubAccomplishment, error)
		Get(ctx context.Context, id string) (SubAccomplishment, error)
		QueryByOrg(ctx context.Context, orgID string) ([]SubAccomplishment, error)
		AttachDocument(ctx context.Context, subID string, doc Document) (SubAccomplishment, error)

		GradeSub(ctx context.Context, in GradeInput) (SubAccomplishment, error)
		Completeness(ctx context.Context, subID string) (Completeness, error)

		GetAccomplishment(ctx context.Context, orgID string) (Accomplishment, error)
		RecomputeGrandTotal(ctx context.Context, orgID string) (Accomplishment, error)
	}

	GradeInput struct {
		SubAccomplishmentID string         `json:"sub_accomplishment_id"`
		Breakdown           map[string]int `json:"breakdown"`
		Comments            string         `json:"comments"`
		GradedBy            string         `json:"graded_by"`
	}

	service struct {
		db   core.DB
		repo Repository
		conf *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, conf *core.Config) Service {
	return &service{
		db:   db,
		repo: repo,
		conf: conf,
	}
}

func (svc *service) Submit(ctx context.Context, ns NewSubAccomplishment) (SubAccomplishment, error) {
	if !ns.Category.Valid() {
		return SubAccomplishment{}, core.NewValidationError(ErrUnknownCategory,
			core.FieldError{Field: "category", Error: ErrUnknownCategory.Error()})
	}
	now := nowFunc().UTC()
	s := SubAccomplishment{
		ID:        uuid.New().String(),
		OrgID:     ns.OrgID,
		Category:  ns.Category,
		Title:     core.CleanString(ns.Title),
		Documents: make([]Document, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateSubAccomplishment(ctx, s)
}

func (svc *service) Get(ctx context.Context, id string) (SubAccomplishment, error) {
	return svc.repo.GetSubAccomplishment(ctx, id)
}

func (svc *service) QueryByOrg(ctx context.Context, orgID string) ([]SubAccomplishment, error) {
	return svc.repo.QuerySubAccomplishments(ctx, orgID)
}

func (svc *service) AttachDocument(ctx context.Context, subID string, doc Document) (SubAccomplishment, error) {
	s, err := svc.repo.GetSubAccomplishment(ctx, subID)
	if err != nil {
		return SubAccomplishment{}, err
	}
	doc.Label = core.CleanString(doc.Label)
	if doc.Label == "" {
		return SubAccomplishment{}, core.NewValidationError(nil,
			core.FieldError{Field: "label", Error: "this field is required"})
	}
	if doc.Status == "" {
		doc.Status = DocumentPending
	}
	s.Documents = append(s.Documents, doc)
	s.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateSubAccomplishment(ctx, s)
}

// GradeSub scores a sub-accomplishment against its category rubric,
// overwriting any previous grading, and recomputes the organization's
// grand total in the same transaction.
func (svc *service) GradeSub(ctx context.Context, in GradeInput) (SubAccomplishment, error) {
	s, err := svc.repo.GetSubAccomplishment(ctx, in.SubAccomplishmentID)
	if err != nil {
		return SubAccomplishment{}, err
	}

	res, err := Grade(s.Category, in.Breakdown)
	if err != nil {
		return SubAccomplishment{}, err
	}

	now := nowFunc().UTC()
	s.Grading = &Grading{
		Breakdown:   res.Breakdown,
		TotalPoints: res.TotalPoints,
		MaxPoints:   res.MaxPoints,
		Comments:    core.CleanString(in.Comments),
		Status:      GradingStatusGraded,
		GradedBy:    in.GradedBy,
		GradedAt:    now,
	}
	s.AwardedPoints = res.TotalPoints
	s.UpdatedAt = now

	tx, execs, err := svc.begin(ctx)
	if err != nil {
		return SubAccomplishment{}, err
	}
	defer rollback(tx)

	if s, err = svc.repo.UpdateSubAccomplishment(ctx, s, execs...); err != nil {
		return SubAccomplishment{}, errors.Wrap(err, "updating sub-accomplishment")
	}
	if _, err = svc.recomputeGrandTotal(ctx, s.OrgID, execs...); err != nil {
		return SubAccomplishment{}, err
	}
	return s, commit(tx)
}

// Completeness derives the document checklist state of a submission.
func (svc *service) Completeness(ctx context.Context, subID string) (Completeness, error) {
	s, err := svc.repo.GetSubAccomplishment(ctx, subID)
	if err != nil {
		return Completeness{}, err
	}
	return ComputeCompleteness(s.Category, s.Labels()), nil
}

func (svc *service) GetAccomplishment(ctx context.Context, orgID string) (Accomplishment, error) {
	return svc.repo.GetAccomplishment(ctx, orgID)
}

// RecomputeGrandTotal reloads all children and persists the sum of their
// awarded points. Recomputing from fresh state makes redundant and
// concurrent calls safe: the stored value is always a function of the
// latest persisted children, never an increment of a cached one.
func (svc *service) RecomputeGrandTotal(ctx context.Context, orgID string) (Accomplishment, error) {
	tx, execs, err := svc.begin(ctx)
	if err != nil {
		return Accomplishment{}, err
	}
	defer rollback(tx)

	acc, err := svc.recomputeGrandTotal(ctx, orgID, execs...)
	if err != nil {
		return Accomplishment{}, err
	}
	return acc, commit(tx)
}

func (svc *service) recomputeGrandTotal(ctx context.Context, orgID string, exec ...core.DBExecutor) (Accomplishment, error) {
	subs, err := svc.repo.QuerySubAccomplishments(ctx, orgID, exec...)
	if err != nil {
		// leave the stored aggregate untouched
		return Accomplishment{}, core.NewAggregationError("reloading sub-accomplishments", err)
	}

	var total int
	for _, s := range subs {
		total += s.AwardedPoints
	}

	acc := Accomplishment{
		OrgID:      orgID,
		GrandTotal: total,
		UpdatedAt:  nowFunc().UTC(),
	}
	if acc, err = svc.repo.UpdateOrCreateAccomplishment(ctx, acc, exec...); err != nil {
		return Accomplishment{}, errors.Wrap(err, "updating accomplishment")
	}
	return acc, nil
}

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
