package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/osdops/sdutrack/core"
	"github.com/osdops/sdutrack/core/accomp"
)

const (
	subCols    = `id, org_id, category, title, documents, grading, awarded_points, created_at, updated_at`
	accompCols = `org_id, grand_total, updated_at`
)

type accompRepository struct {
	exec core.DBExecutor
}

var _ accomp.Repository = (*accompRepository)(nil) // interface compliance check

func NewAccompRepository(exec core.DBExecutor) *accompRepository {
	return &accompRepository{exec: exec}
}

func (repo accompRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo accompRepository) scanSub(row rowScanner) (accomp.SubAccomplishment, error) {
	var s accomp.SubAccomplishment
	var docs, grading []byte
	if err := row.Scan(&s.ID, &s.OrgID, &s.Category, &s.Title, &docs, &grading, &s.AwardedPoints, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return accomp.SubAccomplishment{}, err
	}
	s.Documents = make([]accomp.Document, 0)
	if err := unmarshalJSON(docs, &s.Documents); err != nil {
		return accomp.SubAccomplishment{}, err
	}
	if len(grading) > 0 {
		s.Grading = new(accomp.Grading)
		if err := unmarshalJSON(grading, s.Grading); err != nil {
			return accomp.SubAccomplishment{}, err
		}
	}
	return s, nil
}

// pack marshals the jsonb columns; a nil Grading stays a SQL NULL.
func (repo accompRepository) pack(s accomp.SubAccomplishment) (docs, grading []byte, err error) {
	if docs, err = marshalJSON(s.Documents); err != nil {
		return nil, nil, err
	}
	if s.Grading != nil {
		if grading, err = marshalJSON(s.Grading); err != nil {
			return nil, nil, err
		}
	}
	return docs, grading, nil
}

func (repo accompRepository) CreateSubAccomplishment(ctx context.Context, s accomp.SubAccomplishment, exec ...core.DBExecutor) (accomp.SubAccomplishment, error) {
	docs, grading, err := repo.pack(s)
	if err != nil {
		return accomp.SubAccomplishment{}, err
	}
	query := `INSERT INTO sub_accomplishment (` + subCols + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = repo.getExec(exec).ExecContext(ctx, query,
		s.ID, s.OrgID, s.Category, s.Title, docs, grading, s.AwardedPoints, s.CreatedAt.UTC(), s.UpdatedAt.UTC())
	if err != nil {
		return accomp.SubAccomplishment{}, errors.Wrap(err, "inserting sub-accomplishment")
	}
	return s, nil
}

func (repo accompRepository) GetSubAccomplishment(ctx context.Context, id string, exec ...core.DBExecutor) (accomp.SubAccomplishment, error) {
	query := `SELECT ` + subCols + ` FROM sub_accomplishment WHERE id = $1`
	s, err := repo.scanSub(repo.getExec(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return accomp.SubAccomplishment{}, accomp.ErrNotFound
		}
		return accomp.SubAccomplishment{}, errors.Wrap(err, "finding sub-accomplishment")
	}
	return s, nil
}

func (repo accompRepository) QuerySubAccomplishments(ctx context.Context, orgID string, exec ...core.DBExecutor) ([]accomp.SubAccomplishment, error) {
	query := `SELECT ` + subCols + ` FROM sub_accomplishment WHERE org_id = $1 ORDER BY created_at`
	rows, err := repo.getExec(exec).QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, errors.Wrap(err, "querying sub-accomplishments")
	}
	defer func() { _ = rows.Close() }()

	subs := make([]accomp.SubAccomplishment, 0)
	for rows.Next() {
		s, err := repo.scanSub(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning sub-accomplishment")
		}
		subs = append(subs, s)
	}
	return subs, errors.Wrap(rows.Err(), "querying sub-accomplishments")
}

func (repo accompRepository) UpdateSubAccomplishment(ctx context.Context, s accomp.SubAccomplishment, exec ...core.DBExecutor) (accomp.SubAccomplishment, error) {
	docs, grading, err := repo.pack(s)
	if err != nil {
		return accomp.SubAccomplishment{}, err
	}
	query := `UPDATE sub_accomplishment SET title = $2, documents = $3, grading = $4, awarded_points = $5, updated_at = $6 WHERE id = $1`
	res, err := repo.getExec(exec).ExecContext(ctx, query,
		s.ID, s.Title, docs, grading, s.AwardedPoints, s.UpdatedAt.UTC())
	if err != nil {
		return accomp.SubAccomplishment{}, errors.Wrap(err, "updating sub-accomplishment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return accomp.SubAccomplishment{}, accomp.ErrNotFound
	}
	return s, nil
}

func (repo accompRepository) GetAccomplishment(ctx context.Context, orgID string, exec ...core.DBExecutor) (accomp.Accomplishment, error) {
	query := `SELECT ` + accompCols + ` FROM accomplishment WHERE org_id = $1`
	var a accomp.Accomplishment
	err := repo.getExec(exec).QueryRowContext(ctx, query, orgID).Scan(&a.OrgID, &a.GrandTotal, &a.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return accomp.Accomplishment{}, accomp.ErrAggregateNotFound
		}
		return accomp.Accomplishment{}, errors.Wrap(err, "finding accomplishment")
	}
	return a, nil
}

func (repo accompRepository) UpdateOrCreateAccomplishment(ctx context.Context, a accomp.Accomplishment, exec ...core.DBExecutor) (accomp.Accomplishment, error) {
	query := `INSERT INTO accomplishment (` + accompCols + `) VALUES ($1, $2, $3)
		ON CONFLICT (org_id) DO UPDATE
		SET grand_total = EXCLUDED.grand_total, updated_at = EXCLUDED.updated_at`
	_, err := repo.getExec(exec).ExecContext(ctx, query, a.OrgID, a.GrandTotal, a.UpdatedAt.UTC())
	if err != nil {
		return accomp.Accomplishment{}, errors.Wrap(err, "upserting accomplishment")
	}
	return a, nil
}
