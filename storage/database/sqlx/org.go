package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/osdops/sdutrack/core"
	"github.com/osdops/sdutrack/core/org"
)

const (
	orgCols = `id, name, acronym, email, is_active, created_at, updated_at`
	reqCols = `id, org_id, kind, name, status, revision_notes, logs, created_at, updated_at`
	accCols = `org_id, is_everything_approved, completion_notified, updated_at`
)

type orgRepository struct {
	exec core.DBExecutor
}

var _ org.Repository = (*orgRepository)(nil) // interface compliance check

func NewOrgRepository(exec core.DBExecutor) *orgRepository {
	return &orgRepository{exec: exec}
}

func (repo orgRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

// trapNoRowsErr maps psql "no rows" err to org.ErrNotFound
func (repo orgRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return org.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo orgRepository) scanOrganization(row rowScanner) (org.Organization, error) {
	var o org.Organization
	err := row.Scan(&o.ID, &o.Name, &o.Acronym, &o.Email, &o.IsActive, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (repo orgRepository) scanRequirement(row rowScanner) (org.Requirement, error) {
	var r org.Requirement
	var notes null.String
	var logs []byte
	if err := row.Scan(&r.ID, &r.OrgID, &r.Kind, &r.Name, &r.Status, &notes, &logs, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return org.Requirement{}, err
	}
	r.RevisionNotes = notes.String
	if err := unmarshalJSON(logs, &r.Logs); err != nil {
		return org.Requirement{}, err
	}
	return r, nil
}

func (repo orgRepository) scanAccreditation(row rowScanner) (org.Accreditation, error) {
	var a org.Accreditation
	err := row.Scan(&a.OrgID, &a.IsEverythingApproved, &a.CompletionNotified, &a.UpdatedAt)
	return a, err
}

func (repo orgRepository) CreateOrganization(ctx context.Context, o org.Organization, exec ...core.DBExecutor) (org.Organization, error) {
	query := `INSERT INTO organization (` + orgCols + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.getExec(exec).ExecContext(ctx, query,
		o.ID, o.Name, o.Acronym, o.Email, o.IsActive, o.CreatedAt.UTC(), o.UpdatedAt.UTC())
	if err != nil {
		return org.Organization{}, errors.Wrap(err, "inserting organization")
	}
	return o, nil
}

func (repo orgRepository) GetOrganization(ctx context.Context, id string, exec ...core.DBExecutor) (org.Organization, error) {
	query := `SELECT ` + orgCols + ` FROM organization WHERE id = $1`
	o, err := repo.scanOrganization(repo.getExec(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		return org.Organization{}, repo.trapNoRowsErr(err, "finding organization")
	}
	return o, nil
}

func (repo orgRepository) QueryAllOrganizations(ctx context.Context, exec ...core.DBExecutor) ([]org.Organization, error) {
	query := `SELECT ` + orgCols + ` FROM organization ORDER BY name`
	rows, err := repo.getExec(exec).QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "querying organizations")
	}
	defer func() { _ = rows.Close() }()

	orgs := make([]org.Organization, 0)
	for rows.Next() {
		o, err := repo.scanOrganization(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning organization")
		}
		orgs = append(orgs, o)
	}
	return orgs, errors.Wrap(rows.Err(), "querying organizations")
}

func (repo orgRepository) UpdateOrganization(ctx context.Context, o org.Organization, exec ...core.DBExecutor) (org.Organization, error) {
	query := `UPDATE organization SET name = $2, acronym = $3, email = $4, is_active = $5, updated_at = $6 WHERE id = $1`
	res, err := repo.getExec(exec).ExecContext(ctx, query,
		o.ID, o.Name, o.Acronym, o.Email, o.IsActive, o.UpdatedAt.UTC())
	if err != nil {
		return org.Organization{}, errors.Wrap(err, "updating organization")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return org.Organization{}, org.ErrNotFound
	}
	return o, nil
}

func (repo orgRepository) CreateRequirement(ctx context.Context, r org.Requirement, exec ...core.DBExecutor) (org.Requirement, error) {
	logs, err := marshalJSON(r.Logs)
	if err != nil {
		return org.Requirement{}, err
	}
	query := `INSERT INTO requirement (` + reqCols + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = repo.getExec(exec).ExecContext(ctx, query,
		r.ID, r.OrgID, r.Kind, r.Name, r.Status,
		null.NewString(r.RevisionNotes, r.RevisionNotes != ""), logs, r.CreatedAt.UTC(), r.UpdatedAt.UTC())
	if err != nil {
		return org.Requirement{}, errors.Wrap(err, "inserting requirement")
	}
	return r, nil
}

func (repo orgRepository) GetRequirement(ctx context.Context, id string, exec ...core.DBExecutor) (org.Requirement, error) {
	query := `SELECT ` + reqCols + ` FROM requirement WHERE id = $1`
	r, err := repo.scanRequirement(repo.getExec(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		return org.Requirement{}, repo.trapNoRowsErr(err, "finding requirement")
	}
	return r, nil
}

func (repo orgRepository) QueryRequirements(ctx context.Context, orgID string, exec ...core.DBExecutor) ([]org.Requirement, error) {
	query := `SELECT ` + reqCols + ` FROM requirement WHERE org_id = $1 ORDER BY created_at, name`
	rows, err := repo.getExec(exec).QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, errors.Wrap(err, "querying requirements")
	}
	defer func() { _ = rows.Close() }()

	reqs := make([]org.Requirement, 0)
	for rows.Next() {
		r, err := repo.scanRequirement(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning requirement")
		}
		reqs = append(reqs, r)
	}
	return reqs, errors.Wrap(rows.Err(), "querying requirements")
}

func (repo orgRepository) UpdateRequirement(ctx context.Context, r org.Requirement, exec ...core.DBExecutor) (org.Requirement, error) {
	logs, err := marshalJSON(r.Logs)
	if err != nil {
		return org.Requirement{}, err
	}
	query := `UPDATE requirement SET status = $2, revision_notes = $3, logs = $4, updated_at = $5 WHERE id = $1`
	res, err := repo.getExec(exec).ExecContext(ctx, query,
		r.ID, r.Status, null.NewString(r.RevisionNotes, r.RevisionNotes != ""), logs, r.UpdatedAt.UTC())
	if err != nil {
		return org.Requirement{}, errors.Wrap(err, "updating requirement")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return org.Requirement{}, org.ErrNotFound
	}
	return r, nil
}

func (repo orgRepository) GetAccreditation(ctx context.Context, orgID string, exec ...core.DBExecutor) (org.Accreditation, error) {
	query := `SELECT ` + accCols + ` FROM accreditation WHERE org_id = $1`
	a, err := repo.scanAccreditation(repo.getExec(exec).QueryRowContext(ctx, query, orgID))
	if err != nil {
		return org.Accreditation{}, repo.trapNoRowsErr(err, "finding accreditation")
	}
	return a, nil
}

func (repo orgRepository) UpdateAccreditation(ctx context.Context, a org.Accreditation, exec ...core.DBExecutor) (org.Accreditation, error) {
	query := `INSERT INTO accreditation (` + accCols + `) VALUES ($1, $2, $3, $4)
		ON CONFLICT (org_id) DO UPDATE
		SET is_everything_approved = EXCLUDED.is_everything_approved,
			completion_notified = EXCLUDED.completion_notified,
			updated_at = EXCLUDED.updated_at`
	_, err := repo.getExec(exec).ExecContext(ctx, query,
		a.OrgID, a.IsEverythingApproved, a.CompletionNotified, a.UpdatedAt.UTC())
	if err != nil {
		return org.Accreditation{}, errors.Wrap(err, "upserting accreditation")
	}
	return a, nil
}
