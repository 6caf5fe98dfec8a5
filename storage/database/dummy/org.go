package dummydb

import (
	"context"
	"sort"

	"github.com/osdops/sdutrack/core"
	"github.com/osdops/sdutrack/core/org"
)

type orgRepository struct {
	db *orgTables
}

var _ org.Repository = (*orgRepository)(nil) // interface compliance check

func NewOrgRepository(db *DB) org.Repository {
	return &orgRepository{db: db.org}
}

func (repo *orgRepository) CreateOrganization(_ context.Context, o org.Organization, _ ...core.DBExecutor) (org.Organization, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.orgs[o.ID] = &o
	return o, nil
}

func (repo *orgRepository) GetOrganization(_ context.Context, id string, _ ...core.DBExecutor) (org.Organization, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if o, ok := repo.db.orgs[id]; ok {
		return *o, nil
	}
	return org.Organization{}, org.ErrNotFound
}

func (repo *orgRepository) QueryAllOrganizations(_ context.Context, _ ...core.DBExecutor) ([]org.Organization, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	orgs := make([]org.Organization, 0, len(repo.db.orgs))
	for _, o := range repo.db.orgs {
		orgs = append(orgs, *o)
	}
	sort.Slice(orgs, func(i, j int) bool { return orgs[i].Name < orgs[j].Name })
	return orgs, nil
}

func (repo *orgRepository) UpdateOrganization(_ context.Context, o org.Organization, _ ...core.DBExecutor) (org.Organization, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.orgs[o.ID]; !ok {
		return org.Organization{}, org.ErrNotFound
	}
	repo.db.orgs[o.ID] = &o
	return o, nil
}

func (repo *orgRepository) CreateRequirement(_ context.Context, r org.Requirement, _ ...core.DBExecutor) (org.Requirement, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.reqs[r.ID] = &r
	return r, nil
}

func (repo *orgRepository) GetRequirement(_ context.Context, id string, _ ...core.DBExecutor) (org.Requirement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if r, ok := repo.db.reqs[id]; ok {
		return *r, nil
	}
	return org.Requirement{}, org.ErrNotFound
}

func (repo *orgRepository) QueryRequirements(_ context.Context, orgID string, _ ...core.DBExecutor) ([]org.Requirement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	reqs := make([]org.Requirement, 0)
	for _, r := range repo.db.reqs {
		if r.OrgID == orgID {
			reqs = append(reqs, *r)
		}
	}
	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].CreatedAt.Equal(reqs[j].CreatedAt) {
			return reqs[i].Name < reqs[j].Name
		}
		return reqs[i].CreatedAt.Before(reqs[j].CreatedAt)
	})
	return reqs, nil
}

func (repo *orgRepository) UpdateRequirement(_ context.Context, r org.Requirement, _ ...core.DBExecutor) (org.Requirement, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.reqs[r.ID]; !ok {
		return org.Requirement{}, org.ErrNotFound
	}
	repo.db.reqs[r.ID] = &r
	return r, nil
}

func (repo *orgRepository) GetAccreditation(_ context.Context, orgID string, _ ...core.DBExecutor) (org.Accreditation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.accs[orgID]; ok {
		return *a, nil
	}
	return org.Accreditation{}, org.ErrNotFound
}

func (repo *orgRepository) UpdateAccreditation(_ context.Context, a org.Accreditation, _ ...core.DBExecutor) (org.Accreditation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.accs[a.OrgID] = &a
	return a, nil
}
