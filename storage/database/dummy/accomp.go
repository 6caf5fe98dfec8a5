package dummydb

import (
	"context"
	"sort"

	"github.com/osdops/sdutrack/core"
	"github.com/osdops/sdutrack/core/accomp"
)

type accompRepository struct {
	db *accompTables
}

var _ accomp.Repository = (*accompRepository)(nil) // interface compliance check

func NewAccompRepository(db *DB) accomp.Repository {
	return &accompRepository{db: db.accomp}
}

func (repo *accompRepository) CreateSubAccomplishment(_ context.Context, s accomp.SubAccomplishment, _ ...core.DBExecutor) (accomp.SubAccomplishment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.subs[s.ID] = &s
	return s, nil
}

func (repo *accompRepository) GetSubAccomplishment(_ context.Context, id string, _ ...core.DBExecutor) (accomp.SubAccomplishment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.subs[id]; ok {
		return *s, nil
	}
	return accomp.SubAccomplishment{}, accomp.ErrNotFound
}

func (repo *accompRepository) QuerySubAccomplishments(_ context.Context, orgID string, _ ...core.DBExecutor) ([]accomp.SubAccomplishment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := make([]accomp.SubAccomplishment, 0)
	for _, s := range repo.db.subs {
		if s.OrgID == orgID {
			subs = append(subs, *s)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].CreatedAt.Before(subs[j].CreatedAt) })
	return subs, nil
}

func (repo *accompRepository) UpdateSubAccomplishment(_ context.Context, s accomp.SubAccomplishment, _ ...core.DBExecutor) (accomp.SubAccomplishment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.subs[s.ID]; !ok {
		return accomp.SubAccomplishment{}, accomp.ErrNotFound
	}
	repo.db.subs[s.ID] = &s
	return s, nil
}

func (repo *accompRepository) GetAccomplishment(_ context.Context, orgID string, _ ...core.DBExecutor) (accomp.Accomplishment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.accs[orgID]; ok {
		return *a, nil
	}
	return accomp.Accomplishment{}, accomp.ErrAggregateNotFound
}

func (repo *accompRepository) UpdateOrCreateAccomplishment(_ context.Context, a accomp.Accomplishment, _ ...core.DBExecutor) (accomp.Accomplishment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.accs[a.OrgID] = &a
	return a, nil
}
