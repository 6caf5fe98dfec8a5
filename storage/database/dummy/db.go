package dummydb

import (
	"sync"

	"github.com/osdops/sdutrack/core/accomp"
	"github.com/osdops/sdutrack/core/org"
	"github.com/osdops/sdutrack/core/user"
)

type (
	DB struct {
		org    *orgTables
		accomp *accompTables
		user   *userTable
	}

	orgTables struct {
		sync.RWMutex
		orgs map[string]*org.Organization
		reqs map[string]*org.Requirement
		accs map[string]*org.Accreditation // keyed by OrgID
	}

	accompTables struct {
		sync.RWMutex
		subs map[string]*accomp.SubAccomplishment
		accs map[string]*accomp.Accomplishment // keyed by OrgID
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}
)

func Open() (*DB, error) {
	db := &DB{
		org: &orgTables{
			orgs: make(map[string]*org.Organization),
			reqs: make(map[string]*org.Requirement),
			accs: make(map[string]*org.Accreditation),
		},
		accomp: &accompTables{
			subs: make(map[string]*accomp.SubAccomplishment),
			accs: make(map[string]*accomp.Accomplishment),
		},
		user: &userTable{table: make(map[string]*user.User)},
	}
	return db, nil
}
