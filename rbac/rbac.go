package rbac

import (
	"database/sql"
	"fmt"

	adapter "github.com/Blank-Xu/sql-adapter"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

const (
	// Elevated is the role permitted to bypass author-only
	// restrictions on protected records.
	Elevated = "wiki:elevated"

	ActEdit = "record:edit"
	ActMove = "record:move"
)

const (
	Model = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`
)

type Enforcer struct {
	E *casbin.Enforcer
}

func NewEnforcer(path string) (*Enforcer, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=1")
	if err != nil {
		return nil, err
	}

	return NewEnforcerFromDB(db)
}

func NewEnforcerFromDB(db *sql.DB) (*Enforcer, error) {
	m, err := model.NewModelFromString(Model)
	if err != nil {
		return nil, err
	}

	a, err := adapter.NewAdapter(db, "sqlite3", "acl")
	if err != nil {
		return nil, err
	}

	e, err := casbin.NewEnforcer(m, a)
	if err != nil {
		return nil, err
	}

	return &Enforcer{e}, nil
}

// Subject is the internal representation of a member in policy rules.
func Subject(userId int64) string {
	return fmt.Sprintf("user:%d", userId)
}

func (e *Enforcer) AddElevated(userId int64) error {
	_, err := e.E.AddGroupingPolicy(Subject(userId), Elevated)
	return err
}

func (e *Enforcer) RemoveElevated(userId int64) error {
	_, err := e.E.RemoveGroupingPolicy(Subject(userId), Elevated)
	return err
}

func (e *Enforcer) IsElevated(userId int64) (bool, error) {
	return e.E.HasGroupingPolicy(Subject(userId), Elevated)
}

// ProtectRecord marks a record path so that only elevated members may
// edit or move it. Applied at record creation, never deferred.
func (e *Enforcer) ProtectRecord(path string) error {
	_, err := e.E.AddPolicies([][]string{
		{Elevated, path, ActEdit},
		{Elevated, path, ActMove},
	})
	return err
}

func (e *Enforcer) IsProtected(path string) (bool, error) {
	policies, err := e.E.GetFilteredPolicy(1, path)
	if err != nil {
		return false, err
	}
	return len(policies) > 0, nil
}

// MayTouch reports whether userId may alter or relocate the record at
// path. Unprotected records are open; protected ones require the
// elevated role.
func (e *Enforcer) MayTouch(userId int64, path string) (bool, error) {
	protected, err := e.IsProtected(path)
	if err != nil {
		return false, err
	}
	if !protected {
		return true, nil
	}
	return e.E.Enforce(Subject(userId), path, ActEdit)
}
