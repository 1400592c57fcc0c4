// Package auth authenticates admins, principals & users and guards what each of them may do.
//
// A session carries at most one Identity. Logging in replaces it; logging out drops it.
package auth

import "github.com/trezcool/eduquest/core"

type Kind string

const (
	KindAdmin     Kind = "admin"
	KindPrincipal Kind = "principal"
	KindUser      Kind = "user"
)

// Identity is the authenticated party of a session: one of AdminIdentity, PrincipalIdentity or UserIdentity.
type Identity interface {
	Kind() Kind
	Subject() int
	identity()
}

type AdminIdentity struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

type PrincipalIdentity struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	SchoolID int    `json:"school_id"`
}

type UserIdentity struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (AdminIdentity) Kind() Kind     { return KindAdmin }
func (PrincipalIdentity) Kind() Kind { return KindPrincipal }
func (UserIdentity) Kind() Kind      { return KindUser }

func (id AdminIdentity) Subject() int     { return id.ID }
func (id PrincipalIdentity) Subject() int { return id.ID }
func (id UserIdentity) Subject() int      { return id.ID }

func (AdminIdentity) identity()     {}
func (PrincipalIdentity) identity() {}
func (UserIdentity) identity()      {}

// RequireAdmin fails unless id is an admin.
func RequireAdmin(id Identity) error {
	if id == nil {
		return ErrUnauthenticated
	}
	if _, ok := id.(AdminIdentity); !ok {
		return core.ErrPermissionDenied
	}
	return nil
}

// RequirePrincipal fails unless id is a principal.
func RequirePrincipal(id Identity) (PrincipalIdentity, error) {
	if id == nil {
		return PrincipalIdentity{}, ErrUnauthenticated
	}
	pid, ok := id.(PrincipalIdentity)
	if !ok {
		return PrincipalIdentity{}, core.ErrPermissionDenied
	}
	return pid, nil
}
