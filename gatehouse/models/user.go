package models

import "time"

// UserKind separates ordinary members from the reserved system
// identity claimed at bootstrap.
type UserKind string

const (
	KindMember UserKind = "member"
	KindSystem UserKind = "system"
)

// User is a row in the identity directory. Name is stored in
// canonical form.
type User struct {
	Id         int64
	Name       string
	Kind       UserKind
	EntityType EntityType
	Created    *time.Time
}

func (u *User) IsSystem() bool {
	return u.Kind == KindSystem
}

// Page is a durable content-store entry. The engine only ever creates
// and replaces whole pages; rendering belongs to the hosting wiki.
type Page struct {
	Path     string
	Content  string
	AuthorId int64
	Created  *time.Time
}
