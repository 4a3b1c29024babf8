package models

import "time"

// EntityType describes what kind of entity an invite admits.
type EntityType string

const (
	EntityHuman EntityType = "human"
	EntityBot   EntityType = "bot"
)

func (e EntityType) Valid() bool {
	return e == EntityHuman || e == EntityBot
}

// RelationshipType describes how the inviter knows the invitee. Same
// vocabulary as the human attestation types, ordered strongest first.
type RelationshipType string

const (
	RelRecordedOrPerformed RelationshipType = "recorded-or-performed"
	RelCollaborated        RelationshipType = "collaborated"
	RelSeenPerform         RelationshipType = "seen-perform"
	RelIrlBuds             RelationshipType = "irl-buds"
	RelMetInPerson         RelationshipType = "met-in-person"
	RelOnlineOnly          RelationshipType = "online-only"
)

// DefaultRelationship is used when an inviter does not pick one.
const DefaultRelationship = RelIrlBuds

func (r RelationshipType) Valid() bool {
	switch r {
	case RelRecordedOrPerformed, RelCollaborated, RelSeenPerform,
		RelIrlBuds, RelMetInPerson, RelOnlineOnly:
		return true
	}
	return false
}

// Invite is a single-use admission token. Used and UsedById are both
// nil or both set; consume is the only writer of either.
type Invite struct {
	Id               int64
	Code             string
	InviterId        int64
	InviteeName      *string
	EntityType       EntityType
	RelationshipType RelationshipType
	Notes            *string
	Created          *time.Time
	Expires          *time.Time // nil = never expires
	Used             *time.Time
	UsedById         *int64
}

func (i *Invite) IsUsed() bool {
	return i.Used != nil
}

func (i *Invite) IsExpired(now time.Time) bool {
	return i.Expires != nil && now.After(*i.Expires)
}
