// Package ledger owns the invite token lifecycle: creation, atomic
// one-time consumption, validation and revocation.
package ledger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"quorum.wiki/core/gatehouse/db"
	"quorum.wiki/core/gatehouse/faults"
	"quorum.wiki/core/gatehouse/identity"
	"quorum.wiki/core/gatehouse/models"
)

type Ledger struct {
	db                db.Execer
	defaultExpireDays int
	now               func() time.Time
}

func New(e db.Execer, defaultExpireDays int) *Ledger {
	return &Ledger{
		db:                e,
		defaultExpireDays: defaultExpireDays,
		now:               time.Now,
	}
}

type CreateInviteParams struct {
	InviterId  int64
	EntityType models.EntityType

	// ExpireDays: nil uses the configured default, 0 never expires.
	ExpireDays *int

	// IntendedFor is a soft hint of the recipient's name. Stored in
	// canonical form, never enforced at consumption.
	IntendedFor string

	Relationship models.RelationshipType
	Notes        string
}

// CreateInvite mints a 128-bit random code. No uniqueness probe is
// made against existing codes; entropy makes collision negligible.
func (l *Ledger) CreateInvite(ctx context.Context, params CreateInviteParams) (*models.Invite, error) {
	if !params.EntityType.Valid() {
		return nil, fmt.Errorf("entity type %q: %w", params.EntityType, faults.ErrValidation)
	}

	rel := params.Relationship
	if rel == "" {
		rel = models.DefaultRelationship
	}
	if !rel.Valid() {
		return nil, fmt.Errorf("relationship type %q: %w", rel, faults.ErrValidation)
	}

	expireDays := l.defaultExpireDays
	if params.ExpireDays != nil {
		if *params.ExpireDays < 0 {
			return nil, fmt.Errorf("expire days %d: %w", *params.ExpireDays, faults.ErrValidation)
		}
		expireDays = *params.ExpireDays
	}

	code, err := generateCode()
	if err != nil {
		return nil, fmt.Errorf("generate invite code: %w", err)
	}

	now := l.now().UTC()
	inv := models.Invite{
		Code:             code,
		InviterId:        params.InviterId,
		EntityType:       params.EntityType,
		RelationshipType: rel,
		Created:          &now,
	}

	if params.IntendedFor != "" {
		canonical, err := identity.Canonicalize(params.IntendedFor)
		if err != nil {
			return nil, fmt.Errorf("intended recipient: %w", err)
		}
		inv.InviteeName = &canonical
	}
	if params.Notes != "" {
		inv.Notes = &params.Notes
	}
	if expireDays > 0 {
		expires := now.Add(time.Duration(expireDays) * 24 * time.Hour)
		inv.Expires = &expires
	}

	if err := db.AddInvite(l.db, &inv); err != nil {
		return nil, fmt.Errorf("insert invite: %w", err)
	}
	return &inv, nil
}

func generateCode() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

type Status int

const (
	StatusValid Status = iota
	StatusInvalid
	StatusAlreadyUsed
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusInvalid:
		return "invalid"
	case StatusAlreadyUsed:
		return "already-used"
	case StatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Validate is a pure read: it never mutates the invite, so two
// consecutive calls with no intervening writes agree.
func (l *Ledger) Validate(ctx context.Context, code string) (Status, *models.Invite, error) {
	inv, err := db.GetInviteByCode(l.db, code)
	if errors.Is(err, faults.ErrNotFound) {
		return StatusInvalid, nil, nil
	}
	if err != nil {
		return StatusInvalid, nil, err
	}

	if inv.IsUsed() {
		return StatusAlreadyUsed, inv, nil
	}
	if inv.IsExpired(l.now()) {
		return StatusExpired, inv, nil
	}
	return StatusValid, inv, nil
}

// Consume redeems a code for userId. Exactly one of any set of
// concurrent calls for the same code returns true; the rest, along
// with calls for unknown, used or expired codes, return false. The
// decision is a single conditional write in the store, never an
// in-process lock, so multiple stateless processes stay correct.
func (l *Ledger) Consume(ctx context.Context, code string, userId int64) (bool, error) {
	return db.ConsumeInvite(l.db, code, userId, l.now())
}

// Revoke deletes an invite if and only if it is still unused. A
// consumed invite is part of the audit trail and can never be revoked.
func (l *Ledger) Revoke(ctx context.Context, id int64) (bool, error) {
	return db.RevokeInvite(l.db, id)
}

// ConsumingInvite returns the invite that admitted userId, or
// faults.ErrNotFound for genesis users.
func (l *Ledger) ConsumingInvite(ctx context.Context, userId int64) (*models.Invite, error) {
	return db.GetInviteForUser(l.db, userId)
}

// PrefillFor finds an unused invite intended for name, canonicalizing
// first. Used by the signup form, not enforced anywhere.
func (l *Ledger) PrefillFor(ctx context.Context, name string) (*models.Invite, error) {
	canonical, err := identity.Canonicalize(name)
	if err != nil {
		return nil, err
	}
	return db.GetUnusedInviteByName(l.db, canonical)
}

func (l *Ledger) InvitesBy(ctx context.Context, inviterId int64) ([]models.Invite, error) {
	return db.GetInvitesByInviter(l.db, inviterId)
}

func (l *Ledger) AllInvites(ctx context.Context, limit, offset int) ([]models.Invite, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return db.GetAllInvites(l.db, limit, offset)
}
