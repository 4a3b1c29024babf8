// Package registration ties signup to the ledger: a new member's
// invite is consumed, then their origin record page is written and
// protected under the system identity.
package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quorum.wiki/core/gatehouse/db"
	"quorum.wiki/core/gatehouse/faults"
	"quorum.wiki/core/gatehouse/ledger"
	"quorum.wiki/core/gatehouse/models"
	"quorum.wiki/core/gatehouse/pages"
	"quorum.wiki/core/log"
	"quorum.wiki/core/rbac"
)

type Service struct {
	db         db.Execer
	lg         *ledger.Ledger
	e          *rbac.Enforcer
	store      pages.Store
	systemName string
	now        func() time.Time
}

func New(e db.Execer, lg *ledger.Ledger, enforcer *rbac.Enforcer, store pages.Store, systemName string) *Service {
	return &Service{
		db:         e,
		lg:         lg,
		e:          enforcer,
		store:      store,
		systemName: systemName,
		now:        time.Now,
	}
}

// Complete consumes code for userId and, on a won race, records the
// origin attestation. A lost race is reported to the caller and never
// retried here; retry policy belongs upstream.
func (s *Service) Complete(ctx context.Context, code string, userId int64) (*models.Invite, error) {
	won, err := s.lg.Consume(ctx, code, userId)
	if err != nil {
		return nil, fmt.Errorf("consume invite: %w", err)
	}
	if !won {
		status, _, err := s.lg.Validate(ctx, code)
		if err != nil {
			return nil, err
		}
		switch status {
		case ledger.StatusAlreadyUsed:
			return nil, fmt.Errorf("invite code: %w", faults.ErrAlreadyUsed)
		case ledger.StatusExpired:
			return nil, fmt.Errorf("invite code: %w", faults.ErrExpired)
		default:
			return nil, fmt.Errorf("invite code: %w", faults.ErrValidation)
		}
	}

	inv, err := db.GetInviteByCode(s.db, code)
	if err != nil {
		return nil, err
	}

	if err := db.SetUserEntityType(s.db, userId, inv.EntityType); err != nil {
		return nil, err
	}

	if err := s.writeOriginRecord(ctx, inv, userId); err != nil {
		// the consumed invite is the source of truth; the page is
		// derived and can be backfilled later
		log.FromContext(ctx).Error("failed to write origin record",
			"user", userId, "invite", inv.Id, "error", err)
	}

	return inv, nil
}

func (s *Service) writeOriginRecord(ctx context.Context, inv *models.Invite, userId int64) error {
	l := log.FromContext(ctx)

	subject, err := db.GetUserById(s.db, userId)
	if err != nil {
		return err
	}

	inviterName := "Unknown"
	if inviter, err := db.GetUserById(s.db, inv.InviterId); err == nil {
		inviterName = inviter.Name
	}

	system, err := db.GetUserByName(s.db, s.systemName)
	if errors.Is(err, faults.ErrNotFound) {
		l.Warn("system identity missing, skipping origin record",
			"name", s.systemName)
		return nil
	}
	if err != nil {
		return err
	}

	path := pages.InviteRecordPath(subject.Name)
	exists, err := s.store.Exists(path)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	content := pages.InviteRecordContent(subject.Name, inviterName, inv)
	if err := s.store.Create(path, content, system.Id); err != nil {
		return err
	}

	return s.e.ProtectRecord(path)
}
