// Package attest owns attestation records: uniqueness per
// (subject, attester) pair, authorship on edit, and tamper-protection
// applied at creation.
package attest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quorum.wiki/core/gatehouse/db"
	"quorum.wiki/core/gatehouse/faults"
	"quorum.wiki/core/gatehouse/identity"
	"quorum.wiki/core/gatehouse/models"
	"quorum.wiki/core/gatehouse/pages"
	"quorum.wiki/core/log"
	"quorum.wiki/core/rbac"
)

var (
	ErrSelfAttestation = fmt.Errorf("cannot attest yourself: %w", faults.ErrValidation)
	ErrUnknownSubject  = fmt.Errorf("subject is not a registered member: %w", faults.ErrNotFound)
	ErrAlreadyExists   = fmt.Errorf("attestation already exists: %w", faults.ErrConflict)
	ErrInvalidType     = fmt.Errorf("attestation type not allowed for subject: %w", faults.ErrValidation)
)

type Registry struct {
	db    db.Execer
	ids   identity.Provider
	e     *rbac.Enforcer
	store pages.Store
	now   func() time.Time
}

func New(e db.Execer, ids identity.Provider, enforcer *rbac.Enforcer, store pages.Store) *Registry {
	return &Registry{
		db:    e,
		ids:   ids,
		e:     enforcer,
		store: store,
		now:   time.Now,
	}
}

// Create validates in a fixed order: self-attestation, unknown
// subject, duplicate pair, type outside the subject's vocabulary.
// The duplicate pre-check is advisory; the storage unique index is
// what actually closes the create-create race.
func (r *Registry) Create(ctx context.Context, attesterId, subjectId int64, typ models.AttestationType, body string) (*models.Attestation, error) {
	if attesterId == subjectId {
		return nil, ErrSelfAttestation
	}

	subject, err := db.GetUserById(r.db, subjectId)
	if errors.Is(err, faults.ErrNotFound) {
		return nil, ErrUnknownSubject
	}
	if err != nil {
		return nil, err
	}

	if _, err := db.GetAttestation(r.db, subjectId, attesterId); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, faults.ErrNotFound) {
		return nil, err
	}

	if !typ.ValidFor(identity.EntityTypeOf(subject)) {
		return nil, ErrInvalidType
	}

	attester, err := db.GetUserById(r.db, attesterId)
	if err != nil {
		return nil, fmt.Errorf("attester %d: %w", attesterId, err)
	}

	now := r.now().UTC()
	att := models.Attestation{
		SubjectId:  subjectId,
		AttesterId: attesterId,
		Type:       typ,
		Body:       body,
		Created:    &now,
	}
	if err := db.AddAttestation(r.db, &att); err != nil {
		if errors.Is(err, faults.ErrConflict) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}

	if err := r.emit(ctx, subject, attester, &att); err != nil {
		// the record itself is committed; the page is derived state
		log.FromContext(ctx).Error("failed to emit attestation page",
			"subject", subject.Name, "attester", attester.Name, "error", err)
	}

	return &att, nil
}

// emit writes the attestation page and marks it tamper-protected in
// the same step, never as a deferred follow-up.
func (r *Registry) emit(ctx context.Context, subject, attester *models.User, att *models.Attestation) error {
	path := pages.AttestationPath(subject.Name, attester.Name)

	exists, err := r.store.Exists(path)
	if err != nil {
		return err
	}
	if !exists {
		content := pages.AttestationContent(subject.Name, attester.Name, att)
		if err := r.store.Create(path, content, attester.Id); err != nil {
			return err
		}
	}

	return r.e.ProtectRecord(path)
}

// CanEdit is the single authorship/elevation policy for attestation
// mutation. Everything that alters a record must go through it.
func (r *Registry) CanEdit(ctx context.Context, editorId int64, att *models.Attestation) (bool, error) {
	if editorId == att.AttesterId {
		return true, nil
	}
	return r.ids.IsElevated(ctx, editorId)
}

type EditParams struct {
	Type *models.AttestationType
	Body *string
}

func (r *Registry) Edit(ctx context.Context, editorId, subjectId, attesterId int64, params EditParams) (*models.Attestation, error) {
	att, err := db.GetAttestation(r.db, subjectId, attesterId)
	if err != nil {
		return nil, err
	}

	allowed, err := r.CanEdit(ctx, editorId, att)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("editor %d is not the attester: %w", editorId, faults.ErrAuthorization)
	}

	if params.Type != nil {
		subject, err := db.GetUserById(r.db, subjectId)
		if err != nil {
			return nil, err
		}
		if !params.Type.ValidFor(identity.EntityTypeOf(subject)) {
			return nil, ErrInvalidType
		}
		att.Type = *params.Type
	}
	if params.Body != nil {
		att.Body = *params.Body
	}

	if err := db.UpdateAttestation(r.db, subjectId, attesterId, att.Type, att.Body); err != nil {
		return nil, err
	}

	subject, err := db.GetUserById(r.db, subjectId)
	if err != nil {
		return nil, err
	}
	attester, err := db.GetUserById(r.db, attesterId)
	if err != nil {
		return nil, err
	}

	path := pages.AttestationPath(subject.Name, attester.Name)
	content := pages.AttestationContent(subject.Name, attester.Name, att)
	if err := r.store.Put(path, content, editorId); err != nil {
		log.FromContext(ctx).Error("failed to rewrite attestation page",
			"path", path, "error", err)
	}

	return att, nil
}

func (r *Registry) ForSubject(ctx context.Context, subjectId int64) ([]models.Attestation, error) {
	return db.GetAttestationsForSubject(r.db, subjectId)
}

func (r *Registry) ByAttester(ctx context.Context, attesterId int64) ([]models.Attestation, error) {
	return db.GetAttestationsByAttester(r.db, attesterId)
}
