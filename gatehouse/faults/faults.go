// Package faults defines the error taxonomy shared by the gatehouse
// services. Callers branch on these sentinels with errors.Is; services
// wrap them with context using %w.
package faults

import "errors"

var (
	// ErrValidation covers malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound covers lookups of rows or identities that do not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict covers lost concurrency races and duplicates.
	ErrConflict = errors.New("conflict")

	// ErrAuthorization covers denied mutations.
	ErrAuthorization = errors.New("not authorized")

	// ErrExpired covers invites past their expiry.
	ErrExpired = errors.New("expired")

	// ErrAlreadyUsed covers single-use codes that were already consumed.
	ErrAlreadyUsed = errors.New("already used")

	// ErrIntegrity covers inconsistent derived state, like a cycle in
	// the invitation graph. Non-fatal: operations that hit it return a
	// partial result alongside the error.
	ErrIntegrity = errors.New("integrity fault")
)
