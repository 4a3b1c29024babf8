// Package web exposes the gatehouse over HTTP. The engine does not
// manage sessions; the fronting identity provider authenticates
// members and forwards the actor id in a trusted header.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"quorum.wiki/core/gatehouse/ancestry"
	"quorum.wiki/core/gatehouse/attest"
	"quorum.wiki/core/gatehouse/config"
	"quorum.wiki/core/gatehouse/db"
	"quorum.wiki/core/gatehouse/faults"
	"quorum.wiki/core/gatehouse/identity"
	"quorum.wiki/core/gatehouse/ledger"
	"quorum.wiki/core/gatehouse/registration"
	"quorum.wiki/core/rbac"
)

type Handle struct {
	c      *config.Config
	db     *db.DB
	lg     *ledger.Ledger
	reg    *attest.Registry
	res    *ancestry.Resolver
	signup *registration.Service
	ids    *identity.Directory
	e      *rbac.Enforcer
	l      *slog.Logger
}

func Setup(c *config.Config, database *db.DB, lg *ledger.Ledger, reg *attest.Registry, res *ancestry.Resolver, signup *registration.Service, ids *identity.Directory, e *rbac.Enforcer, l *slog.Logger) http.Handler {
	h := Handle{
		c:      c,
		db:     database,
		lg:     lg,
		reg:    reg,
		res:    res,
		signup: signup,
		ids:    ids,
		e:      e,
		l:      l,
	}

	r := chi.NewRouter()
	r.Use(h.RequestLogger)

	r.Route("/invites", func(r chi.Router) {
		r.Get("/validate", h.validateInvite)
		r.Get("/prefill", h.prefillInvite)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireActor)
			r.Post("/", h.createInvite)
			r.Get("/", h.myInvites)
		})
	})

	r.Post("/register", h.register)

	r.Route("/attestations", func(r chi.Router) {
		r.Get("/subject/{id}", h.attestationsForSubject)
		r.Get("/attester/{id}", h.attestationsByAttester)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireActor)
			r.Post("/", h.createAttestation)
			r.Patch("/{subject}/{attester}", h.editAttestation)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.RequireActor, h.RequireElevated)
		r.Get("/invites", h.allInvites)
		r.Post("/invites/{id}/revoke", h.revokeInvite)
		r.Get("/chain/{id}", h.chain)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps the fault taxonomy onto HTTP statuses. Validation
// and authorization failures are always surfaced, never downgraded.
func (h *Handle) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, faults.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, faults.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, faults.ErrConflict), errors.Is(err, faults.ErrAlreadyUsed):
		status = http.StatusConflict
	case errors.Is(err, faults.ErrAuthorization):
		status = http.StatusForbidden
	case errors.Is(err, faults.ErrExpired):
		status = http.StatusGone
	}

	if status == http.StatusInternalServerError {
		h.l.Error("internal error", "error", err)
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return faults.ErrValidation
	}
	return nil
}

func urlId(r *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil {
		return 0, faults.ErrValidation
	}
	return id, nil
}
