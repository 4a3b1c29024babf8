package web

import (
	"fmt"
	"net/http"

	"quorum.wiki/core/gatehouse/faults"
	"quorum.wiki/core/gatehouse/ledger"
	"quorum.wiki/core/gatehouse/models"
)

type registerRequest struct {
	Name       string `json:"name"`
	InviteCode string `json:"invite_code,omitempty"`
}

type registerResponse struct {
	Id         int64  `json:"id"`
	Name       string `json:"name"`
	EntityType string `json:"entity_type"`
}

func (h *Handle) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if req.InviteCode == "" && h.c.Invites.Required {
		h.writeError(w, fmt.Errorf("an invite code is required: %w", faults.ErrValidation))
		return
	}

	entity := models.EntityHuman
	if req.InviteCode != "" {
		// reject bad codes before creating the account, so a failed
		// signup leaves no half-registered member behind
		status, inv, err := h.lg.Validate(r.Context(), req.InviteCode)
		if err != nil {
			h.writeError(w, err)
			return
		}
		switch status {
		case ledger.StatusValid:
			entity = inv.EntityType
		case ledger.StatusAlreadyUsed:
			h.writeError(w, fmt.Errorf("invite code: %w", faults.ErrAlreadyUsed))
			return
		case ledger.StatusExpired:
			h.writeError(w, fmt.Errorf("invite code: %w", faults.ErrExpired))
			return
		default:
			h.writeError(w, fmt.Errorf("invite code: %w", faults.ErrValidation))
			return
		}
	}

	u, err := h.ids.Register(r.Context(), req.Name, entity)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if req.InviteCode != "" {
		if _, err := h.signup.Complete(r.Context(), req.InviteCode, u.Id); err != nil {
			h.writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		Id:         u.Id,
		Name:       u.Name,
		EntityType: string(u.EntityType),
	})
}
