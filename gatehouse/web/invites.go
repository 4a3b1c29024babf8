package web

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"quorum.wiki/core/gatehouse/faults"
	"quorum.wiki/core/gatehouse/ledger"
	"quorum.wiki/core/gatehouse/models"
)

type inviteResponse struct {
	Id           int64      `json:"id"`
	Code         string     `json:"code,omitempty"`
	InviterId    int64      `json:"inviter_id"`
	IntendedFor  *string    `json:"intended_for,omitempty"`
	EntityType   string     `json:"entity_type"`
	Relationship string     `json:"relationship_type"`
	Notes        *string    `json:"notes,omitempty"`
	Created      *time.Time `json:"created_at,omitempty"`
	Expires      *time.Time `json:"expires_at,omitempty"`
	Used         *time.Time `json:"used_at,omitempty"`
	UsedById     *int64     `json:"used_by_id,omitempty"`
}

func toInviteResponse(inv *models.Invite, includeCode bool) inviteResponse {
	resp := inviteResponse{
		Id:           inv.Id,
		InviterId:    inv.InviterId,
		IntendedFor:  inv.InviteeName,
		EntityType:   string(inv.EntityType),
		Relationship: string(inv.RelationshipType),
		Notes:        inv.Notes,
		Created:      inv.Created,
		Expires:      inv.Expires,
		Used:         inv.Used,
		UsedById:     inv.UsedById,
	}
	if includeCode {
		resp.Code = inv.Code
	}
	return resp
}

type createInviteRequest struct {
	EntityType   string  `json:"entity_type"`
	ExpireDays   *int    `json:"expire_days,omitempty"`
	IntendedFor  string  `json:"intended_for,omitempty"`
	Relationship string  `json:"relationship_type,omitempty"`
	Notes        string  `json:"notes,omitempty"`
}

func (h *Handle) createInvite(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorId(r.Context())

	var req createInviteRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	inv, err := h.lg.CreateInvite(r.Context(), ledger.CreateInviteParams{
		InviterId:    actor,
		EntityType:   models.EntityType(req.EntityType),
		ExpireDays:   req.ExpireDays,
		IntendedFor:  req.IntendedFor,
		Relationship: models.RelationshipType(req.Relationship),
		Notes:        req.Notes,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toInviteResponse(inv, true))
}

func (h *Handle) myInvites(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorId(r.Context())

	invites, err := h.lg.InvitesBy(r.Context(), actor)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := make([]inviteResponse, 0, len(invites))
	for i := range invites {
		// inviters may see their own unused codes to re-send them
		resp = append(resp, toInviteResponse(&invites[i], !invites[i].IsUsed()))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handle) validateInvite(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")

	status, _, err := h.lg.Validate(r.Context(), code)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": status.String()})
}

func (h *Handle) prefillInvite(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")

	inv, err := h.lg.PrefillFor(r.Context(), name)
	if err != nil {
		h.writeError(w, err)
		return
	}

	// never leak the code itself through prefill
	writeJSON(w, http.StatusOK, toInviteResponse(inv, false))
}

func (h *Handle) allInvites(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	invites, err := h.lg.AllInvites(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := make([]inviteResponse, 0, len(invites))
	for i := range invites {
		resp = append(resp, toInviteResponse(&invites[i], true))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handle) revokeInvite(w http.ResponseWriter, r *http.Request) {
	id, err := urlId(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	revoked, err := h.lg.Revoke(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !revoked {
		h.writeError(w, fmt.Errorf("invite is used or missing: %w", faults.ErrConflict))
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"revoked": true})
}
