package web

import (
	"net/http"
	"time"

	"quorum.wiki/core/gatehouse/attest"
	"quorum.wiki/core/gatehouse/models"
)

type attestationResponse struct {
	Id         int64      `json:"id"`
	SubjectId  int64      `json:"subject_id"`
	AttesterId int64      `json:"attester_id"`
	Type       string     `json:"attestation_type"`
	Body       string     `json:"body"`
	Created    *time.Time `json:"created_at,omitempty"`
}

func toAttestationResponse(att *models.Attestation) attestationResponse {
	return attestationResponse{
		Id:         att.Id,
		SubjectId:  att.SubjectId,
		AttesterId: att.AttesterId,
		Type:       string(att.Type),
		Body:       att.Body,
		Created:    att.Created,
	}
}

type createAttestationRequest struct {
	Subject string `json:"subject"`
	Type    string `json:"attestation_type"`
	Body    string `json:"body"`
}

func (h *Handle) createAttestation(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorId(r.Context())

	var req createAttestationRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	subjectId, err := h.ids.ResolveUserId(r.Context(), req.Subject)
	if err != nil {
		h.writeError(w, err)
		return
	}

	att, err := h.reg.Create(r.Context(), actor, subjectId, models.AttestationType(req.Type), req.Body)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAttestationResponse(att))
}

type editAttestationRequest struct {
	Type *string `json:"attestation_type,omitempty"`
	Body *string `json:"body,omitempty"`
}

func (h *Handle) editAttestation(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorId(r.Context())

	subjectId, err := urlId(r, "subject")
	if err != nil {
		h.writeError(w, err)
		return
	}
	attesterId, err := urlId(r, "attester")
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req editAttestationRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	var params attest.EditParams
	if req.Type != nil {
		typ := models.AttestationType(*req.Type)
		params.Type = &typ
	}
	params.Body = req.Body

	att, err := h.reg.Edit(r.Context(), actor, subjectId, attesterId, params)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAttestationResponse(att))
}

func (h *Handle) attestationsForSubject(w http.ResponseWriter, r *http.Request) {
	id, err := urlId(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	attestations, err := h.reg.ForSubject(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := make([]attestationResponse, 0, len(attestations))
	for i := range attestations {
		resp = append(resp, toAttestationResponse(&attestations[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handle) attestationsByAttester(w http.ResponseWriter, r *http.Request) {
	id, err := urlId(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	attestations, err := h.reg.ByAttester(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := make([]attestationResponse, 0, len(attestations))
	for i := range attestations {
		resp = append(resp, toAttestationResponse(&attestations[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}
