package web

import (
	"errors"
	"net/http"

	"quorum.wiki/core/gatehouse/ancestry"
)

type chainResponse struct {
	Chain     []int64 `json:"chain"`
	Truncated bool    `json:"truncated,omitempty"`
}

func (h *Handle) chain(w http.ResponseWriter, r *http.Request) {
	id, err := urlId(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	chain, err := h.res.ResolveChain(r.Context(), id)
	if err != nil && !errors.Is(err, ancestry.ErrChainCycle) {
		h.writeError(w, err)
		return
	}

	// a cycle yields the walkable prefix; flag it rather than failing
	writeJSON(w, http.StatusOK, chainResponse{
		Chain:     chain,
		Truncated: errors.Is(err, ancestry.ErrChainCycle),
	})
}
