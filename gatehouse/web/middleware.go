package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"quorum.wiki/core/gatehouse/faults"
)

// ActorHeader carries the authenticated member id, set by the
// identity provider fronting this service. The engine trusts it and
// never handles credentials itself.
const ActorHeader = "X-Gatehouse-Actor"

type actorKey struct{}

func actorId(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(actorKey{}).(int64)
	return id, ok
}

func (h *Handle) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		h.l.LogAttrs(r.Context(), slog.LevelInfo, "",
			slog.Group("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Duration("duration", time.Since(start)),
			),
		)
	})
}

func (h *Handle) RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(ActorHeader)
		if raw == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "actor required"})
			return
		}

		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "bad actor header"})
			return
		}

		ctx := context.WithValue(r.Context(), actorKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handle) RequireElevated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := actorId(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "actor required"})
			return
		}

		elevated, err := h.ids.IsElevated(r.Context(), id)
		if err != nil {
			h.writeError(w, err)
			return
		}
		if !elevated {
			h.writeError(w, fmt.Errorf("elevated role required: %w", faults.ErrAuthorization))
			return
		}

		next.ServeHTTP(w, r)
	})
}
