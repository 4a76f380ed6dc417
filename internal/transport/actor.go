package transport

import (
	"context"
	"net/http"
	"strings"
)

// ActorHeader names the member on whose behalf a request is made. The value
// is taken at face value; authentication happens in front of this server.
const ActorHeader = "X-Member-ID"

type actorKey struct{}

// ActorFromContext returns the acting member ID from context, if present.
func ActorFromContext(ctx context.Context) (string, bool) {
	actorID, ok := ctx.Value(actorKey{}).(string)
	return actorID, ok
}

// ActorMiddleware extracts the X-Member-ID header and stores it in context.
func ActorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actorID := strings.TrimSpace(r.Header.Get(ActorHeader))
		if actorID != "" {
			ctx := context.WithValue(r.Context(), actorKey{}, actorID)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// actorOr returns explicit when set, otherwise the actor from context.
func actorOr(ctx context.Context, explicit string) string {
	if s := strings.TrimSpace(explicit); s != "" {
		return s
	}
	actorID, _ := ActorFromContext(ctx)
	return actorID
}
