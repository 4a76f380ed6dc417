package mcp

import (
	"context"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ActorHeader carries the acting member ID over HTTP.
const ActorHeader = "X-Member-ID"

type contextKey int

const actorIDKey contextKey = iota

// getActorID extracts the acting member ID from context.
func getActorID(ctx context.Context) string {
	v, _ := ctx.Value(actorIDKey).(string)
	return v
}

// withActorID stores a default actor, used by stdio mode.
func withActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorIDKey, actorID)
}

// actorMiddleware extracts the acting member from the X-Member-ID header
// (HTTP) or _meta.member_id (stdio).
func actorMiddleware(defaultActor string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			actorID := defaultActor

			if extra := req.GetExtra(); extra != nil && extra.Header != nil {
				if v := strings.TrimSpace(extra.Header.Get(ActorHeader)); v != "" {
					actorID = v
				}
			}
			if v := metaActor(req); v != "" {
				actorID = v
			}

			if actorID != "" {
				ctx = withActorID(ctx, actorID)
			}
			return next(ctx, method, req)
		}
	}
}

// metaActor reads _meta.member_id. Some notifications carry nil params
// behind a non-nil interface, so GetMeta may panic.
func metaActor(req sdkmcp.Request) (actorID string) {
	params := req.GetParams()
	if params == nil {
		return ""
	}
	defer func() {
		if recover() != nil {
			actorID = ""
		}
	}()
	if meta := params.GetMeta(); meta != nil {
		if v, ok := meta["member_id"].(string); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// actorOr returns explicit when set, otherwise the actor from context.
func actorOr(ctx context.Context, explicit string) string {
	if s := strings.TrimSpace(explicit); s != "" {
		return s
	}
	return getActorID(ctx)
}
