package shared

import (
	"context"
	"net/http"

	"hrms/internal/requestctx"
	"hrms/internal/transport/http/middleware"
)

type Auditor interface {
	Record(ctx context.Context, actorID, action, entityType, entityID, requestID, ip string, before, after any) error
}

// Audit records a change made through r. A failed write is logged and does
// not fail the request.
func Audit(r *http.Request, auditor Auditor, action, entityType, entityID string, before, after any) {
	if auditor == nil {
		return
	}
	ctx := r.Context()
	user, _ := middleware.GetUser(ctx)
	err := auditor.Record(ctx, user.UserID, action, entityType, entityID, requestctx.GetRequestID(ctx), middleware.ClientIP(r), before, after)
	if err != nil {
		requestctx.Logger(ctx).Warn("audit record failed", "action", action, "entityId", entityID, "err", err)
	}
}
