package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/admin-console/internal"
	"github.com/frahmantamala/admin-console/internal/permission"
	"github.com/frahmantamala/admin-console/internal/transport"
)

// PermissionChecker decides whether a user may perform action on a menu.
type PermissionChecker interface {
	HasPermission(ctx context.Context, userID int64, menuCode string, action permission.Action) (bool, error)
}

var (
	errNoPrincipal  = internal.NewUnauthorizedError("Unauthorized", internal.ErrCodeUnauthenticated)
	errAccessDenied = internal.NewForbiddenError("Forbidden: insufficient permissions", internal.ErrCodeAccessDenied)
)

// ActionForMethod maps reads to READ, deletes to DELETE and everything else
// to WRITE.
func ActionForMethod(method string) permission.Action {
	switch method {
	case http.MethodGet, http.MethodHead:
		return permission.ActionRead
	case http.MethodDelete:
		return permission.ActionDelete
	}
	return permission.ActionWrite
}

// RequireMenuPermission answers 403 unless the caller holds the permission
// for menuCode that the request method implies.
func RequireMenuPermission(checker PermissionChecker, menuCode string, h *transport.BaseHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				h.WriteError(w, errNoPrincipal)
				return
			}

			action := ActionForMethod(r.Method)
			allowed, err := checker.HasPermission(r.Context(), p.UserID, menuCode, action)
			if err != nil {
				h.WriteError(w, err)
				return
			}
			if !allowed {
				h.Logger.LogAttrs(r.Context(), slog.LevelWarn, "access denied: insufficient permissions",
					slog.Int64("user_id", p.UserID),
					slog.String("menu", menuCode),
					slog.String("action", string(action)))
				h.WriteError(w, errAccessDenied)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
