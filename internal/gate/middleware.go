package gate

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ownerdesk/ownerdesk/internal/identity"
	"github.com/ownerdesk/ownerdesk/internal/shared"
)

type roleContextKey struct{}

// ContextWithRole stores the admitted role in context.
func ContextWithRole(ctx context.Context, role identity.Role) context.Context {
	return context.WithValue(ctx, roleContextKey{}, role)
}

// RoleFromContext extracts the admitted role, RoleNone when absent.
func RoleFromContext(ctx context.Context) identity.Role {
	role, _ := ctx.Value(roleContextKey{}).(identity.Role)
	return role
}

// Middleware guards a route subtree. Denied requests, including any
// sub-path of the protected area, redirect to signInPath.
type Middleware struct {
	Gate       *Gate
	SignInPath string
	Logger     *slog.Logger
}

// Require wraps a handler subtree behind the gate.
func (m Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := ""
		if sess := shared.SessionFromContext(r.Context()); sess != nil {
			raw = sess.IdentityRaw()
		}
		decision := m.Gate.Evaluate(raw)
		if decision.State != StateGranted {
			if m.Logger != nil {
				m.Logger.Info("gate denied",
					slog.String("path", r.URL.Path),
					slog.String("role", string(decision.Role)))
			}
			http.Redirect(w, r, m.SignInPath, http.StatusSeeOther)
			return
		}
		ctx := ContextWithRole(r.Context(), decision.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
