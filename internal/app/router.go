package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ownerdesk/ownerdesk/internal/directory"
	"github.com/ownerdesk/ownerdesk/internal/gate"
	"github.com/ownerdesk/ownerdesk/internal/identity"
	"github.com/ownerdesk/ownerdesk/internal/login"
	"github.com/ownerdesk/ownerdesk/internal/nav"
	"github.com/ownerdesk/ownerdesk/internal/observability"
	"github.com/ownerdesk/ownerdesk/internal/platform/httpx"
	"github.com/ownerdesk/ownerdesk/internal/shared"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	SessionManager   *shared.SessionManager
	CSRFManager      *shared.CSRFManager
	LoginHandler     *login.Handler
	NavHandler       *nav.Handler
	DirectoryHandler *directory.Handler
	GateMiddleware   gate.Middleware
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with gateway defaults. The navigation
// surface has two top-level areas: the public auth area and the gated owner
// area. Unmatched paths redirect to sign-in; unmatched owner sub-paths
// redirect to the owner dashboard.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", func(ar chi.Router) {
		params.LoginHandler.MountRoutes(ar)
		ar.Get("/session", func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			csrfToken, _ := params.CSRFManager.EnsureToken(r.Context(), sess)
			payload := map[string]any{
				"role":      identity.RoleNone,
				"csrfToken": csrfToken,
			}
			if sess != nil {
				payload["role"] = identity.ResolveRole(sess.IdentityRaw())
				if flash := sess.PopFlash(); flash != nil {
					payload["flash"] = flash
				}
			}
			httpx.JSON(w, http.StatusOK, payload)
		})
	})

	r.Route("/api/nav", params.NavHandler.MountRoutes)

	r.Route("/owner", func(or chi.Router) {
		or.Use(params.GateMiddleware.Require)
		or.Get("/dashboard", func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			rec, _ := identity.Decode(sess.IdentityRaw())
			httpx.JSON(w, http.StatusOK, map[string]any{
				"role":         gate.RoleFromContext(r.Context()),
				"id":           rec.ID,
				"mobileNumber": rec.MobileNumber,
			})
		})
		or.Route("/users", params.DirectoryHandler.MountRoutes)
		or.NotFound(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, nav.DashboardPath, http.StatusSeeOther)
		})
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, nav.SignInPath, http.StatusSeeOther)
	})

	return r
}
