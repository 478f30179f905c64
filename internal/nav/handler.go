package nav

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ownerdesk/ownerdesk/internal/identity"
	"github.com/ownerdesk/ownerdesk/internal/platform/httpx"
	"github.com/ownerdesk/ownerdesk/internal/shared"
)

// Handler serves the role-filtered navigation tree.
type Handler struct {
	logger *slog.Logger
	cache  *FilterCache
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, cache *FilterCache) *Handler {
	return &Handler{logger: logger, cache: cache}
}

// MountRoutes registers navigation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listRoutes)
}

type navResponse struct {
	Role   identity.Role `json:"role"`
	Routes []Descriptor  `json:"routes"`
}

func (h *Handler) listRoutes(w http.ResponseWriter, r *http.Request) {
	role := identity.RoleNone
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		role = identity.ResolveRole(sess.IdentityRaw())
	}
	visible := h.cache.Visible(role)
	httpx.JSON(w, http.StatusOK, navResponse{Role: role, Routes: visible.Entries()})
}
