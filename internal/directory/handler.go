package directory

import (
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ownerdesk/ownerdesk/internal/identity"
	"github.com/ownerdesk/ownerdesk/internal/platform/httpx"
	"github.com/ownerdesk/ownerdesk/internal/shared"
	"github.com/ownerdesk/ownerdesk/internal/upstream"
)

// Handler exposes the directory screen as JSON endpoints. Each session gets
// its own controller instance, mirroring one mounted screen per browser
// session. Controllers are released on sign-out and swept once their
// session TTL lapses, so an abandoned session never pins a user list.
type Handler struct {
	logger   *slog.Logger
	api      API
	sessions *shared.SessionManager
	opts     Options

	mu          sync.Mutex
	controllers map[string]*controllerEntry
}

type controllerEntry struct {
	ctrl     *Controller
	lastSeen time.Time
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, api API, sessions *shared.SessionManager, opts Options) *Handler {
	return &Handler{
		logger:      logger,
		api:         api,
		sessions:    sessions,
		opts:        opts,
		controllers: make(map[string]*controllerEntry),
	}
}

// MountRoutes registers directory routes. The caller mounts them behind the
// access gate.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.show)
	r.Post("/", h.create)
	r.Post("/reload", h.reload)
	r.Patch("/view", h.updateView)
	r.Post("/form/add", h.openAdd)
	r.Post("/form/edit/{id}", h.openEdit)
	r.Post("/form/close", h.closeForm)
	r.Patch("/{id}", h.update)
	r.Post("/{id}/delete", h.deleteRequest)
	r.Post("/delete/confirm", h.deleteConfirm)
	r.Post("/delete/cancel", h.deleteCancel)
}

func (h *Handler) controllerFor(sess *shared.Session) *Controller {
	now := time.Now()
	h.mu.Lock()
	defer h.mu.Unlock()
	if entry, ok := h.controllers[sess.ID]; ok {
		entry.lastSeen = now
		return entry.ctrl
	}
	h.sweepLocked(now)
	ctrl := NewController(h.logger, h.api, h.opts)
	h.controllers[sess.ID] = &controllerEntry{ctrl: ctrl, lastSeen: now}
	return ctrl
}

// Release drops and closes the controller for a session. Wired to the
// sign-out flow, which destroys the session itself.
func (h *Handler) Release(sessionID string) {
	h.mu.Lock()
	entry, ok := h.controllers[sessionID]
	if ok {
		delete(h.controllers, sessionID)
	}
	h.mu.Unlock()
	if ok {
		entry.ctrl.Close()
	}
}

// sweepLocked evicts controllers whose session has expired. Sessions that
// sign out are released directly; this catches the ones that just stop
// coming back.
func (h *Handler) sweepLocked(now time.Time) {
	ttl := h.sessions.TTL()
	if ttl <= 0 {
		return
	}
	for id, entry := range h.controllers {
		if now.Sub(entry.lastSeen) > ttl {
			entry.ctrl.Close()
			delete(h.controllers, id)
		}
	}
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	ctrl := h.controllerFor(sess)
	if ctrl.Snapshot().FetchStatus == FetchIdle {
		authed := identity.ResolveRole(sess.IdentityRaw()) != identity.RoleNone
		_ = ctrl.Load(r.Context(), authed)
		ctrl.FlushFilters()
	}
	httpx.JSON(w, http.StatusOK, ctrl.Snapshot())
}

func (h *Handler) reload(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	ctrl := h.controllerFor(sess)
	authed := identity.ResolveRole(sess.IdentityRaw()) != identity.RoleNone
	if err := ctrl.Load(r.Context(), authed); err != nil {
		h.respondState(w, ctrl)
		return
	}
	httpx.JSON(w, http.StatusOK, ctrl.Snapshot())
}

type viewUpdate struct {
	SearchTerm   *string `json:"searchTerm"`
	ActiveFilter *string `json:"activeFilter"`
	Page         *int    `json:"page"`
	Move         string  `json:"move"`
}

func (h *Handler) updateView(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	ctrl := h.controllerFor(sess)

	var upd viewUpdate
	if err := httpx.DecodeJSON(r, &upd); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed view update")
		return
	}
	if upd.SearchTerm != nil {
		ctrl.SetSearch(*upd.SearchTerm)
	}
	if upd.ActiveFilter != nil {
		ctrl.SetFilter(ParseFilterKind(*upd.ActiveFilter))
	}
	switch upd.Move {
	case "next":
		ctrl.NextPage()
	case "prev":
		ctrl.PrevPage()
	}
	if upd.Page != nil {
		ctrl.SelectPage(*upd.Page)
	}
	httpx.JSON(w, http.StatusOK, ctrl.Snapshot())
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	ctrl := h.controllerFor(sess)

	var input UserInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed user payload")
		return
	}
	if err := ctrl.Create(r.Context(), input); err != nil {
		h.respondMutationError(w, ctrl, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, ctrl.Snapshot())
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	ctrl := h.controllerFor(sess)

	var input UserInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed user payload")
		return
	}
	if err := ctrl.Update(r.Context(), chi.URLParam(r, "id"), input); err != nil {
		h.respondMutationError(w, ctrl, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ctrl.Snapshot())
}

func (h *Handler) openAdd(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controllerFor(shared.SessionFromContext(r.Context()))
	ctrl.EnterAdd()
	httpx.JSON(w, http.StatusOK, ctrl.Snapshot())
}

func (h *Handler) openEdit(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controllerFor(shared.SessionFromContext(r.Context()))
	id := chi.URLParam(r, "id")
	if _, ok := ctrl.UserByID(id); !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	ctrl.EnterEdit(id)
	httpx.JSON(w, http.StatusOK, ctrl.Snapshot())
}

func (h *Handler) closeForm(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controllerFor(shared.SessionFromContext(r.Context()))
	ctrl.BackToList()
	httpx.JSON(w, http.StatusOK, ctrl.Snapshot())
}

func (h *Handler) deleteRequest(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controllerFor(shared.SessionFromContext(r.Context()))
	user, ok := ctrl.UserByID(chi.URLParam(r, "id"))
	if !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	ctrl.DeleteRequest(user)
	httpx.JSON(w, http.StatusOK, ctrl.Snapshot())
}

func (h *Handler) deleteConfirm(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	// The destructive path additionally requires a live auth token, which
	// distinguishes "not authenticated" from a merely stale screen.
	if h.sessions.Token(r.Context(), sess) == "" {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	ctrl := h.controllerFor(sess)
	if err := ctrl.DeleteConfirm(r.Context()); err != nil {
		h.respondMutationError(w, ctrl, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ctrl.Snapshot())
}

func (h *Handler) deleteCancel(w http.ResponseWriter, r *http.Request) {
	ctrl := h.controllerFor(shared.SessionFromContext(r.Context()))
	ctrl.DeleteCancel()
	httpx.JSON(w, http.StatusOK, ctrl.Snapshot())
}

// respondMutationError maps controller errors onto problem responses. The
// controller has already folded the failure into its banner state, so the
// body carries both the problem and a consistent next snapshot would be
// available on the following GET.
func (h *Handler) respondMutationError(w http.ResponseWriter, ctrl *Controller, err error) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", vErr.Message)
		return
	}
	if upstream.IsRateLimited(err) {
		httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", upstream.Message(err, "Too many attempts, try again later"))
		return
	}
	httpx.Problem(w, http.StatusBadGateway, "Upstream Failure", upstream.Message(err, "The user service is unavailable"))
}

func (h *Handler) respondState(w http.ResponseWriter, ctrl *Controller) {
	httpx.JSON(w, http.StatusBadGateway, ctrl.Snapshot())
}
