package login

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ownerdesk/ownerdesk/internal/identity"
	"github.com/ownerdesk/ownerdesk/internal/nav"
	"github.com/ownerdesk/ownerdesk/internal/platform/httpx"
	"github.com/ownerdesk/ownerdesk/internal/shared"
	"github.com/ownerdesk/ownerdesk/internal/upstream"
)

// Handler wires HTTP endpoints for the sign-in and sign-out flows.
type Handler struct {
	logger     *slog.Logger
	controller *Controller
	sessions   *shared.SessionManager
	onSignOut  []func(sessionID string)
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, controller *Controller, sessions *shared.SessionManager) *Handler {
	return &Handler{logger: logger, controller: controller, sessions: sessions}
}

// OnSignOut registers a cleanup hook invoked with the session ID whenever a
// session signs out. Used to release per-session state held elsewhere.
func (h *Handler) OnSignOut(fn func(sessionID string)) {
	h.onSignOut = append(h.onSignOut, fn)
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/sign-in", h.signIn)
	r.Post("/sign-out", h.signOut)
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	creds, ok := decodeCredentials(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed credentials")
		return
	}

	result, err := h.controller.SignIn(r.Context(), creds)
	if err != nil {
		h.respondFailure(w, err)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during sign in")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	// Token and identity are two back-to-back writes; logout clears them
	// together.
	if err := h.sessions.SetToken(r.Context(), sess, result.Token); err != nil {
		h.logger.Error("persist token", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if err := sess.SetIdentity(identity.Record{
		Role:         result.Role,
		ID:           result.ID,
		MobileNumber: creds.MobileNumber,
	}); err != nil {
		h.logger.Error("persist identity", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Welcome back"})

	// Full redirect so the access gate re-evaluates the fresh identity.
	http.Redirect(w, r, nav.DashboardPath, http.StatusSeeOther)
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.sessions.ClearAuth(r.Context(), sess); err != nil {
			h.logger.Warn("clear auth", slog.Any("error", err))
		}
		h.sessions.Destroy(sess)
		for _, fn := range h.onSignOut {
			fn(sess.ID)
		}
	}
	http.Redirect(w, r, nav.SignInPath, http.StatusSeeOther)
}

func (h *Handler) respondFailure(w http.ResponseWriter, err error) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", vErr.Message)
		return
	}
	if upstream.IsRateLimited(err) {
		httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests",
			upstream.Message(err, "Too many login attempts, try again later"))
		return
	}
	httpx.Problem(w, http.StatusUnauthorized, "Unauthorized",
		upstream.Message(err, "Login failed, check your credentials"))
}

func decodeCredentials(r *http.Request) (Credentials, bool) {
	var creds Credentials
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		if err := httpx.DecodeJSON(r, &creds); err != nil {
			return Credentials{}, false
		}
		return creds, true
	}
	if err := r.ParseForm(); err != nil {
		return Credentials{}, false
	}
	creds.MobileNumber = r.PostFormValue("mobileNumber")
	creds.Password = r.PostFormValue("password")
	return creds, true
}
