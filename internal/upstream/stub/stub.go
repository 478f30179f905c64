// Package stub is a development stand-in for the remote user API. It serves
// the exact envelope shapes the gateway's clients have to parse, including
// the rate-limited login path.
package stub

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ownerdesk/ownerdesk/internal/platform/httpx"
)

// User is the wire shape of a directory entry.
type User struct {
	ID           string `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	Role         string `json:"role"`
	Status       string `json:"status,omitempty"`
	IsVerified   bool   `json:"isVerified"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// Server holds the in-memory directory and the owner credential.
type Server struct {
	logger      *slog.Logger
	ownerMobile string
	ownerHash   []byte
	ownerID     string

	mu    sync.Mutex
	users map[string]User
	order []string
}

// New seeds a Server. The owner password is hashed at startup so the stored
// credential is never plaintext, matching how a real upstream would hold it.
func New(logger *slog.Logger, ownerMobile, ownerPassword string) (*Server, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(ownerPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	s := &Server{
		logger:      logger,
		ownerMobile: ownerMobile,
		ownerHash:   hash,
		ownerID:     uuid.NewString(),
		users:       make(map[string]User),
	}
	s.seed()
	return s, nil
}

func (s *Server) seed() {
	for _, u := range []User{
		{FirstName: "Asha", LastName: "Verma", Email: "asha.verma@example.com", Phone: "9876501234", Role: "admin", Status: "Active", IsVerified: true},
		{FirstName: "Rohan", LastName: "Mehta", Email: "rohan.mehta@example.com", Phone: "9876505678", Role: "user", Status: "Active", IsVerified: false},
		{FirstName: "Priya", LastName: "Nair", Email: "priya.nair@example.com", Role: "user", Status: "Inactive", IsVerified: true},
		{FirstName: "Dev", LastName: "Kapoor", Email: "dev.kapoor@example.com", Role: "super admin", Status: "Pending", IsVerified: false},
	} {
		u.ID = uuid.NewString()
		s.users[u.ID] = u
		s.order = append(s.order, u.ID)
	}
}

// Router builds the stub's HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	loginLimiter := httprate.Limit(5, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))
	r.With(loginLimiter).Post("/api/user/login", s.login)

	r.Route("/api/users", func(r chi.Router) {
		r.Get("/", s.list)
		r.Post("/", s.create)
		r.Patch("/{id}", s.update)
		r.Delete("/{id}", s.remove)
	})
	return r
}

type message struct {
	Message string `json:"message"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MobileNumber string `json:"mobileNumber"`
		Password     string `json:"password"`
		Role         string `json:"role"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.JSON(w, http.StatusBadRequest, message{Message: "Malformed login payload"})
		return
	}
	if body.MobileNumber != s.ownerMobile ||
		bcrypt.CompareHashAndPassword(s.ownerHash, []byte(body.Password)) != nil {
		httpx.JSON(w, http.StatusUnauthorized, message{Message: "Invalid mobile number or password"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"result": map[string]string{
			"token": uuid.NewString(),
			"role":  strings.ToLower(body.Role),
			"id":    s.ownerID,
		},
	})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	users := make([]User, 0, len(s.order))
	for _, id := range s.order {
		users = append(users, s.users[id])
	}
	s.mu.Unlock()
	httpx.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"users": users}})
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var u User
	if err := httpx.DecodeJSON(r, &u); err != nil {
		httpx.JSON(w, http.StatusBadRequest, message{Message: "Malformed user payload"})
		return
	}
	if u.FirstName == "" || u.LastName == "" || u.Email == "" {
		httpx.JSON(w, http.StatusUnprocessableEntity, message{Message: "firstName, lastName and email are required"})
		return
	}
	u.ID = uuid.NewString()
	if u.Role == "" {
		u.Role = "user"
	}

	s.mu.Lock()
	s.users[u.ID] = u
	s.order = append(s.order, u.ID)
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("stub user created", slog.String("id", u.ID))
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"data": u})
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch User
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.JSON(w, http.StatusBadRequest, message{Message: "Malformed user payload"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.users[id]
	if !ok {
		httpx.JSON(w, http.StatusNotFound, message{Message: "User not found"})
		return
	}
	if patch.FirstName != "" {
		current.FirstName = patch.FirstName
	}
	if patch.LastName != "" {
		current.LastName = patch.LastName
	}
	if patch.Email != "" {
		current.Email = patch.Email
	}
	if patch.Phone != "" {
		current.Phone = patch.Phone
	}
	if patch.Role != "" {
		current.Role = patch.Role
	}
	if patch.Status != "" {
		current.Status = patch.Status
	}
	s.users[id] = current
	httpx.JSON(w, http.StatusOK, map[string]any{"data": current})
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		httpx.JSON(w, http.StatusNotFound, message{Message: "User not found"})
		return
	}
	delete(s.users, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
