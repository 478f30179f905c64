package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/ownerdesk/ownerdesk/internal/identity"
	"github.com/ownerdesk/ownerdesk/internal/shared"
)

type directoryFixture struct {
	router   chi.Router
	sessions *shared.SessionManager
	sess     *shared.Session
	api      *mockAPI
}

func newDirectoryFixture(t *testing.T, api *mockAPI) *directoryFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sm := shared.NewSessionManager(client, "ownerdesk_session", "test-secret", time.Hour, 30*time.Minute, false)
	sess := &shared.Session{ID: "sess-1"}
	if err := sess.SetIdentity(identity.Record{Role: "owner", ID: "owner-1", MobileNumber: "1234567890"}); err != nil {
		t.Fatalf("seed identity: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, api, sm, Options{DebounceDelay: time.Minute, BannerTTL: time.Minute})

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(shared.ContextWithSession(req.Context(), sess)))
		})
	})
	handler.MountRoutes(r)

	return &directoryFixture{router: r, sessions: sm, sess: sess, api: api}
}

func (f *directoryFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) Snapshot {
	t.Helper()
	var snap Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v: %s", err, rec.Body.String())
	}
	return snap
}

func TestShowLoadsOnFirstVisit(t *testing.T) {
	api := &mockAPI{users: []User{
		{ID: "u1", FirstName: "Amit", LastName: "Basu", Email: "amit@example.com"},
		{ID: "u2", FirstName: "Zoe", LastName: "Adams", Email: "zoe@example.com"},
	}}
	fixture := newDirectoryFixture(t, api)

	rec := fixture.do(t, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	snap := decodeSnapshot(t, rec)
	if snap.FetchStatus != FetchLoaded {
		t.Fatalf("expected loaded, got %s", snap.FetchStatus)
	}
	if len(snap.Users) != 2 || snap.Users[0].ID != "u1" {
		t.Fatalf("unexpected page: %+v", snap.Users)
	}

	// A second visit serves the cached collection.
	rec = fixture.do(t, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if api.listCalls != 1 {
		t.Fatalf("expected a single fetch, got %d", api.listCalls)
	}
}

func TestUpdateViewSearchAndPaging(t *testing.T) {
	users := make([]User, 13)
	for i := range users {
		users[i] = User{
			ID:        string(rune('a' + i)),
			FirstName: string(rune('a' + i)),
			LastName:  "User",
			Email:     string(rune('a'+i)) + "@example.com",
			Status:    StatusActive,
		}
	}
	fixture := newDirectoryFixture(t, &mockAPI{users: users})
	fixture.do(t, http.MethodGet, "/", nil)

	page := 3
	rec := fixture.do(t, http.MethodPatch, "/view", map[string]any{"page": page})
	snap := decodeSnapshot(t, rec)
	if snap.View.CurrentPage != 3 {
		t.Fatalf("expected page 3, got %d", snap.View.CurrentPage)
	}
	if len(snap.Users) != 3 {
		t.Fatalf("expected 3 users on the last page, got %d", len(snap.Users))
	}

	rec = fixture.do(t, http.MethodPatch, "/view", map[string]any{"move": "next"})
	snap = decodeSnapshot(t, rec)
	if snap.View.CurrentPage != 3 {
		t.Fatalf("expected next on last page to be a no-op, got %d", snap.View.CurrentPage)
	}
}

func TestDeleteConfirmRequiresToken(t *testing.T) {
	api := &mockAPI{users: []User{{ID: "u1", FirstName: "Asha", LastName: "Verma", Email: "asha@example.com"}}}
	fixture := newDirectoryFixture(t, api)
	fixture.do(t, http.MethodGet, "/", nil)
	fixture.do(t, http.MethodPost, "/u1/delete", nil)

	rec := fixture.do(t, http.MethodPost, "/delete/confirm", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a live token, got %d", rec.Code)
	}
	if api.deleteCalls != 0 {
		t.Fatalf("expected no delete call, got %d", api.deleteCalls)
	}

	if err := fixture.sessions.SetToken(context.Background(), fixture.sess, "t1"); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	rec = fixture.do(t, http.MethodPost, "/delete/confirm", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", rec.Code, rec.Body.String())
	}
	if api.deleteCalls != 1 {
		t.Fatalf("expected one delete call, got %d", api.deleteCalls)
	}
}

func TestCreateHandlerValidation(t *testing.T) {
	api := &mockAPI{}
	fixture := newDirectoryFixture(t, api)

	rec := fixture.do(t, http.MethodPost, "/", UserInput{
		FirstName:       "Nina",
		LastName:        "Rao",
		Email:           "nina@example.com",
		Password:        "Abcdefg1",
		ConfirmPassword: "Different1",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if api.createCalls != 0 {
		t.Fatalf("expected no create call, got %d", api.createCalls)
	}

	rec = fixture.do(t, http.MethodPost, "/", validInput())
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func newBareHandler(t *testing.T, api *mockAPI, sessionTTL time.Duration) *Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sm := shared.NewSessionManager(client, "ownerdesk_session", "test-secret", sessionTTL, sessionTTL, false)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(logger, api, sm, Options{DebounceDelay: time.Minute, BannerTTL: time.Minute})
}

func TestReleaseDropsSessionController(t *testing.T) {
	h := newBareHandler(t, &mockAPI{}, time.Hour)

	sess := &shared.Session{ID: "sess-release"}
	first := h.controllerFor(sess)

	h.Release(sess.ID)
	h.mu.Lock()
	_, held := h.controllers[sess.ID]
	h.mu.Unlock()
	if held {
		t.Fatal("expected released controller to leave the map")
	}

	// Releasing an unknown session is a no-op.
	h.Release("ghost")

	if second := h.controllerFor(sess); second == first {
		t.Fatal("expected a fresh controller after release")
	}
}

func TestSweepEvictsExpiredControllers(t *testing.T) {
	h := newBareHandler(t, &mockAPI{}, 10*time.Millisecond)

	h.controllerFor(&shared.Session{ID: "stale"})
	time.Sleep(30 * time.Millisecond)
	h.controllerFor(&shared.Session{ID: "fresh"})

	h.mu.Lock()
	_, staleHeld := h.controllers["stale"]
	_, freshHeld := h.controllers["fresh"]
	h.mu.Unlock()
	if staleHeld {
		t.Fatal("expected the expired controller to be swept")
	}
	if !freshHeld {
		t.Fatal("expected the live controller to survive the sweep")
	}
}

func TestOpenEditUnknownUser(t *testing.T) {
	fixture := newDirectoryFixture(t, &mockAPI{})
	fixture.do(t, http.MethodGet, "/", nil)

	rec := fixture.do(t, http.MethodPost, "/form/edit/ghost", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
