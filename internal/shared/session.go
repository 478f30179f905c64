package shared

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ownerdesk/ownerdesk/internal/identity"
)

// FlashMessage represents a one-time notification stored in session.
type FlashMessage struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// SessionManager orchestrates cookie based sessions backed by Redis. The
// session payload carries the identity record; the auth token lives under a
// separate key with its own shorter lifetime, standing in for the source
// system's tab-scoped store.
type SessionManager struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	tokenTTL   time.Duration
	secure     bool
	secret     []byte
}

// Session holds per-request session data.
type Session struct {
	ID        string
	values    map[string]string
	identity  string
	flashes   []FlashMessage
	isNew     bool
	dirty     bool
	destroyed bool
}

type sessionPayload struct {
	Values   map[string]string `json:"values"`
	Identity string            `json:"identity"`
	Flashes  []FlashMessage    `json:"flashes"`
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, cookieName string, secret string, ttl, tokenTTL time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		client:     client,
		cookieName: cookieName,
		ttl:        ttl,
		tokenTTL:   tokenTTL,
		secure:     secure,
		secret:     []byte(secret),
	}
}

// Load loads or creates a new session for request.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return sm.newSession(), nil
		}
		return nil, err
	}

	payload, err := sm.client.Get(ctx, sm.sessionKey(cookie.Value)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			sess := sm.newSession()
			sess.ID = cookie.Value
			return sess, nil
		}
		return nil, err
	}

	var stored sessionPayload
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, err
	}

	sess := &Session{
		ID:       cookie.Value,
		values:   stored.Values,
		identity: stored.Identity,
		flashes:  stored.Flashes,
	}
	return sess, nil
}

// Commit persists the session and writes cookie headers as needed.
func (sm *SessionManager) Commit(ctx context.Context, w http.ResponseWriter, r *http.Request, sess *Session) error {
	if sess == nil {
		return nil
	}

	if sess.destroyed {
		if err := sm.client.Del(ctx, sm.sessionKey(sess.ID), sm.tokenKey(sess.ID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		http.SetCookie(w, &http.Cookie{
			Name:     sm.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   sm.secure,
			SameSite: http.SameSiteStrictMode,
		})
		return nil
	}

	if sess.isNew && sess.ID == "" {
		sess.ID = sm.generateSessionID()
	}

	if sess.dirty || sess.isNew {
		data, err := json.Marshal(sessionPayload{Values: sess.values, Identity: sess.identity, Flashes: sess.flashes})
		if err != nil {
			return err
		}
		if err := sm.client.Set(ctx, sm.sessionKey(sess.ID), data, sm.ttl).Err(); err != nil {
			return err
		}
		sess.dirty = false
	}

	if sess.ID != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     sm.cookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			Secure:   sm.secure,
			SameSite: http.SameSiteStrictMode,
			Expires:  time.Now().Add(sm.ttl),
		})
	}

	// Flashes are delivered once, then dropped from the stored payload.
	if len(sess.flashes) > 0 {
		sess.flashes = nil
		data, _ := json.Marshal(sessionPayload{Values: sess.values, Identity: sess.identity})
		_ = sm.client.Set(ctx, sm.sessionKey(sess.ID), data, sm.ttl).Err()
	}

	return nil
}

// Destroy marks the session for deletion. Commit removes both the session
// payload and the token key.
func (sm *SessionManager) Destroy(sess *Session) {
	if sess == nil {
		return
	}
	sess.destroyed = true
}

// SetToken stores the opaque auth token for this session. The token key
// expires independently of the session itself.
func (sm *SessionManager) SetToken(ctx context.Context, sess *Session, token string) error {
	if sess == nil || sess.ID == "" {
		return errors.New("session missing")
	}
	return sm.client.Set(ctx, sm.tokenKey(sess.ID), token, sm.tokenTTL).Err()
}

// Token returns the stored auth token, or empty when absent or expired.
func (sm *SessionManager) Token(ctx context.Context, sess *Session) string {
	if sess == nil || sess.ID == "" {
		return ""
	}
	token, err := sm.client.Get(ctx, sm.tokenKey(sess.ID)).Result()
	if err != nil {
		return ""
	}
	return token
}

// ClearAuth removes the identity record and the token together, without
// destroying the rest of the session.
func (sm *SessionManager) ClearAuth(ctx context.Context, sess *Session) error {
	if sess == nil {
		return nil
	}
	sess.ClearIdentity()
	if sess.ID == "" {
		return nil
	}
	if err := sm.client.Del(ctx, sm.tokenKey(sess.ID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// TTL exposes the configured session lifetime.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

// CookieName returns the cookie identifier used for sessions.
func (sm *SessionManager) CookieName() string {
	return sm.cookieName
}

// Session helpers

// Set stores a key-value pair.
func (s *Session) Set(key, value string) {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	s.dirty = true
}

// Get retrieves a value.
func (s *Session) Get(key string) string {
	if s.values == nil {
		return ""
	}
	return s.values[key]
}

// Delete removes a value.
func (s *Session) Delete(key string) {
	if s.values == nil {
		return
	}
	delete(s.values, key)
	s.dirty = true
}

// SetIdentity replaces the persisted identity record wholesale.
func (s *Session) SetIdentity(rec identity.Record) error {
	raw, err := rec.Encode()
	if err != nil {
		return err
	}
	s.identity = raw
	s.dirty = true
	return nil
}

// IdentityRaw returns the serialized identity payload, empty when absent.
func (s *Session) IdentityRaw() string {
	return s.identity
}

// ClearIdentity removes the identity record.
func (s *Session) ClearIdentity() {
	if s.identity == "" {
		return
	}
	s.identity = ""
	s.dirty = true
}

// AddFlash queues a flash message.
func (s *Session) AddFlash(msg FlashMessage) {
	s.flashes = append(s.flashes, msg)
	s.dirty = true
}

// PopFlash retrieves and clears the oldest flash message.
func (s *Session) PopFlash() *FlashMessage {
	if len(s.flashes) == 0 {
		return nil
	}
	msg := s.flashes[0]
	s.flashes = s.flashes[1:]
	s.dirty = true
	return &msg
}

func (sm *SessionManager) newSession() *Session {
	return &Session{
		ID:     sm.generateSessionID(),
		values: make(map[string]string),
		isNew:  true,
		dirty:  true,
	}
}

func (sm *SessionManager) sessionKey(id string) string {
	return "session:" + id
}

func (sm *SessionManager) tokenKey(id string) string {
	return "token:" + id
}

func (sm *SessionManager) generateSessionID() string {
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return base64.RawURLEncoding.EncodeToString([]byte(time.Now().Format(time.RFC3339Nano)))
	}
	if len(sm.secret) > 0 {
		for i := range b {
			b[i] ^= sm.secret[i%len(sm.secret)]
		}
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
