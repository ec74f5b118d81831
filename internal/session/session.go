package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/haswanth04/examctl/internal/model"
)

// Store holds the authentication token and user identity. Both live in
// memory and in the state database; they are always written and cleared
// together. Consumers read through accessors and may subscribe to change
// notifications; only Login and Logout mutate.
type Store struct {
	db *DB

	mu    sync.Mutex
	token string
	user  *model.User
	subs  []func()
}

// NewStore builds a session store over the state database and rehydrates
// any persisted session synchronously, so the very first read after process
// start already reflects a prior login.
func NewStore(db *DB) (*Store, error) {
	s := &Store{db: db}

	token, userJSON, err := db.readSession()
	if err != nil {
		return nil, fmt.Errorf("rehydrate session: %w", err)
	}
	if token == "" || userJSON == "" {
		// A partial record means interrupted storage; treat it as no session.
		if token != "" || userJSON != "" {
			slog.Warn("discarding partial session record")
			_ = db.clearSession()
		}
		return s, nil
	}

	var u model.User
	if err := json.Unmarshal([]byte(userJSON), &u); err != nil {
		slog.Warn("discarding unreadable session record", "error", err)
		_ = db.clearSession()
		return s, nil
	}

	s.token = token
	s.user = &u
	return s, nil
}

// Login persists the token and identity and updates in-memory state.
// A storage failure is reported without touching the current state.
func (s *Store) Login(token string, user model.User) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	if err := s.db.writeSession(token, string(userJSON)); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	// A login starts a fresh session; cached responses from a previous
	// session (possibly another role) must not leak into it.
	if err := s.db.ClearCache(); err != nil {
		slog.Warn("failed to clear session cache", "error", err)
	}

	s.mu.Lock()
	s.token = token
	s.user = &user
	s.mu.Unlock()

	s.notify()
	return nil
}

// Logout clears both records from durable storage and memory along with the
// session-scoped cache. Idempotent; storage errors are logged, not surfaced,
// because in-memory state is cleared unconditionally.
func (s *Store) Logout() {
	if err := s.db.clearSession(); err != nil {
		slog.Warn("failed to clear persisted session", "error", err)
	}
	if err := s.db.ClearCache(); err != nil {
		slog.Warn("failed to clear session cache", "error", err)
	}

	s.mu.Lock()
	changed := s.token != "" || s.user != nil
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// CurrentUser returns the stored identity, or nil when logged out.
func (s *Store) CurrentUser() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Token returns the bearer token, or empty when logged out.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// IsAuthenticated reports whether both token and identity are present.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != "" && s.user != nil
}

// TokenExpiry returns the bearer token's expiry time when the token is a JWT
// carrying an exp claim. The claim is read without signature verification;
// the token stays opaque otherwise and ok is false.
func (s *Store) TokenExpiry() (time.Time, bool) {
	token := s.Token()
	if token == "" {
		return time.Time{}, false
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Subscribe registers a change listener. Every Login and state-changing
// Logout invokes each listener exactly once.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Store) notify() {
	s.mu.Lock()
	subs := make([]func(), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}
