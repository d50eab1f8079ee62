package session

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/taskboard/client-go/internal/api"
)

// Durable storage keys. The token is stored raw, the user as JSON.
const (
	tokenKey = "auth_token"
	userKey  = "auth_user"
)

// Resettable is implemented by entity stores that must be cleared when
// the session ends. The session store holds these collaborators
// explicitly instead of reaching into other stores by name.
type Resettable interface {
	Reset()
}

// Store owns the session: token and user in memory, mirrored into the
// durable KV, plus the logout cascade over registered stores.
type Store struct {
	mu           sync.RWMutex
	auth         *api.AuthService
	kv           KV
	log          zerolog.Logger
	token        string
	user         *api.User
	resettables  []Resettable
	onSessionEnd func()
}

// Option configures the session store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithSessionEndHook sets the callback fired after a forced (401)
// teardown, so the embedder can navigate back to its login entry point.
func WithSessionEndHook(fn func()) Option {
	return func(s *Store) { s.onSessionEnd = fn }
}

// New creates the session store and rehydrates any persisted session.
func New(auth *api.AuthService, kv KV, opts ...Option) *Store {
	s := &Store{
		auth: auth,
		kv:   kv,
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.CheckAuth(context.Background()); err != nil {
		s.log.Warn().Err(err).Msg("failed to rehydrate session")
	}
	return s
}

// Register adds entity stores to be reset when the session ends.
func (s *Store) Register(stores ...Resettable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resettables = append(s.resettables, stores...)
}

// Login authenticates and persists the resulting session. On failure
// any prior session is left untouched.
func (s *Store) Login(ctx context.Context, creds Credentials) (*api.LoginResult, error) {
	res, err := s.auth.Login(ctx, api.Credentials(creds))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.token = res.Token
	user := res.User
	s.user = &user
	s.mu.Unlock()

	if err := s.kv.Set(ctx, tokenKey, res.Token); err != nil {
		s.log.Warn().Err(err).Msg("failed to persist token")
	}
	if raw, err := json.Marshal(res.User); err == nil {
		if err := s.kv.Set(ctx, userKey, string(raw)); err != nil {
			s.log.Warn().Err(err).Msg("failed to persist user")
		}
	}

	return res, nil
}

// Logout ends the session. The remote call is best-effort: a network
// failure is logged and absorbed because local teardown must happen
// unconditionally.
func (s *Store) Logout(ctx context.Context) {
	if err := s.auth.Logout(ctx); err != nil {
		s.log.Error().Err(err).Msg("remote logout failed")
	}
	s.teardown(ctx)
}

// ForceLogout tears down the session without a remote call. It is the
// 401 handler: the backend has already invalidated the session, so only
// local state needs clearing. Fires the session-end hook afterwards.
func (s *Store) ForceLogout() {
	s.teardown(context.Background())
	if s.onSessionEnd != nil {
		s.onSessionEnd()
	}
}

// teardown resets registered stores and clears memory and durable state.
func (s *Store) teardown(ctx context.Context) {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	stores := make([]Resettable, len(s.resettables))
	copy(stores, s.resettables)
	s.mu.Unlock()

	for _, store := range stores {
		store.Reset()
	}

	if err := s.kv.Delete(ctx, tokenKey); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear persisted token")
	}
	if err := s.kv.Delete(ctx, userKey); err != nil {
		s.log.Warn().Err(err).Msg("failed to clear persisted user")
	}
}

// CheckAuth rehydrates the in-memory session from durable storage when
// both keys are present, and clears it otherwise. Used at application
// start to recover a session across restarts.
func (s *Store) CheckAuth(ctx context.Context) error {
	token, err := s.kv.Get(ctx, tokenKey)
	if err != nil {
		return err
	}
	rawUser, err := s.kv.Get(ctx, userKey)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if token == "" || rawUser == "" {
		s.token = ""
		s.user = nil
		return nil
	}

	var user api.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		s.token = ""
		s.user = nil
		return err
	}

	s.token = token
	s.user = &user
	return nil
}

// IsAuthenticated reports whether a token is present.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Token returns the current token, implementing api.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the current user, or nil when unauthenticated.
func (s *Store) User() *api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	user := *s.user
	return &user
}

// Credentials are the login inputs, re-exported so callers of the
// session store do not need to import the api package for login alone.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
