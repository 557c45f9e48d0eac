// Package session holds who the current user is and whether they are
// logged in. A Store is built once per application and passed to whatever
// needs it; there is no package-level state.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"anycomp/internal/apiclient"
	"anycomp/internal/domain"
	"anycomp/internal/nav"
	"anycomp/internal/pkg/jwt"
	"anycomp/internal/tokenstore"
)

const (
	loginFailedMessage    = "Login failed"
	registerFailedMessage = "Registration failed"
)

// State is a snapshot of the session.
type State struct {
	User            *domain.User `json:"user"`
	Token           string       `json:"-"`
	IsAuthenticated bool         `json:"isAuthenticated"`
	IsLoading       bool         `json:"isLoading"`
	Error           string       `json:"error,omitempty"`
}

// Authenticator is the subset of the auth API the store needs.
type Authenticator interface {
	Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResult, error)
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResult, error)
	Me(ctx context.Context) (*domain.User, error)
}

type Store struct {
	auth   Authenticator
	tokens tokenstore.Store
	nav    nav.Navigator
	log    zerolog.Logger

	mu    sync.RWMutex
	state State

	initOnce sync.Once
}

func New(auth Authenticator, tokens tokenstore.Store, n nav.Navigator, log zerolog.Logger) *Store {
	if n == nil {
		n = nav.Func(func() {})
	}
	return &Store{
		auth:   auth,
		tokens: tokens,
		nav:    n,
		log:    log,
		state:  State{IsLoading: true},
	}
}

// Bind wires the store to the HTTP client's 401/403 interception.
func (s *Store) Bind(c *apiclient.Client) {
	c.OnUnauthorized(s.Invalidate)
}

// State returns a copy of the current session.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

// User returns the current user or nil.
func (s *Store) User() *domain.User {
	return s.State().User
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsAuthenticated
}

// Initialize restores the session once per Store. Later calls are no-ops.
func (s *Store) Initialize(ctx context.Context) {
	s.initOnce.Do(func() { s.Restore(ctx) })
}

// Restore loads the current user with the persisted token, if any. Any
// failure leaves the session unauthenticated. It always ends with
// IsLoading=false.
func (s *Store) Restore(ctx context.Context) {
	s.setLoading(true)

	token, err := s.tokens.Get(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("read persisted token")
	}
	if token == "" {
		s.reset()
		return
	}

	if exp, ok := jwt.ExpiresAt(token); ok && time.Now().After(exp) {
		s.log.Debug().Time("expired_at", exp).Msg("persisted token looks expired, asking server anyway")
	}

	user, err := s.auth.Me(ctx)
	if err != nil {
		s.log.Info().Err(err).Msg("session restore failed")
		s.reset()
		return
	}

	s.mu.Lock()
	s.state = State{User: user, Token: token, IsAuthenticated: true}
	s.mu.Unlock()
	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("session restored")
}

// Login authenticates with an email or a username. Failures are recorded
// in State().Error; the return value only says whether it worked.
func (s *Store) Login(ctx context.Context, identifier, password string) bool {
	s.mu.Lock()
	s.state.IsLoading = true
	s.state.Error = ""
	s.mu.Unlock()

	req := domain.LoginRequest{Password: password}
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		req.Email = identifier
	} else {
		req.Username = identifier
	}

	res, err := s.auth.Login(ctx, req)
	if err != nil {
		s.fail(err, loginFailedMessage)
		return false
	}
	return s.accept(ctx, res, loginFailedMessage)
}

// Register creates an account and logs it in.
func (s *Store) Register(ctx context.Context, req domain.RegisterRequest) bool {
	s.mu.Lock()
	s.state.IsLoading = true
	s.state.Error = ""
	s.mu.Unlock()

	res, err := s.auth.Register(ctx, req)
	if err != nil {
		s.fail(err, registerFailedMessage)
		return false
	}
	return s.accept(ctx, res, registerFailedMessage)
}

// Logout forgets the token, resets the session and sends the user to the
// login page.
func (s *Store) Logout(ctx context.Context) {
	if err := s.tokens.Clear(ctx); err != nil {
		s.log.Error().Err(err).Msg("clear persisted token")
	}
	s.reset()
	s.nav.ToLogin()
}

// Invalidate resets the session after the server rejected the token. The
// HTTP client has already cleared storage and handles navigation.
func (s *Store) Invalidate() {
	s.reset()
}

func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Error = ""
}

func (s *Store) accept(ctx context.Context, res *domain.AuthResult, fallback string) bool {
	if err := s.tokens.Set(ctx, res.Token); err != nil {
		s.log.Error().Err(err).Msg("persist token")
		s.fail(err, fallback)
		return false
	}

	s.mu.Lock()
	s.state = State{User: res.User, Token: res.Token, IsAuthenticated: true}
	s.mu.Unlock()
	s.log.Info().Str("user_id", res.User.ID).Msg("logged in")
	return true
}

// fail records a login or registration error. A session that was already
// authenticated stays as it was.
func (s *Store) fail(err error, fallback string) {
	msg := apiclient.Message(err, fallback)
	s.log.Warn().Err(err).Msg("authentication failed")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsLoading = false
	s.state.Error = msg
}

func (s *Store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{}
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsLoading = v
}
