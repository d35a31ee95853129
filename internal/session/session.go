package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jortega/stocksync/internal/api"
	"github.com/jortega/stocksync/internal/domain"
)

// authClient is the subset of api.Client the session requires.
type authClient interface {
	Login(ctx context.Context, email, password string) (*domain.User, error)
	Register(ctx context.Context, email, password, name string) (*domain.User, error)
	Profile(ctx context.Context) (*domain.User, error)
	Logout(ctx context.Context) error
	CheckSession(ctx context.Context) (bool, error)
}

// Session owns the authenticated user state for one engine instance. It is
// established by Login, Register, or Resume and torn down by Logout; every
// other component reads the current user through it instead of ambient
// globals.
type Session struct {
	client authClient
	logger *slog.Logger

	// bearerToken is set only in bearer auth mode; cookie mode leaves it
	// empty and relies on the client's cookie jar.
	bearerToken string

	mu   sync.RWMutex
	user *domain.User
}

type Option func(*Session)

// WithBearerToken enables the local expiry pre-check on the given token.
func WithBearerToken(token string) Option {
	return func(s *Session) { s.bearerToken = token }
}

func New(client authClient, logger *slog.Logger, opts ...Option) *Session {
	s := &Session{client: client, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// User returns the authenticated user, or nil when no session is active.
func (s *Session) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

func (s *Session) Login(ctx context.Context, email, password string) (*domain.User, error) {
	if err := s.checkTokenExpiry(); err != nil {
		return nil, err
	}
	user, err := s.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.setUser(user)
	s.logger.Info("session established", "user_id", user.ID)
	return user, nil
}

func (s *Session) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	user, err := s.client.Register(ctx, email, password, name)
	if err != nil {
		return nil, err
	}
	s.setUser(user)
	s.logger.Info("session established", "user_id", user.ID)
	return user, nil
}

// Resume revalidates an existing session (cookie or bearer token) and loads
// the profile, so a restarted process does not need credentials again.
func (s *Session) Resume(ctx context.Context) (*domain.User, error) {
	if err := s.checkTokenExpiry(); err != nil {
		return nil, err
	}
	ok, err := s.client.CheckSession(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &api.Error{Kind: api.KindUnauthenticated, Message: "session expired, please log in again"}
	}
	user, err := s.client.Profile(ctx)
	if err != nil {
		return nil, err
	}
	s.setUser(user)
	s.logger.Info("session resumed", "user_id", user.ID)
	return user, nil
}

// Logout tears the session down. The local state is cleared even when the
// remote call fails; the server side will expire on its own.
func (s *Session) Logout(ctx context.Context) error {
	err := s.client.Logout(ctx)
	if err != nil {
		s.logger.Warn("remote logout failed", "error", err)
	}
	s.setUser(nil)
	return err
}

// Invalidate clears local session state without a remote call; used when any
// operation reports the session is no longer valid.
func (s *Session) Invalidate() {
	s.setUser(nil)
}

func (s *Session) setUser(u *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}

// checkTokenExpiry fails fast with Unauthenticated when the bearer token has
// already expired, saving a doomed round trip. The claims are read without
// signature verification; only the server can truly validate the token.
func (s *Session) checkTokenExpiry() error {
	if s.bearerToken == "" {
		return nil
	}
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(s.bearerToken, &claims); err != nil {
		return fmt.Errorf("malformed bearer token: %w", err)
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return &api.Error{Kind: api.KindUnauthenticated, Message: "session token has expired, please log in again"}
	}
	return nil
}
