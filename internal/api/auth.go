package api

import (
	"context"
	"net/http"

	"github.com/jortega/stocksync/internal/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// userEnvelope matches the {"user": {...}} shape the auth endpoints return.
type userEnvelope struct {
	User domain.User `json:"user"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*domain.User, error) {
	var env userEnvelope
	if err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &env); err != nil {
		return nil, err
	}
	return &env.User, nil
}

func (c *Client) Register(ctx context.Context, email, password, name string) (*domain.User, error) {
	var env userEnvelope
	if err := c.do(ctx, http.MethodPost, "/auth/register", registerRequest{Email: email, Password: password, Name: name}, &env); err != nil {
		return nil, err
	}
	return &env.User, nil
}

func (c *Client) Profile(ctx context.Context) (*domain.User, error) {
	user := &domain.User{}
	if err := c.do(ctx, http.MethodGet, "/auth/profile", nil, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// CheckSession reports whether the current session is still valid.
func (c *Client) CheckSession(ctx context.Context) (bool, error) {
	var out struct {
		Authenticated bool `json:"authenticated"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/check", nil, &out); err != nil {
		return false, err
	}
	return out.Authenticated, nil
}
