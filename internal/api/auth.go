package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"blocknotes/internal/domain"
)

type authResponse struct {
	User domain.User `json:"user"`
}

// Login authenticates and stores the user in the session.
func (c *Client) Login(ctx context.Context, username, password string) (domain.User, error) {
	var out authResponse
	in := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", in, &out); err != nil {
		return domain.User{}, err
	}
	if err := c.session.SetUser(out.User); err != nil {
		return domain.User{}, fmt.Errorf("login: %w", err)
	}
	return out.User, nil
}

// Register creates an account; the backend signs the new user in.
func (c *Client) Register(ctx context.Context, username, email, password string) (domain.User, error) {
	var out authResponse
	in := map[string]string{"username": username, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", in, &out); err != nil {
		return domain.User{}, err
	}
	if err := c.session.SetUser(out.User); err != nil {
		return domain.User{}, fmt.Errorf("register: %w", err)
	}
	return out.User, nil
}

// Logout ends the session server-side and always clears local state.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	if err != nil {
		log.Printf("[api] logout: %v", err)
	}
	if cerr := c.session.Clear(); cerr != nil {
		return fmt.Errorf("logout: %w", cerr)
	}
	return err
}

// Me returns the user the backend associates with the session cookie.
func (c *Client) Me(ctx context.Context) (domain.User, error) {
	var u domain.User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}
