package billing

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// User is the portal's view of a platform account. The backend owns it; the
// portal caches a copy in the session and refreshes it after billing events.
type User struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Tier  Tier   `json:"tier"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Login authenticates against the platform backend and returns the issued
// bearer token together with the account it belongs to.
func (c *Client) Login(ctx context.Context, email, password string) (string, *User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", nil, errors.New("login: email and password are required")
	}
	var out loginResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", loginRequest{Email: email, Password: password}, &out, "login", "login failed")
	if err != nil {
		return "", nil, err
	}
	if strings.TrimSpace(out.Token) == "" {
		return "", nil, errors.New("login: backend returned an empty token")
	}
	return out.Token, &out.User, nil
}

// Me fetches the account behind the client's bearer token. Used to refresh
// the session copy after the backend confirmed a payment.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	err := c.do(ctx, http.MethodGet, "/api/v1/users/me", nil, &u, "get account", "failed to load account")
	if err != nil {
		return nil, err
	}
	return &u, nil
}
