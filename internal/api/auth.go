package api

import (
	"context"
	"net/http"

	"github.com/fjod/ixplor/internal/domain"
)

// LoginResponse is returned by every login flow. TokenExpires is a Unix
// timestamp in milliseconds.
type LoginResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
	TokenExpires int64        `json:"tokenExpires"`
	User         *domain.User `json:"user,omitempty"`
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (c *Client) EmailLogin(ctx context.Context, email, password string) (*LoginResponse, error) {
	body := map[string]string{"email": email, "password": password}
	return c.login(ctx, "/v1/auth/email/login", body)
}

// Register creates an account. The backend does not sign the user in, so
// callers follow up with EmailLogin.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/v1/auth/email/register", body: req, anonymous: true}, nil)
}

func (c *Client) GoogleLogin(ctx context.Context, idToken string) (*LoginResponse, error) {
	return c.login(ctx, "/v1/auth/google/login", map[string]string{"idToken": idToken})
}

func (c *Client) AppleLogin(ctx context.Context, idToken, firstName, lastName string) (*LoginResponse, error) {
	body := map[string]string{"idToken": idToken, "firstName": firstName, "lastName": lastName}
	return c.login(ctx, "/v1/auth/apple/login", body)
}

// Refresh exchanges a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.do(ctx, request{method: http.MethodPost, path: "/v1/auth/refresh", token: refreshToken}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := c.get(ctx, "/v1/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) login(ctx context.Context, path string, body any) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.do(ctx, request{method: http.MethodPost, path: path, body: body, anonymous: true}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
