package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/fjod/ixplor/internal/api"
	"github.com/fjod/ixplor/internal/auth"
	"github.com/fjod/ixplor/internal/domain"
)

type Sessions interface {
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	Register(ctx context.Context, req api.RegisterRequest) (*auth.Session, error)
	GoogleLogin(ctx context.Context, idToken string) (*auth.Session, error)
	AppleLogin(ctx context.Context, idToken, firstName, lastName string) (*auth.Session, error)
	Logout(ctx context.Context) error
	Invalidate(ctx context.Context)
}

type Profiles interface {
	Me(ctx context.Context) (*domain.User, error)
}

type AuthHandler struct {
	base
	sessions Sessions
	profiles Profiles
}

type LoginRequestDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequestDTO struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
}

type OAuthRequestDTO struct {
	IDToken   string `json:"idToken" validate:"required"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequestDTO
	if !h.decode(w, r, &req) {
		return
	}
	ctx, cancel := h.context(r)
	defer cancel()

	s, err := h.sessions.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.failLogin(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequestDTO
	if !h.decode(w, r, &req) {
		return
	}
	ctx, cancel := h.context(r)
	defer cancel()

	s, err := h.sessions.Register(ctx, api.RegisterRequest{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.failLogin(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, s)
}

func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	var req OAuthRequestDTO
	if !h.decode(w, r, &req) {
		return
	}
	ctx, cancel := h.context(r)
	defer cancel()

	s, err := h.sessions.GoogleLogin(ctx, req.IDToken)
	if err != nil {
		h.failLogin(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

func (h *AuthHandler) Apple(w http.ResponseWriter, r *http.Request) {
	var req OAuthRequestDTO
	if !h.decode(w, r, &req) {
		return
	}
	ctx, cancel := h.context(r)
	defer cancel()

	s, err := h.sessions.AppleLogin(ctx, req.IDToken, req.FirstName, req.LastName)
	if err != nil {
		h.failLogin(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	if err := h.sessions.Logout(ctx); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	user, err := h.profiles.Me(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// failLogin reports a rejected credential as 401 without touching any
// existing session.
func (h *AuthHandler) failLogin(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		respondError(w, http.StatusUnauthorized, "invalid_credentials", apiErr.Message)
		return
	}
	b := h.base
	b.unauthorized = nil
	b.fail(w, r, err)
}
