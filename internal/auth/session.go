package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/ixplor/internal/api"
	"github.com/fjod/ixplor/internal/domain"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// RefreshSkew refreshes access tokens slightly before they expire.
const RefreshSkew = 30 * time.Second

type sessionKey struct{}

// WithSession binds a gateway session id to ctx.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

func SessionFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionKey{}).(string)
	return id, ok && id != ""
}

type Store interface {
	Load(ctx context.Context, sessionID string) (Tokens, error)
	Save(ctx context.Context, sessionID string, t Tokens) error
	Clear(ctx context.Context, sessionID string) error
}

// Client is the subset of the API client used for authentication.
type Client interface {
	EmailLogin(ctx context.Context, email, password string) (*api.LoginResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) error
	GoogleLogin(ctx context.Context, idToken string) (*api.LoginResponse, error)
	AppleLogin(ctx context.Context, idToken, firstName, lastName string) (*api.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*api.LoginResponse, error)
	Me(ctx context.Context) (*domain.User, error)
}

// Session is what a successful login hands back to the app.
type Session struct {
	ID        string       `json:"sessionId"`
	User      *domain.User `json:"user,omitempty"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// Manager implements api.TokenSource over persisted sessions.
type Manager struct {
	store  Store
	client Client
	log    logrus.FieldLogger
	now    func() time.Time

	refresh singleflight.Group

	mu    sync.RWMutex
	users map[string]*domain.User
}

func NewManager(store Store, log logrus.FieldLogger) *Manager {
	return &Manager{
		store: store,
		log:   log,
		now:   time.Now,
		users: make(map[string]*domain.User),
	}
}

// SetClient breaks the construction cycle with api.Client, which needs the
// manager as its TokenSource.
func (m *Manager) SetClient(c Client) {
	m.client = c
}

func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	resp, err := m.client.EmailLogin(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("email login: %w", err)
	}
	return m.start(ctx, resp)
}

// Register creates the account and then signs in with the same credentials,
// since the registration endpoint returns no tokens.
func (m *Manager) Register(ctx context.Context, req api.RegisterRequest) (*Session, error) {
	if err := m.client.Register(ctx, req); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return m.Login(ctx, req.Email, req.Password)
}

func (m *Manager) GoogleLogin(ctx context.Context, idToken string) (*Session, error) {
	resp, err := m.client.GoogleLogin(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("google login: %w", err)
	}
	return m.start(ctx, resp)
}

func (m *Manager) AppleLogin(ctx context.Context, idToken, firstName, lastName string) (*Session, error) {
	resp, err := m.client.AppleLogin(ctx, idToken, firstName, lastName)
	if err != nil {
		return nil, fmt.Errorf("apple login: %w", err)
	}
	return m.start(ctx, resp)
}

// start persists the tokens under the session bound to ctx, or under a fresh
// session id when there is none.
func (m *Manager) start(ctx context.Context, resp *api.LoginResponse) (*Session, error) {
	sid, ok := SessionFrom(ctx)
	if !ok {
		sid = uuid.NewString()
	}

	t := tokensFrom(resp)
	if err := m.store.Save(ctx, sid, t); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if resp.User != nil {
		m.users[sid] = resp.User
	} else {
		delete(m.users, sid)
	}
	m.mu.Unlock()

	m.log.WithField("session", sid).Info("session started")
	return &Session{ID: sid, User: resp.User, ExpiresAt: t.Expires}, nil
}

// Token returns the access token of the session in ctx, refreshing it first
// when it has expired. Anonymous contexts get api.ErrNoToken.
func (m *Manager) Token(ctx context.Context) (string, error) {
	sid, ok := SessionFrom(ctx)
	if !ok {
		return "", api.ErrNoToken
	}

	t, err := m.store.Load(ctx, sid)
	if errors.Is(err, ErrNoSession) {
		return "", api.ErrNoToken
	}
	if err != nil {
		return "", err
	}
	if !t.Expired(m.now(), RefreshSkew) {
		return t.Access, nil
	}

	v, err, _ := m.refresh.Do(sid, func() (any, error) {
		return m.refreshTokens(ctx, sid, t)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *Manager) refreshTokens(ctx context.Context, sid string, t Tokens) (string, error) {
	if t.Refresh == "" {
		m.Invalidate(ctx)
		return "", api.ErrUnauthorized
	}

	resp, err := m.client.Refresh(ctx, t.Refresh)
	if errors.Is(err, api.ErrUnauthorized) {
		m.log.WithField("session", sid).Info("refresh rejected, clearing session")
		m.Invalidate(ctx)
		return "", api.ErrUnauthorized
	}
	if err != nil {
		return "", fmt.Errorf("refresh token: %w", err)
	}

	next := tokensFrom(resp)
	if next.Refresh == "" {
		next.Refresh = t.Refresh
	}
	if err := m.store.Save(ctx, sid, next); err != nil {
		return "", err
	}
	return next.Access, nil
}

// UserID resolves the signed-in user of the session in ctx.
func (m *Manager) UserID(ctx context.Context) (string, error) {
	sid, ok := SessionFrom(ctx)
	if !ok {
		return "", api.ErrUnauthorized
	}

	m.mu.RLock()
	u := m.users[sid]
	m.mu.RUnlock()
	if u != nil {
		return u.ID, nil
	}

	u, err := m.client.Me(ctx)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			m.Invalidate(ctx)
		}
		return "", err
	}

	m.mu.Lock()
	m.users[sid] = u
	m.mu.Unlock()
	return u.ID, nil
}

// Logout clears all stored entries of the session in ctx.
func (m *Manager) Logout(ctx context.Context) error {
	sid, ok := SessionFrom(ctx)
	if !ok {
		return nil
	}

	m.mu.Lock()
	delete(m.users, sid)
	m.mu.Unlock()

	return m.store.Clear(ctx, sid)
}

// Invalidate is Logout for auth failures; errors are only logged.
func (m *Manager) Invalidate(ctx context.Context) {
	if err := m.Logout(ctx); err != nil {
		m.log.WithError(err).Warn("failed to clear session")
	}
}

func tokensFrom(resp *api.LoginResponse) Tokens {
	t := Tokens{Access: resp.Token, Refresh: resp.RefreshToken}
	if resp.TokenExpires > 0 {
		t.Expires = time.UnixMilli(resp.TokenExpires)
	}
	return t
}
