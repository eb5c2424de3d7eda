package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"retail-erp/internal/core"

	"go.uber.org/zap"
)

// Event is an auth-state change.
type Event string

const (
	EventSignedIn       Event = "signed_in"
	EventSignedOut      Event = "signed_out"
	EventTokenRefreshed Event = "token_refreshed"
)

// Listener reacts to an auth-state change. It may modify the session, which is
// saved after all listeners have run.
type Listener func(ctx context.Context, ev Event, s *Session) error

// RefreshWindow is how close to expiry an access token gets refreshed.
const RefreshWindow = 60 * time.Second

// Manager owns the session lifecycle: loading and saving through a Store,
// signing in and out through the auth service, and publishing auth events.
type Manager struct {
	store Store
	auth  core.Authenticator
	ttl   time.Duration
	now   func() time.Time
	log   *zap.Logger

	mu        sync.RWMutex
	listeners []Listener
}

func NewManager(store Store, auth core.Authenticator, ttl time.Duration, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{store: store, auth: auth, ttl: ttl, now: time.Now, log: log.Named("session")}
}

// OnChange registers l for every auth event.
func (m *Manager) OnChange(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

func (m *Manager) publish(ctx context.Context, ev Event, s *Session) error {
	m.mu.RLock()
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.RUnlock()

	var errs []error
	for _, l := range listeners {
		if err := l(ctx, ev, s); err != nil {
			m.log.Warn("session listener failed", zap.String("event", string(ev)), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// New returns a fresh anonymous session. It is not stored until Save.
func (m *Manager) New() *Session {
	return newSession(m.now())
}

// Load returns the stored session id, or a fresh one when id is unknown or expired.
// A signed-in session whose token is about to expire is refreshed on the way.
func (m *Manager) Load(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return m.New(), nil
	}
	s, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return m.New(), nil
	}
	if err != nil {
		return nil, err
	}
	if err := m.EnsureFresh(ctx, s); err != nil && !errors.Is(err, core.ErrNotSignedIn) {
		return nil, err
	}
	return s, nil
}

func (m *Manager) Save(ctx context.Context, s *Session) error {
	s.UpdatedAt = m.now()
	return m.store.Save(ctx, s, m.ttl)
}

// SignIn authenticates s. A nil error means signed in with every listener
// succeeding. When the session is signed in but a listener failed, the
// listener's error is returned and the session is still saved.
func (m *Manager) SignIn(ctx context.Context, s *Session, email, password string) error {
	email, err := core.ValidateCredentials(email, password)
	if err != nil {
		return err
	}
	auth, err := m.auth.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	s.clear()
	s.Auth = auth
	m.log.Info("signed in", zap.String("email", auth.User.Email))

	hookErr := m.publish(ctx, EventSignedIn, s)
	if err := m.Save(ctx, s); err != nil {
		return err
	}
	return hookErr
}

// SignUp registers a user. When the auth service returns a session right away
// the user is signed in as with SignIn.
func (m *Manager) SignUp(ctx context.Context, s *Session, email, password string) (*core.SignUpResult, error) {
	email, err := core.ValidateCredentials(email, password)
	if err != nil {
		return nil, err
	}
	res, err := m.auth.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if res.Session == nil {
		return res, nil
	}

	s.clear()
	s.Auth = res.Session
	hookErr := m.publish(ctx, EventSignedIn, s)
	if err := m.Save(ctx, s); err != nil {
		return res, err
	}
	return res, hookErr
}

// SignOut revokes the remote session and forgets the local one. Local state is
// cleared even when the auth service cannot be reached.
func (m *Manager) SignOut(ctx context.Context, s *Session) error {
	if s.SignedIn() {
		if err := m.auth.SignOut(ctx, s.AccessToken()); err != nil {
			m.log.Warn("remote sign-out failed", zap.Error(err))
		}
	}
	s.clear()
	_ = m.publish(ctx, EventSignedOut, s)
	if err := m.store.Delete(ctx, s.ID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// EnsureFresh refreshes the access token when it expires within RefreshWindow.
// A failed refresh signs the session out and returns ErrNotSignedIn.
func (m *Manager) EnsureFresh(ctx context.Context, s *Session) error {
	if !s.SignedIn() {
		return core.ErrNotSignedIn
	}
	if !s.Auth.ExpiresWithin(m.now(), RefreshWindow) {
		return nil
	}

	fresh, err := m.auth.Refresh(ctx, s.Auth.RefreshToken)
	if err != nil {
		m.log.Info("session refresh failed, signing out", zap.Error(err))
		s.clear()
		_ = m.publish(ctx, EventSignedOut, s)
		if err := m.Save(ctx, s); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s", core.ErrNotSignedIn, core.Message(err))
	}

	s.Auth = fresh
	_ = m.publish(ctx, EventTokenRefreshed, s)
	return m.Save(ctx, s)
}
