package session

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"retail-erp/internal/core"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	signInErr  error
	refreshErr error
	signUpRes  *core.SignUpResult
	signedOut  []string
	refreshed  int
	expiresIn  time.Duration
	now        time.Time
}

func (f *fakeAuth) session(token string) *core.AuthSession {
	return &core.AuthSession{
		AccessToken:  token,
		RefreshToken: "refresh-" + token,
		ExpiresAt:    f.now.Add(f.expiresIn),
		User:         core.AuthUser{ID: "u1", Email: "clerk@example.com"},
	}
}

func (f *fakeAuth) SignIn(_ context.Context, email, password string) (*core.AuthSession, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return f.session("access-1"), nil
}

func (f *fakeAuth) SignUp(_ context.Context, email, password string) (*core.SignUpResult, error) {
	return f.signUpRes, nil
}

func (f *fakeAuth) SignOut(_ context.Context, token string) error {
	f.signedOut = append(f.signedOut, token)
	return errors.New("network down")
}

func (f *fakeAuth) Refresh(_ context.Context, refreshToken string) (*core.AuthSession, error) {
	f.refreshed++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.session("access-2"), nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestManager(auth *fakeAuth) (*Manager, *MemoryStore, *clock) {
	c := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	auth.now = c.t
	store := NewMemoryStore()
	store.now = c.now
	m := NewManager(store, auth, time.Hour, nil)
	m.now = c.now
	return m, store, c
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	store := NewMemoryStore()
	store.now = c.now

	s := newSession(c.t)
	s.Draft = core.NewOrderDraft("7")
	s.Draft.Add()
	require.NoError(t, store.Save(ctx, s, time.Minute))

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.NotSame(t, s, got, "callers get their own copy")
	assert.Equal(t, 1, got.Draft.Len())
	assert.Equal(t, "7", got.Draft.Items[0].CategoryID)

	c.t = c.t.Add(2 * time.Minute)
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_Purge(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	store := NewMemoryStore()
	store.now = c.now

	short, long := newSession(c.t), newSession(c.t)
	require.NoError(t, store.Save(ctx, short, time.Minute))
	require.NoError(t, store.Save(ctx, long, time.Hour))

	c.t = c.t.Add(10 * time.Minute)
	store.purge()
	assert.Equal(t, 1, store.Len())
	_, err := store.Get(ctx, long.ID)
	assert.NoError(t, err)
}

func TestManager_LoadUnknownReturnsFreshSession(t *testing.T) {
	m, _, _ := newTestManager(&fakeAuth{expiresIn: time.Hour})

	s, err := m.Load(context.Background(), "missing")
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.NotEqual(t, "missing", s.ID)
	assert.False(t, s.SignedIn())
}

func TestManager_SignInPublishesAndSaves(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newTestManager(&fakeAuth{expiresIn: time.Hour})

	var events []Event
	m.OnChange(func(_ context.Context, ev Event, s *Session) error {
		events = append(events, ev)
		if ev == EventSignedIn {
			s.Lists = &core.ReferenceLists{Locations: []core.RefItem{{ID: "1", Name: "Shop"}}}
		}
		return nil
	})

	s := m.New()
	require.NoError(t, m.SignIn(ctx, s, "  clerk@example.com ", "pw"))
	assert.Equal(t, []Event{EventSignedIn}, events)

	stored, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, stored.SignedIn())
	assert.Equal(t, "clerk@example.com", stored.Email())
	assert.Equal(t, core.ID("1"), stored.Lists.DefaultLocation())
}

func TestManager_SignInValidation(t *testing.T) {
	m, store, _ := newTestManager(&fakeAuth{signInErr: errors.New("must not be called")})

	err := m.SignIn(context.Background(), m.New(), " ", "pw")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Equal(t, core.ReasonCredentials, core.Message(err))
	assert.Equal(t, 0, store.Len())
}

func TestManager_SignInListenerFailureKeepsSession(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newTestManager(&fakeAuth{expiresIn: time.Hour})
	m.OnChange(func(context.Context, Event, *Session) error { return errors.New("lists failed") })

	s := m.New()
	err := m.SignIn(ctx, s, "clerk@example.com", "pw")
	require.Error(t, err)
	assert.True(t, s.SignedIn())

	stored, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, stored.SignedIn())
}

func TestManager_SignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("confirmation required", func(t *testing.T) {
		auth := &fakeAuth{signUpRes: &core.SignUpResult{User: core.AuthUser{Email: "new@example.com"}}}
		m, store, _ := newTestManager(auth)
		s := m.New()

		res, err := m.SignUp(ctx, s, "new@example.com", "pw")
		require.NoError(t, err)
		assert.Nil(t, res.Session)
		assert.False(t, s.SignedIn())
		assert.Equal(t, 0, store.Len())
	})

	t.Run("immediate session", func(t *testing.T) {
		auth := &fakeAuth{}
		m, _, c := newTestManager(auth)
		auth.signUpRes = &core.SignUpResult{Session: &core.AuthSession{AccessToken: "tok", ExpiresAt: c.t.Add(time.Hour)}}
		var events []Event
		m.OnChange(func(_ context.Context, ev Event, _ *Session) error {
			events = append(events, ev)
			return nil
		})
		s := m.New()

		_, err := m.SignUp(ctx, s, "new@example.com", "pw")
		require.NoError(t, err)
		assert.True(t, s.SignedIn())
		assert.Equal(t, []Event{EventSignedIn}, events)
	})
}

func TestManager_SignOutClearsLocalStateEvenIfRemoteFails(t *testing.T) {
	ctx := context.Background()
	auth := &fakeAuth{expiresIn: time.Hour}
	m, store, _ := newTestManager(auth)
	var events []Event
	m.OnChange(func(_ context.Context, ev Event, _ *Session) error {
		events = append(events, ev)
		return nil
	})

	s := m.New()
	require.NoError(t, m.SignIn(ctx, s, "clerk@example.com", "pw"))
	s.Draft = core.NewOrderDraft("1")

	require.NoError(t, m.SignOut(ctx, s))
	assert.Equal(t, []string{"access-1"}, auth.signedOut)
	assert.False(t, s.SignedIn())
	assert.Nil(t, s.Draft)
	assert.Equal(t, []Event{EventSignedIn, EventSignedOut}, events)
	_, err := store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_EnsureFresh(t *testing.T) {
	ctx := context.Background()

	t.Run("far from expiry", func(t *testing.T) {
		auth := &fakeAuth{expiresIn: time.Hour}
		m, _, _ := newTestManager(auth)
		s := m.New()
		require.NoError(t, m.SignIn(ctx, s, "clerk@example.com", "pw"))

		require.NoError(t, m.EnsureFresh(ctx, s))
		assert.Equal(t, 0, auth.refreshed)
	})

	t.Run("refreshes inside the window", func(t *testing.T) {
		auth := &fakeAuth{expiresIn: 30 * time.Second}
		m, store, _ := newTestManager(auth)
		var events []Event
		m.OnChange(func(_ context.Context, ev Event, _ *Session) error {
			events = append(events, ev)
			return nil
		})
		s := m.New()
		require.NoError(t, m.SignIn(ctx, s, "clerk@example.com", "pw"))

		loaded, err := m.Load(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, auth.refreshed)
		assert.Equal(t, "access-2", loaded.AccessToken())
		assert.Equal(t, []Event{EventSignedIn, EventTokenRefreshed}, events)

		stored, err := store.Get(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, "access-2", stored.AccessToken())
	})

	t.Run("failed refresh signs out", func(t *testing.T) {
		auth := &fakeAuth{expiresIn: 10 * time.Second, refreshErr: &core.RemoteError{Message: "Invalid Refresh Token"}}
		m, _, _ := newTestManager(auth)
		s := m.New()
		require.NoError(t, m.SignIn(ctx, s, "clerk@example.com", "pw"))

		err := m.EnsureFresh(ctx, s)
		require.ErrorIs(t, err, core.ErrNotSignedIn)
		assert.Contains(t, err.Error(), "Invalid Refresh Token")
		assert.False(t, s.SignedIn())

		loaded, err := m.Load(ctx, s.ID)
		require.NoError(t, err)
		assert.False(t, loaded.SignedIn())
	})

	t.Run("anonymous", func(t *testing.T) {
		m, _, _ := newTestManager(&fakeAuth{})
		assert.ErrorIs(t, m.EnsureFresh(ctx, m.New()), core.ErrNotSignedIn)
	})
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set, skipping redis session test")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, client.Ping(ctx).Err())
	store := NewRedisStoreWithClient(client, "erp:test:session:")
	defer store.Close()

	s := newSession(time.Now())
	s.Auth = &core.AuthSession{AccessToken: "tok", User: core.AuthUser{Email: "clerk@example.com"}}
	require.NoError(t, store.Save(ctx, s, time.Minute))

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "clerk@example.com", got.Email())

	ttl, err := client.TTL(ctx, "erp:test:session:"+s.ID).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
