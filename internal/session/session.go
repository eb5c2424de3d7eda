// Package session holds the per-user state of the application: the auth session,
// the cached reference lists and the in-progress order draft.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"retail-erp/internal/core"

	"github.com/google/uuid"
)

// ErrNotFound is returned by a Store for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// Session is everything the application remembers about one browser or terminal.
type Session struct {
	ID        string               `json:"id"`
	Auth      *core.AuthSession    `json:"auth,omitempty"`
	Lists     *core.ReferenceLists `json:"lists,omitempty"`
	Draft     *core.OrderDraft     `json:"draft,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

func newSession(now time.Time) *Session {
	return &Session{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
}

func (s *Session) SignedIn() bool {
	return s != nil && s.Auth != nil && s.Auth.AccessToken != ""
}

func (s *Session) AccessToken() string {
	if !s.SignedIn() {
		return ""
	}
	return s.Auth.AccessToken
}

// Email is the signed-in user's email, or "".
func (s *Session) Email() string {
	if !s.SignedIn() {
		return ""
	}
	return s.Auth.User.Email
}

// clear drops everything that belongs to the signed-in user.
func (s *Session) clear() {
	s.Auth = nil
	s.Lists = nil
	s.Draft = nil
}

// Store persists sessions between requests.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

func encode(s *Session) ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	return b, nil
}

func decode(b []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &s, nil
}
