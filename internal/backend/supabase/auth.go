package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"retail-erp/internal/core"

	"github.com/tidwall/gjson"
)

var _ core.Authenticator = (*Client)(nil)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in"`
	ExpiresAt    int64         `json:"expires_at"`
	User         core.AuthUser `json:"user"`
}

func (c *Client) session(t tokenResponse) *core.AuthSession {
	s := &core.AuthSession{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		User:         t.User,
	}
	switch {
	case t.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(t.ExpiresAt, 0)
	case t.ExpiresIn > 0:
		s.ExpiresAt = c.now().Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return s
}

func (c *Client) token(ctx context.Context, op, grant string, body any) (*core.AuthSession, error) {
	var t tokenResponse
	err := c.do(ctx, request{
		op:     op,
		method: http.MethodPost,
		path:   authPrefix + "token",
		query:  url.Values{"grant_type": {grant}},
		body:   body,
	}, &t)
	if err != nil {
		return nil, err
	}
	if t.AccessToken == "" {
		return nil, &core.RemoteError{Op: op, Message: "auth service returned no access token"}
	}
	return c.session(t), nil
}

// SignIn exchanges email and password for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*core.AuthSession, error) {
	s, err := c.token(ctx, "sign_in", "password", credentials{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}
	return s, nil
}

// SignUp registers a new user. When the project requires email confirmation the
// auth service answers with the user only, and the result carries no session.
func (c *Client) SignUp(ctx context.Context, email, password string) (*core.SignUpResult, error) {
	var raw json.RawMessage
	err := c.do(ctx, request{
		op:     "sign_up",
		method: http.MethodPost,
		path:   authPrefix + "signup",
		body:   credentials{Email: email, Password: password},
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("failed to sign up: %w", err)
	}

	if gjson.GetBytes(raw, "access_token").String() != "" {
		var t tokenResponse
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("failed to decode sign-up session: %w", err)
		}
		s := c.session(t)
		return &core.SignUpResult{User: s.User, Session: s}, nil
	}

	userRaw := raw
	if u := gjson.GetBytes(raw, "user"); u.IsObject() {
		userRaw = json.RawMessage(u.Raw)
	}
	var user core.AuthUser
	if err := json.Unmarshal(userRaw, &user); err != nil {
		return nil, fmt.Errorf("failed to decode sign-up user: %w", err)
	}
	return &core.SignUpResult{User: user}, nil
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	err := c.do(ctx, request{
		op:     "sign_out",
		method: http.MethodPost,
		path:   authPrefix + "logout",
		token:  accessToken,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

// Refresh trades a refresh token for a new session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*core.AuthSession, error) {
	if refreshToken == "" {
		return nil, errors.New("no refresh token")
	}
	s, err := c.token(ctx, "refresh", "refresh_token", map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}
	return s, nil
}
