// Package auth reads the claims of access tokens issued by the hosted auth service.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid access token")

// Claims is the subset of access-token claims the application uses.
// Raw keeps every claim so it can be forwarded to the database for row-level security.
type Claims struct {
	Subject   string
	Email     string
	Role      string
	ExpiresAt time.Time
	Raw       jwt.MapClaims
}

// JSON encodes all claims, as the database expects them in request.jwt.claims.
func (c *Claims) JSON() (string, error) {
	b, err := json.Marshal(c.Raw)
	if err != nil {
		return "", fmt.Errorf("failed to encode claims: %w", err)
	}
	return string(b), nil
}

// Parser extracts claims from access tokens. With a secret it verifies the HS256
// signature and expiry; without one it only decodes, trusting the backend to verify.
type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	p := &Parser{}
	if secret != "" {
		p.secret = []byte(secret)
	}
	return p
}

// Verifies reports whether Parse checks signatures.
func (p *Parser) Verifies() bool { return len(p.secret) > 0 }

func (p *Parser) Parse(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	mc := jwt.MapClaims{}
	if p.Verifies() {
		parsed, err := jwt.ParseWithClaims(token, mc, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return p.secret, nil
		})
		if err != nil || !parsed.Valid {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	c := &Claims{Raw: mc}
	c.Subject, _ = mc.GetSubject()
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	c.Email, _ = mc["email"].(string)
	c.Role, _ = mc["role"].(string)
	return c, nil
}
