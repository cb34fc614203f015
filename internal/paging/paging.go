// Package paging mints and verifies the opaque page tokens used by list
// endpoints. Tokens are short-lived HS256 JWTs so a restarted server with
// the same secret keeps accepting tokens it handed out earlier.
package paging

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that are malformed, expired,
// tampered with, or minted for a different project.
var ErrInvalidToken = errors.New("invalid page token")

// Cursor marks a position in a project's ruleset listing. Snapshot pins the
// walk to the moment the first page was served, so rulesets created while a
// caller pages through never shift the remaining pages.
type Cursor struct {
	Project  string
	After    string
	Snapshot time.Time
}

type cursorClaims struct {
	Project  string `json:"prj"`
	After    string `json:"aft"`
	Snapshot int64  `json:"snap"`
	jwt.RegisteredClaims
}

// Codec signs and verifies page tokens.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// NewCodec builds a Codec from the configured secret. An empty secret gets a
// random one, which invalidates outstanding tokens across restarts.
func NewCodec(secret string) *Codec {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		_, _ = rand.Read(key)
	}
	return &Codec{secret: key, ttl: 24 * time.Hour}
}

// Encode signs a cursor into an opaque token.
func (c *Codec) Encode(cur Cursor) (string, error) {
	now := time.Now()
	claims := cursorClaims{
		Project:  cur.Project,
		After:    cur.After,
		Snapshot: cur.Snapshot.UnixNano(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign page token: %w", err)
	}

	return signed, nil
}

// Decode verifies a token and returns its cursor. The token must have been
// minted for the given project.
func (c *Codec) Decode(token, project string) (Cursor, error) {
	var claims cursorClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return Cursor{}, ErrInvalidToken
	}
	if claims.Project != project {
		return Cursor{}, ErrInvalidToken
	}

	return Cursor{
		Project:  claims.Project,
		After:    claims.After,
		Snapshot: time.Unix(0, claims.Snapshot).UTC(),
	}, nil
}
