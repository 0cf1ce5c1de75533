// Package auth holds password hashing and the signed session token issued to
// browsers as a cookie. The token is self-contained: the server keeps no
// session table, and a configured signing secret keeps sessions valid across
// restarts.
package auth

import (
	"crypto/rand"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "session_token"

var ErrInvalidSession = errors.New("auth: invalid session token")

// Identity is the authenticated principal. Handlers receive it only when a
// valid session is present; there is no half-authenticated state.
type Identity struct {
	UserID   uint64
	Username string
}

type sessionClaims struct {
	UserID   uint64 `json:"uid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Session is a parsed, verified session token.
type Session struct {
	Identity Identity

	// TokenID keys the revocation store entry written on logout.
	TokenID   string
	ExpiresAt time.Time
}

// SignSession issues a session token for id, valid for ttl.
func SignSession(secret string, id Identity, ttl time.Duration) (token string, tokenID string, err error) {
	now := time.Now()
	tokenID = ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()

	claims := sessionClaims{
		UserID:   id.UserID,
		Username: id.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", "", err
	}
	return token, tokenID, nil
}

// ParseSession verifies a session token. Expired or tampered tokens return
// ErrInvalidSession.
func ParseSession(secret, token string) (*Session, error) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("auth: unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidSession
	}
	if claims.UserID == 0 || claims.ExpiresAt == nil {
		return nil, ErrInvalidSession
	}

	return &Session{
		Identity:  Identity{UserID: claims.UserID, Username: claims.Username},
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
