// internal/auth/auth.go
//
// Verified-identity lookup for mutating endpoints.
// Responsibilities:
//   - Extract a bearer token from the Authorization header or the auth cookie.
//   - Verify HS256 JWTs carrying "id" and "username" claims.
//   - Gate routes: requests without a valid identity get 401 before any
//     body parsing or store access happens.
//   - Mint tokens for development clients and tests.
//
// Accounts and passwords live outside this service; a valid signature is the
// whole of authentication here.

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/hlog"
)

// Identity is the verified caller.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"username"`
}

// ErrInvalidToken is returned for tokens that fail verification or lack claims.
var ErrInvalidToken = errors.New("invalid token")

// ctxIdentityKey is the context key type for storing Identity.
type ctxIdentityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxIdentityKey{}, id)
}

// FromContext returns the identity placed by RequireAuth, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxIdentityKey{}).(Identity)
	return id, ok && id.ID != ""
}

// Verifier checks tokens signed with a shared secret.
type Verifier struct {
	secret     []byte
	cookieName string
}

// NewVerifier constructs a Verifier. cookieName may be empty to accept only
// the Authorization header.
func NewVerifier(secret, cookieName string) *Verifier {
	return &Verifier{secret: []byte(secret), cookieName: cookieName}
}

// Verify parses tokenStr and returns the identity it carries.
func (v *Verifier) Verify(tokenStr string) (Identity, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	id, _ := claims["id"].(string)
	username, _ := claims["username"].(string)
	if id == "" {
		return Identity{}, ErrInvalidToken
	}
	if username == "" {
		username = id
	}
	return Identity{ID: id, Name: username}, nil
}

// RequireAuth enforces a valid JWT and injects Identity into the request context.
func (v *Verifier) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := v.bearerOrCookie(r)
		if tokenStr == "" {
			unauthorized(w)
			return
		}
		id, err := v.Verify(tokenStr)
		if err != nil {
			hlog.FromRequest(r).Debug().Err(err).Msg("rejecting token")
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// bearerOrCookie extracts a bearer token from Authorization header or auth cookie.
func (v *Verifier) bearerOrCookie(r *http.Request) string {
	// Authorization: Bearer <token>
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if v.cookieName != "" {
		if c, err := r.Cookie(v.cookieName); err == nil {
			return c.Value
		}
	}
	return ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"success":false,"error":"unauthorized"}`))
}

// Signer mints tokens accepted by a Verifier with the same secret.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

// NewSigner constructs a Signer whose tokens expire after ttl.
func NewSigner(secret string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), ttl: ttl}
}

// Sign creates an HS256 JWT with id/username claims.
func (s *Signer) Sign(id, username string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	})
	ss, err := t.SignedString(s.secret)
	return ss, exp, err
}
