package jwt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"driver-review-service/internal/apperr"
	"driver-review-service/internal/models"
)

// Claims represents the JWT payload. RegisteredClaims.ID carries the jti used for sign-out.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	gojwt.RegisteredClaims
}

// Revoker reports whether a token id was signed out.
type Revoker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type ctxKey string

const claimsCtxKey ctxKey = "jwt_claims"

var (
	secret  []byte
	ttl     = 24 * time.Hour
	revoker Revoker
)

// Init must be called once at startup with the JWT_SECRET value.
// A zero tokenTTL keeps the 24h default.
func Init(s string, tokenTTL time.Duration) error {
	if s == "" {
		return errors.New("JWT_SECRET is required")
	}
	secret = []byte(s)
	if tokenTTL > 0 {
		ttl = tokenTTL
	}
	return nil
}

// SetRevoker installs the sign-out denylist consulted by OptionalAuth.
func SetRevoker(r Revoker) { revoker = r }

// Generate creates a signed JWT for the given profile.
func Generate(userID, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: gojwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(secret)
}

// Validate parses and validates a raw JWT string.
func Validate(raw string) (*Claims, error) {
	token, err := gojwt.ParseWithClaims(raw, &Claims{}, func(t *gojwt.Token) (any, error) {
		if _, ok := t.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Remaining is how long the token stays valid, zero once expired.
func (c *Claims) Remaining() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	if d := time.Until(c.ExpiresAt.Time); d > 0 {
		return d
	}
	return 0
}

// ---- HTTP Middleware ----

// OptionalAuth extracts JWT claims into context if a Bearer token is present.
// Requests without a token, or with a revoked one, pass through with nil claims.
func OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			if claims, err := Validate(auth[7:]); err == nil && !isRevoked(r.Context(), claims) {
				r = r.WithContext(WithClaims(r.Context(), claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func isRevoked(ctx context.Context, c *Claims) bool {
	if revoker == nil || c.ID == "" {
		return false
	}
	revoked, err := revoker.IsRevoked(ctx, c.ID)
	// fail open: a Redis outage must not sign everyone out
	return err == nil && revoked
}

// RequireAuth rejects requests that have no valid JWT in context.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetClaims(r.Context()) == nil {
			apperr.Write(w, apperr.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithClaims stores claims on ctx.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, c)
}

// GetClaims retrieves the parsed claims from context (nil if absent).
func GetClaims(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsCtxKey).(*Claims)
	return c
}

// Identity converts the request claims into the caller identity, nil when anonymous.
func Identity(ctx context.Context) *models.Identity {
	c := GetClaims(ctx)
	if c == nil {
		return nil
	}
	return &models.Identity{UserID: c.UserID, Email: c.Email}
}
