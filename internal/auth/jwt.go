package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"
)

var (
	// ErrInvalidToken covers bad signatures, malformed tokens and unusable claims.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned for well-signed tokens past their expiry.
	// It also matches ErrInvalidToken.
	ErrTokenExpired = fmt.Errorf("%w: token expired", ErrInvalidToken)
)

// Claims defines the JWT claims structure. The subject carries the user id.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Codec issues and verifies HS256 tokens. It is safe for concurrent use.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCodec creates a Codec signing with secret and issuing tokens valid for ttl.
func NewCodec(secret []byte, ttl time.Duration) *Codec {
	return &Codec{secret: secret, ttl: ttl, now: time.Now}
}

// TTL returns how long issued tokens stay valid.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue creates a signed token asserting subjectID.
func (c *Codec) Issue(subjectID int64, email string) (string, error) {
	now := c.now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subjectID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify checks the signature and expiry of tokenStr and returns its subject.
func (c *Codec) Verify(tokenStr string) (int64, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return 0, ErrInvalidToken
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, claims.Subject)
	}
	return id, nil
}

type contextKey string

// identityKey is the context key for the verified user id.
const identityKey = contextKey("identity")

// WithIdentity returns a copy of ctx carrying the verified user id.
func WithIdentity(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, identityKey, userID)
}

// IdentityFromContext returns the user id stored by Middleware.
func IdentityFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(identityKey).(int64)
	return id, ok
}

// Middleware creates a middleware for protecting routes. Requests without a
// valid bearer token are rejected with 401.
func Middleware(codec *Codec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				unauthorized(w, "Not authenticated")
				return
			}

			userID, err := codec.Verify(tokenStr)
			if err != nil {
				hlog.FromRequest(r).Warn().Err(err).Msg("Rejected bearer token")
				if errors.Is(err, ErrTokenExpired) {
					unauthorized(w, "Token has expired")
					return
				}
				unauthorized(w, "Invalid authentication credentials")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), userID)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
