package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/addressbook/internal/domain/user"
	"github.com/geocoder89/addressbook/internal/observability"
	"github.com/gin-gonic/gin"
)

// Keep these small interfaces so tests can fake them easily.
type TokenValidator interface {
	Validate(token string) (string, error)
}

type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
}

type AuthMiddleware struct {
	tokens  TokenValidator
	users   UserLookup
	metrics *observability.Prom
}

func NewAuthMiddleware(tokens TokenValidator, users UserLookup, metrics *observability.Prom) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users, metrics: metrics}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			m.unauthorized(c, "missing", "Missing or invalid Authorization header")
			return
		}

		username, err := m.tokens.Validate(raw)
		if err != nil {
			m.unauthorized(c, "invalid", "Invalid or expired access token")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		u, err := m.users.GetByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				// valid signature but the account is gone
				m.unauthorized(c, "unknown_user", "Invalid user")
				return
			}

			slog.Default().ErrorContext(c.Request.Context(), "auth user lookup failed", "err", err, "request_id", c.GetString(CtxRequestID))
			abortWithError(c, http.StatusInternalServerError, "internal_error", "Could not authenticate request")
			return
		}

		m.metrics.IncAuth("token", "ok")

		c.Set(ctxUserKey, u)

		c.Next()
	}
}

func (m *AuthMiddleware) unauthorized(c *gin.Context, reason, message string) {
	m.metrics.IncAuth("token", reason)

	c.Header("WWW-Authenticate", "Bearer")
	abortWithError(c, http.StatusUnauthorized, "unauthorized", message)
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}

// UserFromContext returns the user resolved by RequireAuth.
func UserFromContext(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}
