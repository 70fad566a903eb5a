package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"EstateMarket/models"
	"EstateMarket/services"
	"EstateMarket/store"
	"EstateMarket/utils"

	"github.com/labstack/echo/v4"
)

const sessionKey = "session"

// JWTMiddleware rejects requests without a valid bearer token and stores the
// caller's session on the context. Role and fraud state come from the stored
// user, so demotions and deletions apply to tokens already issued.
func JWTMiddleware(tokens *utils.JWTManager, users store.UserStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "Authorization header is required",
				})
			}
			sess, err := authenticate(c.Request().Context(), tokens, users, authHeader)
			if err != nil {
				return authError(c, err)
			}
			c.Set(sessionKey, sess)
			return next(c)
		}
	}
}

// OptionalJWT lets anonymous requests through as guests. A token that is
// present but invalid is still refused.
func OptionalJWT(tokens *utils.JWTManager, users store.UserStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				c.Set(sessionKey, services.Guest())
				return next(c)
			}
			sess, err := authenticate(c.Request().Context(), tokens, users, authHeader)
			if err != nil {
				return authError(c, err)
			}
			c.Set(sessionKey, sess)
			return next(c)
		}
	}
}

// RequireRole must run after JWTMiddleware.
func RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := SessionFrom(c)
			for _, role := range roles {
				if sess.Is(role) {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, map[string]string{
				"error": "You are not authorized to access this resource",
			})
		}
	}
}

// SessionFrom returns the caller stored by the JWT middleware, or a guest.
func SessionFrom(c echo.Context) services.Session {
	if sess, ok := c.Get(sessionKey).(services.Session); ok {
		return sess
	}
	return services.Guest()
}

type headerError string

func (e headerError) Error() string { return string(e) }

const (
	errHeaderFormat headerError = "Invalid authorization header format"
	errBadToken     headerError = "Invalid token"
	errUnknownUser  headerError = "User no longer exists"
)

func authError(c echo.Context, err error) error {
	var header headerError
	if errors.As(err, &header) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": header.Error()})
	}
	slog.Default().Error("session lookup failed",
		"event", "session_lookup_failed",
		"module", "middleware",
		"path", c.Path(),
		"error", err.Error(),
	)
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
}

func authenticate(ctx context.Context, tokens *utils.JWTManager, users store.UserStore, authHeader string) (services.Session, error) {
	tokenParts := strings.Fields(authHeader)
	if len(tokenParts) != 2 || !strings.EqualFold(tokenParts[0], "Bearer") {
		return services.Session{}, errHeaderFormat
	}
	claims, err := tokens.ValidateJWT(tokenParts[1])
	if err != nil || claims.Role == models.RoleGuest {
		return services.Session{}, errBadToken
	}
	user, err := users.FindByID(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return services.Session{}, errUnknownUser
	}
	if err != nil {
		return services.Session{}, err
	}
	return services.SessionFor(user), nil
}
