// Package middleware provides HTTP middleware for authentication, logging, metrics and tracing.
package middleware

import (
	"context"
	"errors"
	"strings"

	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// TokenVerifier resolves a bearer token to the user it was issued for.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*models.User, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
// It returns "" when the header is absent or uses another scheme.
func BearerToken(c *fiber.Ctx) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// AuthRequired rejects the request unless it carries a valid token for an
// existing user. On success the user id is stored in locals as "userID" and
// the user itself as "user".
func AuthRequired(v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := v.VerifyToken(c.UserContext(), BearerToken(c))
		if err != nil {
			recordAuthFailure(err)
			return models.RespondWithError(c, models.StatusFor(err), err)
		}
		setUser(c, user)
		return c.Next()
	}
}

// OptionalAuth attaches the user when a valid token is present and otherwise
// lets the request through anonymously. A present but invalid token is still
// rejected.
func OptionalAuth(v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := BearerToken(c)
		if token == "" {
			return c.Next()
		}
		user, err := v.VerifyToken(c.UserContext(), token)
		if err != nil {
			recordAuthFailure(err)
			return models.RespondWithError(c, models.StatusFor(err), err)
		}
		setUser(c, user)
		return c.Next()
	}
}

func setUser(c *fiber.Ctx, user *models.User) {
	c.Locals("userID", user.ID)
	c.Locals("user", user)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, user.ID))
}

func recordAuthFailure(err error) {
	reason := "invalid"
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Err != nil {
		reason = appErr.Err.Error()
	} else if !models.IsCode(err, models.CodeUnauthorized) {
		reason = "error"
	}
	AuthFailures.WithLabelValues(reason).Inc()
}
