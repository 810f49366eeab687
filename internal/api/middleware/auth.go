package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/fint/finance-tracker/internal/api/metrics"
	"github.com/fint/finance-tracker/internal/core/domain"
)

// ContextKeyUser is the echo.Context key holding the authenticated *domain.User.
const ContextKeyUser = "user"

// TokenAuthenticator resolves a bearer token to its user.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// Auth validates the bearer token against the authenticator and injects the
// resolved user into the context. Failures are returned as errors wrapping
// domain.ErrUnauthorized for the central error handler.
func Auth(authenticator TokenAuthenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				metrics.AuthAttemptsTotal.WithLabelValues("authenticate", metrics.ResultFailure).Inc()
				return domain.ErrInvalidToken
			}

			user, err := authenticator.Authenticate(c.Request().Context(), token)
			metrics.AuthAttemptsTotal.WithLabelValues("authenticate", metrics.Result(err)).Inc()
			if err != nil {
				return err
			}

			c.Set(ContextKeyUser, user)
			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
