package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/fint/finance-tracker/internal/api/middleware"
	"github.com/fint/finance-tracker/internal/core/domain"
)

// ctxUser returns the user the Auth middleware resolved from the bearer
// token. It is the only source of the owner for transaction operations;
// a missing value means the route was mounted without the middleware.
func ctxUser(c echo.Context) (*domain.User, error) {
	user, ok := c.Get(middleware.ContextKeyUser).(*domain.User)
	if !ok || user == nil {
		return nil, domain.ErrInvalidToken
	}
	return user, nil
}
