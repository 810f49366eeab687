package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/fint/finance-tracker/internal/api/middleware"
	"github.com/fint/finance-tracker/internal/core/domain"
	"github.com/fint/finance-tracker/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, username, password string) (*domain.User, error)
	loginFn    func(ctx context.Context, username, password string) (string, *domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	return s.registerFn(ctx, username, password)
}

func (s *stubAuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, username, password)
}

func (s *stubAuthService) Authenticate(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrInvalidToken
}

type stubTransactionService struct {
	createFn  func(ctx context.Context, user *domain.User, input ports.CreateTransactionInput) (*ports.CreateResult, error)
	listFn    func(ctx context.Context, user *domain.User) ([]*domain.Transaction, error)
	updateFn  func(ctx context.Context, user *domain.User, id int64, input ports.TransactionInput) (*domain.Transaction, error)
	deleteFn  func(ctx context.Context, user *domain.User, id int64) error
	totalsFn  func(ctx context.Context, user *domain.User) ([]ports.CategoryTotal, error)
	balanceFn func(ctx context.Context, user *domain.User) ([]ports.BalancePoint, error)
}

func (s *stubTransactionService) Create(ctx context.Context, user *domain.User, input ports.CreateTransactionInput) (*ports.CreateResult, error) {
	return s.createFn(ctx, user, input)
}

func (s *stubTransactionService) List(ctx context.Context, user *domain.User) ([]*domain.Transaction, error) {
	return s.listFn(ctx, user)
}

func (s *stubTransactionService) Update(ctx context.Context, user *domain.User, id int64, input ports.TransactionInput) (*domain.Transaction, error) {
	return s.updateFn(ctx, user, id, input)
}

func (s *stubTransactionService) Delete(ctx context.Context, user *domain.User, id int64) error {
	return s.deleteFn(ctx, user, id)
}

func (s *stubTransactionService) CategoryTotals(ctx context.Context, user *domain.User) ([]ports.CategoryTotal, error) {
	return s.totalsFn(ctx, user)
}

func (s *stubTransactionService) Balance(ctx context.Context, user *domain.User) ([]ports.BalancePoint, error) {
	return s.balanceFn(ctx, user)
}

// newContext builds an echo context with the validator installed and, when
// user is non-nil, the authenticated user set as middleware.Auth would.
func newContext(method, target, contentType, body string, user *domain.User) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != nil {
		c.Set(middleware.ContextKeyUser, user)
	}
	return c, rec
}
