package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/fint/finance-tracker/internal/core/domain"
	"github.com/fint/finance-tracker/internal/core/ports"
)

var alice = &domain.User{ID: 1, Username: "alice"}

func strPtr(s string) *string { return &s }

func TestTransactionHandler_Create_Success(t *testing.T) {
	stub := &stubTransactionService{
		createFn: func(ctx context.Context, user *domain.User, input ports.CreateTransactionInput) (*ports.CreateResult, error) {
			if user.ID != alice.ID {
				t.Fatalf("owner must come from context, got %d", user.ID)
			}
			if !input.Amount.Equal(decimal.RequireFromString("50.25")) {
				t.Fatalf("unexpected amount: %s", input.Amount)
			}
			if input.Date != time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC) {
				t.Fatalf("unexpected date: %s", input.Date)
			}
			if input.Category == nil || *input.Category != "food" || input.Description != nil {
				t.Fatalf("unexpected optional fields: %+v", input)
			}
			if input.IdempotencyKey != "k-1" {
				t.Fatalf("idempotency key not forwarded: %q", input.IdempotencyKey)
			}
			return &ports.CreateResult{Transaction: &domain.Transaction{
				ID: 9, UserID: user.ID, Date: input.Date, Amount: input.Amount, Category: input.Category,
			}}, nil
		},
	}
	handler := NewTransactionHandler(stub)

	c, rec := newContext(http.MethodPost, "/transactions", echo.MIMEApplicationJSON,
		`{"date":"2024-01-31","amount":50.25,"category":"food","user_id":2}`, alice)
	c.Request().Header.Set(HeaderIdempotencyKey, "k-1")

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get(HeaderIdempotentReplayed) != "" {
		t.Fatalf("first create must not be marked as replayed")
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["id"] != float64(9) || resp["user_id"] != float64(1) || resp["date"] != "2024-01-31" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if resp["amount"] != "50.25" {
		t.Fatalf("expected amount rendered as decimal string, got %v", resp["amount"])
	}
	if resp["description"] != nil {
		t.Fatalf("expected null description, got %v", resp["description"])
	}
}

func TestTransactionHandler_Create_Replay(t *testing.T) {
	stub := &stubTransactionService{
		createFn: func(ctx context.Context, user *domain.User, input ports.CreateTransactionInput) (*ports.CreateResult, error) {
			return &ports.CreateResult{
				Transaction:    &domain.Transaction{ID: 9, UserID: user.ID, Amount: input.Amount},
				AlreadyExisted: true,
			}, nil
		},
	}
	handler := NewTransactionHandler(stub)

	c, rec := newContext(http.MethodPost, "/transactions", echo.MIMEApplicationJSON,
		`{"date":"2024-01-31","amount":"1"}`, alice)

	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Header().Get(HeaderIdempotentReplayed) != "true" {
		t.Fatalf("expected replay header")
	}
}

func TestTransactionHandler_Create_InvalidPayload(t *testing.T) {
	stub := &stubTransactionService{
		createFn: func(ctx context.Context, user *domain.User, input ports.CreateTransactionInput) (*ports.CreateResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewTransactionHandler(stub)

	cases := map[string]string{
		"not json":       "{",
		"missing amount": `{"date":"2024-01-31"}`,
		"null amount":    `{"date":"2024-01-31","amount":null}`,
		"missing date":   `{"amount":1}`,
		"bad date":       `{"date":"31/01/2024","amount":1}`,
		"impossible day": `{"date":"2024-02-30","amount":1}`,
		"bad amount":     `{"date":"2024-01-31","amount":"ten"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c, _ := newContext(http.MethodPost, "/transactions", echo.MIMEApplicationJSON, body, alice)
			if err := handler.Create(c); !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestTransactionHandler_RequiresUser(t *testing.T) {
	handler := NewTransactionHandler(&stubTransactionService{})

	c, _ := newContext(http.MethodGet, "/transactions", "", "", nil)
	if err := handler.List(c); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestTransactionHandler_List(t *testing.T) {
	stub := &stubTransactionService{
		listFn: func(ctx context.Context, user *domain.User) ([]*domain.Transaction, error) {
			return []*domain.Transaction{}, nil
		},
	}
	handler := NewTransactionHandler(stub)

	c, rec := newContext(http.MethodGet, "/transactions", "", "", alice)
	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "[]\n" {
		t.Fatalf("expected empty JSON array, got %q", got)
	}
}

func TestTransactionHandler_Update(t *testing.T) {
	stub := &stubTransactionService{
		updateFn: func(ctx context.Context, user *domain.User, id int64, input ports.TransactionInput) (*domain.Transaction, error) {
			if id != 42 {
				t.Fatalf("unexpected id %d", id)
			}
			return &domain.Transaction{ID: id, UserID: user.ID, Date: input.Date, Amount: input.Amount, Description: strPtr("rent")}, nil
		},
	}
	handler := NewTransactionHandler(stub)

	c, rec := newContext(http.MethodPut, "/transactions/42", echo.MIMEApplicationJSON,
		`{"date":"2024-02-01","amount":"900","description":"rent"}`, alice)
	c.SetParamNames("id")
	c.SetParamValues("42")

	if err := handler.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestTransactionHandler_Update_NotFound(t *testing.T) {
	stub := &stubTransactionService{
		updateFn: func(ctx context.Context, user *domain.User, id int64, input ports.TransactionInput) (*domain.Transaction, error) {
			return nil, domain.ErrTransactionNotFound
		},
	}
	handler := NewTransactionHandler(stub)

	c, _ := newContext(http.MethodPut, "/transactions/42", echo.MIMEApplicationJSON,
		`{"date":"2024-02-01","amount":"900"}`, alice)
	c.SetParamNames("id")
	c.SetParamValues("42")

	if err := handler.Update(c); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTransactionHandler_Delete(t *testing.T) {
	var deleted int64
	stub := &stubTransactionService{
		deleteFn: func(ctx context.Context, user *domain.User, id int64) error {
			deleted = id
			return nil
		},
	}
	handler := NewTransactionHandler(stub)

	c, rec := newContext(http.MethodDelete, "/transactions/7", "", "", alice)
	c.SetParamNames("id")
	c.SetParamValues("7")

	if err := handler.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if deleted != 7 {
		t.Fatalf("expected id 7 deleted, got %d", deleted)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["detail"] != "Transaction deleted" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestTransactionHandler_Delete_BadID(t *testing.T) {
	handler := NewTransactionHandler(&stubTransactionService{
		deleteFn: func(ctx context.Context, user *domain.User, id int64) error {
			t.Fatalf("should not be called")
			return nil
		},
	})

	c, _ := newContext(http.MethodDelete, "/transactions/abc", "", "", alice)
	c.SetParamNames("id")
	c.SetParamValues("abc")

	if err := handler.Delete(c); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestTransactionHandler_Aggregates(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stub := &stubTransactionService{
		totalsFn: func(ctx context.Context, user *domain.User) ([]ports.CategoryTotal, error) {
			return []ports.CategoryTotal{{Category: "food", Total: decimal.RequireFromString("70.00")}}, nil
		},
		balanceFn: func(ctx context.Context, user *domain.User) ([]ports.BalancePoint, error) {
			return []ports.BalancePoint{{Date: day, Amount: decimal.NewFromInt(5), Balance: decimal.NewFromInt(5)}}, nil
		},
	}
	handler := NewTransactionHandler(stub)

	c, rec := newContext(http.MethodGet, "/transactions/summary/categories", "", "", alice)
	if err := handler.CategoryTotals(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var totals []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &totals); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(totals) != 1 || totals[0]["category"] != "food" || totals[0]["total"] != "70" {
		t.Fatalf("unexpected totals: %+v", totals)
	}

	c, rec = newContext(http.MethodGet, "/transactions/balance", "", "", alice)
	if err := handler.Balance(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var points []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &points); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(points) != 1 || points[0]["date"] != "2024-01-01" || points[0]["balance"] != "5" {
		t.Fatalf("unexpected balance: %+v", points)
	}
}
