package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fint/finance-tracker/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantDetail string
	}{
		{"bad credentials", domain.ErrBadCredentials, http.StatusBadRequest, "Incorrect username or password"},
		{"invalid token", domain.ErrInvalidToken, http.StatusUnauthorized, "Could not validate credentials"},
		{"duplicate user", domain.ErrUserExists, http.StatusBadRequest, "Username already exists"},
		{"idempotency key in flight", domain.ErrIdempotencyInProgress, http.StatusConflict, "A request with this Idempotency-Key is still in progress"},
		{"foreign or missing", fmt.Errorf("update: %w", domain.ErrTransactionNotFound), http.StatusNotFound, "Transaction not found"},
		{"negative amount", domain.ErrNegativeAmount, http.StatusBadRequest, domain.ErrNegativeAmount.Error()},
		{"echo error", echo.ErrMethodNotAllowed, http.StatusMethodNotAllowed, "Method Not Allowed"},
		{"unexpected", errors.New("disk full"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			NewHTTPErrorHandler(zerolog.Nop())(tt.err, c)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			var resp map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp["detail"] != tt.wantDetail {
				t.Fatalf("expected detail %q, got %q", tt.wantDetail, resp["detail"])
			}

			challenge := rec.Header().Get(echo.HeaderWWWAuthenticate)
			if tt.wantCode == http.StatusUnauthorized && challenge != "Bearer" {
				t.Fatalf("expected WWW-Authenticate: Bearer, got %q", challenge)
			}
			if tt.wantCode != http.StatusUnauthorized && challenge != "" {
				t.Fatalf("unexpected WWW-Authenticate header %q", challenge)
			}
		})
	}
}
