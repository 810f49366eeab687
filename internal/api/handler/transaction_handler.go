package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/fint/finance-tracker/internal/api/metrics"
	"github.com/fint/finance-tracker/internal/core/domain"
	"github.com/fint/finance-tracker/internal/core/ports"
)

// HeaderIdempotencyKey is the optional request header that makes a create
// safe to retry. HeaderIdempotentReplayed is set on responses served from an
// earlier create.
const (
	HeaderIdempotencyKey     = "Idempotency-Key"
	HeaderIdempotentReplayed = "Idempotent-Replayed"
)

// TransactionHandler handles HTTP requests for the caller's transactions.
// Every route sits behind middleware.Auth; the owner is always the
// authenticated user.
type TransactionHandler struct {
	service ports.TransactionService
}

func NewTransactionHandler(service ports.TransactionService) *TransactionHandler {
	return &TransactionHandler{service: service}
}

// Create handles POST /transactions.
//
// @Summary      Record a transaction
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string              false  "Makes retries return the first result"
// @Param        body             body      transactionRequest  true   "Transaction"
// @Success      200              {object}  transactionResponse
// @Failure      400              {object}  ErrorResponse
// @Failure      401              {object}  ErrorResponse
// @Failure      409              {object}  ErrorResponse
// @Router       /transactions [post]
func (h *TransactionHandler) Create(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	input, err := bindTransaction(c)
	if err != nil {
		return err
	}

	res, err := h.service.Create(c.Request().Context(), user, ports.CreateTransactionInput{
		TransactionInput: input,
		IdempotencyKey:   c.Request().Header.Get(HeaderIdempotencyKey),
	})
	metrics.TransactionOperationsTotal.WithLabelValues("create", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	if res.AlreadyExisted {
		metrics.IdempotentReplaysTotal.Inc()
		c.Response().Header().Set(HeaderIdempotentReplayed, "true")
	}
	return c.JSON(http.StatusOK, toTransactionResponse(res.Transaction))
}

// List handles GET /transactions.
//
// @Summary      List the caller's transactions
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   transactionResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /transactions [get]
func (h *TransactionHandler) List(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	txs, err := h.service.List(c.Request().Context(), user)
	metrics.TransactionOperationsTotal.WithLabelValues("list", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTransactionResponses(txs))
}

// Update handles PUT /transactions/:id. All mutable fields are overwritten.
//
// @Summary      Replace a transaction
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                 true  "Transaction id"
// @Param        body  body      transactionRequest  true  "Transaction"
// @Success      200   {object}  transactionResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /transactions/{id} [put]
func (h *TransactionHandler) Update(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	input, err := bindTransaction(c)
	if err != nil {
		return err
	}

	tx, err := h.service.Update(c.Request().Context(), user, id, input)
	metrics.TransactionOperationsTotal.WithLabelValues("update", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTransactionResponse(tx))
}

// Delete handles DELETE /transactions/:id.
//
// @Summary      Delete a transaction
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Transaction id"
// @Success      200  {object}  deleteResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /transactions/{id} [delete]
func (h *TransactionHandler) Delete(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	err = h.service.Delete(c.Request().Context(), user, id)
	metrics.TransactionOperationsTotal.WithLabelValues("delete", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, deleteResponse{Detail: "Transaction deleted"})
}

// CategoryTotals handles GET /transactions/summary/categories.
//
// @Summary      Spend by category
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   categoryTotalResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /transactions/summary/categories [get]
func (h *TransactionHandler) CategoryTotals(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	totals, err := h.service.CategoryTotals(c.Request().Context(), user)
	metrics.TransactionOperationsTotal.WithLabelValues("summary", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCategoryTotalResponses(totals))
}

// Balance handles GET /transactions/balance.
//
// @Summary      Running balance over time
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   balancePointResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /transactions/balance [get]
func (h *TransactionHandler) Balance(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}

	points, err := h.service.Balance(c.Request().Context(), user)
	metrics.TransactionOperationsTotal.WithLabelValues("balance", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBalanceResponses(points))
}

func bindTransaction(c echo.Context) (ports.TransactionInput, error) {
	var req transactionRequest
	if err := c.Bind(&req); err != nil {
		return ports.TransactionInput{}, fmt.Errorf("%w: invalid payload", domain.ErrInvalidInput)
	}
	if err := c.Validate(&req); err != nil {
		return ports.TransactionInput{}, err
	}
	return toTransactionInput(req)
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: transaction id must be an integer", domain.ErrInvalidInput)
	}
	return id, nil
}
