package handler

import (
	"github.com/shopspring/decimal"
)

// --- Request / Response types ---

// transactionRequest is the body of POST /transactions and PUT
// /transactions/:id. It has no owner field.
type transactionRequest struct {
	Date        string           `json:"date"        validate:"required,datetime=2006-01-02" example:"2024-01-31"`
	Description *string          `json:"description" validate:"omitempty,max=500"            example:"groceries"`
	Amount      *decimal.Decimal `json:"amount"      validate:"required"                     swaggertype:"string" example:"50.00"`
	Category    *string          `json:"category"    validate:"omitempty,max=100"            example:"food"`
}

type transactionResponse struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	Date        string          `json:"date"`
	Description *string         `json:"description"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"string"`
	Category    *string         `json:"category"`
}

type deleteResponse struct {
	Detail string `json:"detail"`
}

type categoryTotalResponse struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total" swaggertype:"string"`
}

type balancePointResponse struct {
	Date    string          `json:"date"`
	Amount  decimal.Decimal `json:"amount"  swaggertype:"string"`
	Balance decimal.Decimal `json:"balance" swaggertype:"string"`
}
