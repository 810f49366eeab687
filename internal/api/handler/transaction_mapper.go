package handler

import (
	"github.com/fint/finance-tracker/internal/core/domain"
	"github.com/fint/finance-tracker/internal/core/ports"
)

// toTransactionInput converts a validated request into the service input.
func toTransactionInput(req transactionRequest) (ports.TransactionInput, error) {
	date, err := domain.ParseDate(req.Date)
	if err != nil {
		return ports.TransactionInput{}, err
	}
	return ports.TransactionInput{
		Date:        date,
		Description: req.Description,
		Amount:      *req.Amount,
		Category:    req.Category,
	}, nil
}

func toTransactionResponse(tx *domain.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		UserID:      tx.UserID,
		Date:        domain.FormatDate(tx.Date),
		Description: tx.Description,
		Amount:      tx.Amount,
		Category:    tx.Category,
	}
}

func toTransactionResponses(txs []*domain.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	return out
}

func toCategoryTotalResponses(totals []ports.CategoryTotal) []categoryTotalResponse {
	out := make([]categoryTotalResponse, 0, len(totals))
	for _, t := range totals {
		out = append(out, categoryTotalResponse{Category: t.Category, Total: t.Total})
	}
	return out
}

func toBalanceResponses(points []ports.BalancePoint) []balancePointResponse {
	out := make([]balancePointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, balancePointResponse{
			Date:    domain.FormatDate(p.Date),
			Amount:  p.Amount,
			Balance: p.Balance,
		})
	}
	return out
}
