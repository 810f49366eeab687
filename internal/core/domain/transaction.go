package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire and storage format for transaction dates.
const DateLayout = "2006-01-02"

// UncategorizedLabel is the bucket used by aggregates for transactions
// without a category.
const UncategorizedLabel = "uncategorized"

// Transaction is a dated monetary record owned by exactly one user.
type Transaction struct {
	ID          int64
	UserID      int64
	Date        time.Time
	Description *string
	Amount      decimal.Decimal
	Category    *string
}

// ValidateAmount rejects negative amounts. Zero is allowed.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD calendar date into UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// CategoryOf returns the aggregate bucket for a transaction.
func (t Transaction) CategoryOf() string {
	if t.Category == nil || *t.Category == "" {
		return UncategorizedLabel
	}
	return *t.Category
}
