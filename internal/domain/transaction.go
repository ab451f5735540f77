package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single buy or sell of a stock.
type Transaction struct {
	ID              string
	UserID          string
	StockID         string
	Type            TransactionType
	Quantity        decimal.Decimal
	Price           decimal.Decimal
	TransactionDate time.Time
	Comment         string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Amount returns quantity × price.
func (t *Transaction) Amount() decimal.Decimal {
	return t.Quantity.Mul(t.Price)
}
