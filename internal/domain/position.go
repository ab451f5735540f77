package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock is a user's position in a single symbol.
// The record is never deleted: it is closed when the quantity reaches zero and
// reopened by the next buy.
type Stock struct {
	ID                   string
	UserID               string
	Symbol               string          // Uppercase ticker, e.g. "AAPL"
	CurrentQuantity      decimal.Decimal // Shares currently held
	AveragePrice         decimal.Decimal // Quantity-weighted cost basis, recomputed on buys only
	IsOpen               bool
	OpenDate             time.Time
	CloseDate            *time.Time      // nil while open
	ProfitLoss           decimal.Decimal // Cumulative realized P&L across all holding periods
	ProfitLossPercentage decimal.Decimal // Percentage of the most recent sell
	Notes                string
	LastTradeDate        *time.Time
	Version              int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// CurrentValue returns the cost value of the shares still held.
func (s *Stock) CurrentValue() decimal.Decimal {
	return s.CurrentQuantity.Mul(s.AveragePrice)
}

// Status returns "open" or "closed".
func (s *Stock) Status() string {
	if s.IsOpen {
		return "open"
	}
	return "closed"
}
