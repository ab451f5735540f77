package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CapitalMovement records cash entering or leaving a user's balance.
// Explicit deposits and withdrawals leave TransactionID empty; the synthetic
// record written for every trade points at that trade.
type CapitalMovement struct {
	ID            string
	UserID        string
	Amount        decimal.Decimal // Always positive, direction is given by Type
	Type          MovementType
	Date          time.Time
	Description   string
	TransactionID string // Trade this movement shadows, empty for explicit movements
	CreatedAt     time.Time
}

// SignedAmount returns the delta this movement applies to the balance.
func (c *CapitalMovement) SignedAmount() decimal.Decimal {
	if c.Type == Withdrawal {
		return c.Amount.Neg()
	}
	return c.Amount
}

// IsSynthetic reports whether the movement was generated by a trade.
func (c *CapitalMovement) IsSynthetic() bool {
	return c.TransactionID != ""
}
