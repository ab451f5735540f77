package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// User holds the account owner and its running cash balance.
type User struct {
	ID           string          // Unique identifier (UUID)
	Username     string          // Unique login name
	Email        string          // Contact email
	TotalCapital decimal.Decimal // Current cash balance, never negative
	Version      int64           // Optimistic concurrency counter, bumped on every balance write
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
