package domain

// TransactionType represents the side of a stock transaction (BUY or SELL).
type TransactionType string

const (
	Buy  TransactionType = "BUY"
	Sell TransactionType = "SELL"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == Buy || t == Sell
}

// MovementType represents the direction of a capital movement.
type MovementType string

const (
	Deposit    MovementType = "deposit"
	Withdrawal MovementType = "withdrawal"
)

// Valid reports whether m is a known movement type.
func (m MovementType) Valid() bool {
	return m == Deposit || m == Withdrawal
}
