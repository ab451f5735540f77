package app

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"tradejournal/internal/domain"
	"tradejournal/internal/ports"

	"github.com/shopspring/decimal"
)

const maxTextLength = 500

var (
	minAmount     = decimal.RequireFromString("0.01")
	symbolPattern = regexp.MustCompile(`^[A-Z]{1,10}$`)
)

// CapitalMovementCommand is a validated deposit or withdrawal request.
type CapitalMovementCommand struct {
	UserID      string
	Amount      decimal.Decimal
	Type        domain.MovementType
	Description string
	Date        time.Time
}

// TradeCommand is a validated buy or sell request.
type TradeCommand struct {
	UserID   string
	StockID  string
	Type     domain.TransactionType
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Date     time.Time
	Comment  string
}

// StockCommand is a validated request to register a position.
type StockCommand struct {
	UserID string
	Symbol string
	Notes  string
}

// TransactionPatch carries the fields a caller asked to change on a
// transaction. Nil fields are left alone.
type TransactionPatch struct {
	StockID  *string
	Type     *string
	Quantity *decimal.Decimal
	Price    *decimal.Decimal
	Date     *time.Time
	Comment  *string
}

// NewCapitalMovementCommand validates raw deposit/withdrawal input. A nil date
// means now.
func NewCapitalMovementCommand(userID string, amount decimal.Decimal, movementType, description string, date *time.Time, now time.Time) (CapitalMovementCommand, error) {
	if err := requireUser(userID); err != nil {
		return CapitalMovementCommand{}, err
	}
	if amount.LessThan(minAmount) {
		return CapitalMovementCommand{}, ports.Validation("Amount must be a positive number")
	}
	typ := domain.MovementType(strings.ToLower(strings.TrimSpace(movementType)))
	if !typ.Valid() {
		return CapitalMovementCommand{}, ports.Validation("Type must be either deposit or withdrawal")
	}
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) > maxTextLength {
		return CapitalMovementCommand{}, ports.Validation("Description cannot exceed 500 characters")
	}
	when, err := resolveDate(date, now)
	if err != nil {
		return CapitalMovementCommand{}, err
	}
	return CapitalMovementCommand{
		UserID:      userID,
		Amount:      amount,
		Type:        typ,
		Description: description,
		Date:        when,
	}, nil
}

// NewTradeCommand validates raw buy/sell input. A nil date means now.
func NewTradeCommand(userID, stockID, transactionType string, quantity, price decimal.Decimal, date *time.Time, comment string, now time.Time) (TradeCommand, error) {
	if err := requireUser(userID); err != nil {
		return TradeCommand{}, err
	}
	stockID = strings.TrimSpace(stockID)
	if stockID == "" {
		return TradeCommand{}, ports.Validation("Stock id is required")
	}
	typ := domain.TransactionType(strings.ToUpper(strings.TrimSpace(transactionType)))
	if !typ.Valid() {
		return TradeCommand{}, ports.Validation("Transaction type must be either BUY or SELL")
	}
	if quantity.LessThan(minAmount) {
		return TradeCommand{}, ports.Validation("Quantity must be greater than zero")
	}
	if price.LessThan(minAmount) {
		return TradeCommand{}, ports.Validation("Price must be greater than zero")
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > maxTextLength {
		return TradeCommand{}, ports.Validation("Comment cannot exceed 500 characters")
	}
	when, err := resolveDate(date, now)
	if err != nil {
		return TradeCommand{}, err
	}
	return TradeCommand{
		UserID:   userID,
		StockID:  stockID,
		Type:     typ,
		Quantity: quantity,
		Price:    price,
		Date:     when,
		Comment:  comment,
	}, nil
}

// NewStockCommand validates a symbol registration.
func NewStockCommand(userID, symbol, notes string) (StockCommand, error) {
	if err := requireUser(userID); err != nil {
		return StockCommand{}, err
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if !symbolPattern.MatchString(symbol) {
		return StockCommand{}, ports.Validation("Symbol must be 1 to 10 letters")
	}
	notes, err := validateNotes(notes)
	if err != nil {
		return StockCommand{}, err
	}
	return StockCommand{UserID: userID, Symbol: symbol, Notes: notes}, nil
}

// Validate checks the patch fields that are always malformed regardless of
// the stored transaction.
func (p TransactionPatch) Validate(now time.Time) error {
	if p.Comment != nil {
		c := strings.TrimSpace(*p.Comment)
		if utf8.RuneCountInString(c) > maxTextLength {
			return ports.Validation("Comment cannot exceed 500 characters")
		}
	}
	if p.Date != nil && p.Date.After(now) {
		return ports.Validation("Date cannot be in the future")
	}
	return nil
}

func validateNotes(notes string) (string, error) {
	notes = strings.TrimSpace(notes)
	if utf8.RuneCountInString(notes) > maxTextLength {
		return "", ports.Validation("Notes cannot exceed 500 characters")
	}
	return notes, nil
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ports.Unauthenticated("Authentication required")
	}
	return nil
}

func resolveDate(date *time.Time, now time.Time) (time.Time, error) {
	if date == nil || date.IsZero() {
		return now.UTC(), nil
	}
	if date.After(now) {
		return time.Time{}, ports.Validation("Date cannot be in the future")
	}
	return date.UTC(), nil
}
