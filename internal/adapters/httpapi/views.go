package httpapi

import (
	"time"

	"tradejournal/internal/domain"
)

type capitalMovementView struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Amount        string    `json:"amount"`
	Type          string    `json:"type"`
	Date          time.Time `json:"date"`
	Description   string    `json:"description"`
	TransactionID string    `json:"transactionId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toCapitalMovementView(m *domain.CapitalMovement) capitalMovementView {
	return capitalMovementView{
		ID:            m.ID,
		UserID:        m.UserID,
		Amount:        m.Amount.String(),
		Type:          string(m.Type),
		Date:          m.Date,
		Description:   m.Description,
		TransactionID: m.TransactionID,
		CreatedAt:     m.CreatedAt,
	}
}

type stockView struct {
	ID                   string     `json:"id"`
	UserID               string     `json:"userId"`
	Symbol               string     `json:"symbol"`
	CurrentQuantity      string     `json:"currentQuantity"`
	AveragePrice         string     `json:"averagePrice"`
	CurrentValue         string     `json:"currentValue"`
	IsOpen               bool       `json:"isOpen"`
	OpenDate             time.Time  `json:"openDate"`
	CloseDate            *time.Time `json:"closeDate"`
	ProfitLoss           string     `json:"profitLoss"`
	ProfitLossPercentage string     `json:"profitLossPercentage"`
	Notes                string     `json:"notes"`
	LastTradeDate        *time.Time `json:"lastTradeDate"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

func toStockView(s *domain.Stock) stockView {
	return stockView{
		ID:                   s.ID,
		UserID:               s.UserID,
		Symbol:               s.Symbol,
		CurrentQuantity:      s.CurrentQuantity.String(),
		AveragePrice:         s.AveragePrice.String(),
		CurrentValue:         s.CurrentValue().String(),
		IsOpen:               s.IsOpen,
		OpenDate:             s.OpenDate,
		CloseDate:            s.CloseDate,
		ProfitLoss:           s.ProfitLoss.String(),
		ProfitLossPercentage: s.ProfitLossPercentage.String(),
		Notes:                s.Notes,
		LastTradeDate:        s.LastTradeDate,
		UpdatedAt:            s.UpdatedAt,
	}
}

type transactionView struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	StockID         string    `json:"stockId"`
	TransactionType string    `json:"transactionType"`
	Quantity        string    `json:"quantity"`
	Price           string    `json:"price"`
	Amount          string    `json:"amount"`
	TransactionDate time.Time `json:"transactionDate"`
	Comment         string    `json:"comment"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toTransactionView(t *domain.Transaction) transactionView {
	return transactionView{
		ID:              t.ID,
		UserID:          t.UserID,
		StockID:         t.StockID,
		TransactionType: string(t.Type),
		Quantity:        t.Quantity.String(),
		Price:           t.Price.String(),
		Amount:          t.Amount().String(),
		TransactionDate: t.TransactionDate,
		Comment:         t.Comment,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func mapViews[T any, V any](in []T, fn func(T) V) []V {
	out := make([]V, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}
