package app

import (
	"strings"
	"testing"
	"time"

	"tradejournal/internal/domain"
	"tradejournal/internal/ports"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCapitalMovementCommand(t *testing.T) {
	past := fixedNow.Add(-24 * time.Hour)
	future := fixedNow.Add(time.Minute)

	tests := []struct {
		name    string
		userID  string
		amount  string
		typ     string
		desc    string
		date    *time.Time
		wantErr string
	}{
		{name: "valid deposit", userID: "u1", amount: "100", typ: "deposit"},
		{name: "type is case insensitive", userID: "u1", amount: "100", typ: " Withdrawal "},
		{name: "past date", userID: "u1", amount: "0.01", typ: "deposit", date: &past},
		{name: "zero amount", userID: "u1", amount: "0", typ: "deposit", wantErr: "Amount must be a positive number"},
		{name: "below minimum", userID: "u1", amount: "0.009", typ: "deposit", wantErr: "Amount must be a positive number"},
		{name: "negative amount", userID: "u1", amount: "-5", typ: "deposit", wantErr: "Amount must be a positive number"},
		{name: "unknown type", userID: "u1", amount: "5", typ: "transfer", wantErr: "Type must be either deposit or withdrawal"},
		{name: "future date", userID: "u1", amount: "5", typ: "deposit", date: &future, wantErr: "Date cannot be in the future"},
		{name: "description too long", userID: "u1", amount: "5", typ: "deposit", desc: strings.Repeat("x", 501), wantErr: "Description cannot exceed 500 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := NewCapitalMovementCommand(tt.userID, d(tt.amount), tt.typ, tt.desc, tt.date, fixedNow)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, ports.KindValidation, ports.KindOf(err))
				assert.Equal(t, tt.wantErr, ports.MessageOf(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, cmd.Type.Valid())
			if tt.date == nil {
				assert.True(t, fixedNow.Equal(cmd.Date))
			} else {
				assert.True(t, tt.date.Equal(cmd.Date))
			}
		})
	}
}

func TestNewCapitalMovementCommand_RequiresUser(t *testing.T) {
	_, err := NewCapitalMovementCommand("", d("10"), "deposit", "", nil, fixedNow)
	assert.Equal(t, ports.KindUnauthenticated, ports.KindOf(err))
}

func TestNewTradeCommand(t *testing.T) {
	tests := []struct {
		name     string
		stockID  string
		side     string
		qty      string
		price    string
		comment  string
		wantType domain.TransactionType
		wantErr  string
	}{
		{name: "buy", stockID: "s1", side: "BUY", qty: "1", price: "10", wantType: domain.Buy},
		{name: "lower case sell", stockID: "s1", side: "sell", qty: "0.5", price: "10", wantType: domain.Sell},
		{name: "missing stock", stockID: " ", side: "BUY", qty: "1", price: "1", wantErr: "Stock id is required"},
		{name: "bad side", stockID: "s1", side: "HOLD", qty: "1", price: "1", wantErr: "Transaction type must be either BUY or SELL"},
		{name: "zero quantity", stockID: "s1", side: "BUY", qty: "0", price: "1", wantErr: "Quantity must be greater than zero"},
		{name: "zero price", stockID: "s1", side: "BUY", qty: "1", price: "0", wantErr: "Price must be greater than zero"},
		{name: "long comment", stockID: "s1", side: "BUY", qty: "1", price: "1", comment: strings.Repeat("y", 501), wantErr: "Comment cannot exceed 500 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := NewTradeCommand("u1", tt.stockID, tt.side, d(tt.qty), d(tt.price), nil, tt.comment, fixedNow)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, ports.KindValidation, ports.KindOf(err))
				assert.Equal(t, tt.wantErr, ports.MessageOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, cmd.Type)
			assert.True(t, fixedNow.Equal(cmd.Date))
		})
	}
}

func TestNewStockCommand(t *testing.T) {
	tests := []struct {
		symbol  string
		want    string
		wantErr bool
	}{
		{symbol: "aapl", want: "AAPL"},
		{symbol: " brk ", want: "BRK"},
		{symbol: "ABCDEFGHIJ", want: "ABCDEFGHIJ"},
		{symbol: "ABCDEFGHIJK", wantErr: true},
		{symbol: "BRK.B", wantErr: true},
		{symbol: "", wantErr: true},
		{symbol: "A1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			cmd, err := NewStockCommand("u1", tt.symbol, "")
			if tt.wantErr {
				assert.Equal(t, ports.KindValidation, ports.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd.Symbol)
		})
	}

	_, err := NewStockCommand("u1", "AAPL", strings.Repeat("n", 501))
	assert.Equal(t, "Notes cannot exceed 500 characters", ports.MessageOf(err))
}

func TestTransactionPatch_Validate(t *testing.T) {
	future := fixedNow.Add(time.Hour)
	long := strings.Repeat("c", 501)
	ok := "fine"
	qty := decimal.NewFromInt(3)

	assert.NoError(t, TransactionPatch{Comment: &ok, Quantity: &qty}.Validate(fixedNow))
	assert.Error(t, TransactionPatch{Date: &future}.Validate(fixedNow))
	assert.Error(t, TransactionPatch{Comment: &long}.Validate(fixedNow))
}
