package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"tradejournal/internal/adapters/memory"
	"tradejournal/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// mockLogger implements ports.Logger for testing
type mockLogger struct {
	mu        sync.Mutex
	infoMsgs  []string
	warnMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnMsgs = append(m.warnMsgs, msg)
}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorMsgs = append(m.errorMsgs, msg)
}

type fixture struct {
	store   *memory.Store
	ledger  *LedgerService
	journal *JournalService
	logger  *mockLogger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	logger := &mockLogger{}
	clock := WithClock(func() time.Time { return fixedNow })

	ledger, err := NewLedgerService(store, logger, clock)
	require.NoError(t, err)
	journal, err := NewJournalService(store, logger, clock)
	require.NoError(t, err)
	return &fixture{store: store, ledger: ledger, journal: journal, logger: logger}
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (f *fixture) user(t *testing.T, name string) *domain.User {
	t.Helper()
	u, err := f.journal.RegisterUser(context.Background(), name, name+"@example.com")
	require.NoError(t, err)
	return u
}

func (f *fixture) deposit(t *testing.T, userID, amount string) {
	t.Helper()
	cmd, err := NewCapitalMovementCommand(userID, d(amount), "deposit", "", nil, fixedNow)
	require.NoError(t, err)
	_, err = f.ledger.ApplyCapitalMovement(context.Background(), cmd)
	require.NoError(t, err)
}

func (f *fixture) stock(t *testing.T, userID, symbol string) *domain.Stock {
	t.Helper()
	cmd, err := NewStockCommand(userID, symbol, "")
	require.NoError(t, err)
	s, err := f.ledger.CreateStock(context.Background(), cmd)
	require.NoError(t, err)
	return s
}

func (f *fixture) trade(userID, stockID, side, qty, price string) (*TradeResult, error) {
	cmd, err := NewTradeCommand(userID, stockID, side, d(qty), d(price), nil, "", fixedNow)
	if err != nil {
		return nil, err
	}
	return f.ledger.ApplyTrade(context.Background(), cmd)
}

func (f *fixture) balance(t *testing.T, userID string) decimal.Decimal {
	t.Helper()
	b, err := f.journal.TotalCapital(context.Background(), userID)
	require.NoError(t, err)
	return b
}
