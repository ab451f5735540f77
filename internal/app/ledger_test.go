package app

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"tradejournal/internal/domain"
	"tradejournal/internal/ports"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLedgerService(t *testing.T) {
	_, err := NewLedgerService(nil, &mockLogger{})
	assert.Error(t, err)

	f := newFixture(t)
	_, err = NewLedgerService(f.store, f.logger, WithCurrency("XXXX"))
	assert.Error(t, err)

	_, err = NewLedgerService(f.store, f.logger, WithCurrency("eur"))
	assert.NoError(t, err)
}

func TestLedgerService_ApplyCapitalMovement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "alice")

	cmd, err := NewCapitalMovementCommand(u.ID, d("1000"), "deposit", "  salary  ", nil, fixedNow)
	require.NoError(t, err)
	res, err := f.ledger.ApplyCapitalMovement(ctx, cmd)
	require.NoError(t, err)
	assert.True(t, res.TotalCapital.Equal(d("1000")))
	assert.Equal(t, "salary", res.Movement.Description)
	assert.Empty(t, res.Movement.TransactionID)

	cmd, err = NewCapitalMovementCommand(u.ID, d("250.50"), "withdrawal", "", nil, fixedNow)
	require.NoError(t, err)
	res, err = f.ledger.ApplyCapitalMovement(ctx, cmd)
	require.NoError(t, err)
	assert.True(t, res.TotalCapital.Equal(d("749.50")))

	t.Run("withdrawal above balance", func(t *testing.T) {
		cmd, err := NewCapitalMovementCommand(u.ID, d("749.51"), "withdrawal", "", nil, fixedNow)
		require.NoError(t, err)
		_, err = f.ledger.ApplyCapitalMovement(ctx, cmd)
		assert.ErrorIs(t, err, ports.ErrInsufficientFunds)
		assert.Equal(t, ports.KindBusinessRule, ports.KindOf(err))
		assert.Equal(t, "Insufficient capital for withdrawal", ports.MessageOf(err))
		assert.True(t, f.balance(t, u.ID).Equal(d("749.50")))

		list, err := f.journal.CapitalMovements(ctx, u.ID, ports.CapitalFilter{})
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("withdrawal of the whole balance", func(t *testing.T) {
		cmd, err := NewCapitalMovementCommand(u.ID, d("749.50"), "withdrawal", "", nil, fixedNow)
		require.NoError(t, err)
		res, err := f.ledger.ApplyCapitalMovement(ctx, cmd)
		require.NoError(t, err)
		assert.True(t, res.TotalCapital.IsZero())
	})

	t.Run("unknown user", func(t *testing.T) {
		cmd, err := NewCapitalMovementCommand("nobody", d("10"), "deposit", "", nil, fixedNow)
		require.NoError(t, err)
		_, err = f.ledger.ApplyCapitalMovement(ctx, cmd)
		assert.Equal(t, ports.KindNotFound, ports.KindOf(err))
	})
}

func TestLedgerService_BalanceMatchesMovementHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "random")
	s := f.stock(t, u.ID, "AAPL")
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 300; i++ {
		amount := decimal.NewFromInt(int64(rng.Intn(500) + 1))
		switch rng.Intn(4) {
		case 0:
			cmd, err := NewCapitalMovementCommand(u.ID, amount, "deposit", "", nil, fixedNow)
			require.NoError(t, err)
			_, err = f.ledger.ApplyCapitalMovement(ctx, cmd)
			require.NoError(t, err)
		case 1:
			cmd, err := NewCapitalMovementCommand(u.ID, amount, "withdrawal", "", nil, fixedNow)
			require.NoError(t, err)
			_, err = f.ledger.ApplyCapitalMovement(ctx, cmd)
			if err != nil {
				require.ErrorIs(t, err, ports.ErrInsufficientFunds)
			}
		case 2:
			_, err := f.trade(u.ID, s.ID, "BUY", decimal.NewFromInt(int64(rng.Intn(5)+1)).String(), amount.String())
			if err != nil {
				require.ErrorIs(t, err, ports.ErrInsufficientFunds)
			}
		case 3:
			_, err := f.trade(u.ID, s.ID, "SELL", decimal.NewFromInt(int64(rng.Intn(5)+1)).String(), amount.String())
			if err != nil {
				require.ErrorIs(t, err, ports.ErrInsufficientQuantity)
			}
		}

		balance := f.balance(t, u.ID)
		require.False(t, balance.IsNegative(), "balance went negative at step %d", i)
		stock, err := f.journal.Stock(ctx, u.ID, s.ID)
		require.NoError(t, err)
		require.False(t, stock.CurrentQuantity.IsNegative(), "quantity went negative at step %d", i)
		require.Equal(t, stock.CurrentQuantity.IsPositive(), stock.IsOpen)
	}

	movements, err := f.journal.CapitalMovements(ctx, u.ID, ports.CapitalFilter{})
	require.NoError(t, err)
	sum := decimal.Zero
	for _, m := range movements {
		sum = sum.Add(m.SignedAmount())
	}
	assert.True(t, sum.Equal(f.balance(t, u.ID)), "sum %s balance %s", sum, f.balance(t, u.ID))
}

func TestLedgerService_BuyAveragesCostBasis(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "bob")
	f.deposit(t, u.ID, "5000")
	s := f.stock(t, u.ID, "aapl")
	assert.Equal(t, "AAPL", s.Symbol)
	assert.False(t, s.IsOpen)

	res, err := f.trade(u.ID, s.ID, "BUY", "10", "100")
	require.NoError(t, err)
	assert.True(t, res.Stock.AveragePrice.Equal(d("100")))
	assert.True(t, res.Stock.CurrentQuantity.Equal(d("10")))
	assert.True(t, res.Stock.IsOpen)
	assert.Nil(t, res.Stock.CloseDate)
	assert.True(t, res.TotalCapital.Equal(d("4000")))

	res, err = f.trade(u.ID, s.ID, "BUY", "10", "200")
	require.NoError(t, err)
	assert.True(t, res.Stock.AveragePrice.Equal(d("150")))
	assert.True(t, res.Stock.CurrentQuantity.Equal(d("20")))
	assert.True(t, res.Stock.CurrentValue().Equal(d("3000")))
	assert.True(t, res.TotalCapital.Equal(d("2000")))
	assert.Equal(t, domain.Buy, res.Transaction.Type)
}

func TestLedgerService_TradeWritesShadowMovement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "carol")
	f.deposit(t, u.ID, "20000")
	s := f.stock(t, u.ID, "MSFT")

	buy, err := f.trade(u.ID, s.ID, "BUY", "10", "1234.5")
	require.NoError(t, err)
	sell, err := f.trade(u.ID, s.ID, "SELL", "2.5", "1300")
	require.NoError(t, err)
	assert.True(t, buy.TotalCapital.Equal(d("7655")))
	assert.True(t, sell.TotalCapital.Equal(d("10905")))

	withdrawals, err := f.journal.CapitalMovements(ctx, u.ID, ports.CapitalFilter{Type: domain.Withdrawal})
	require.NoError(t, err)
	require.Len(t, withdrawals, 1)
	assert.Equal(t, buy.Transaction.ID, withdrawals[0].TransactionID)
	assert.True(t, withdrawals[0].Amount.Equal(d("12345")))
	assert.Equal(t, "Withdrawal for purchase of 10 shares of MSFT at $1,234.50", withdrawals[0].Description)
	assert.True(t, fixedNow.Equal(withdrawals[0].Date))

	deposits, err := f.journal.CapitalMovements(ctx, u.ID, ports.CapitalFilter{Type: domain.Deposit})
	require.NoError(t, err)
	require.Len(t, deposits, 2)
	var synthetic *domain.CapitalMovement
	for _, m := range deposits {
		if m.IsSynthetic() {
			synthetic = m
		}
	}
	require.NotNil(t, synthetic)
	assert.Equal(t, sell.Transaction.ID, synthetic.TransactionID)
	assert.Equal(t, "Deposit from sale of 2.5 shares of MSFT at $1,300.00", synthetic.Description)
}

func TestLedgerService_FullExit(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "dave")
	f.deposit(t, u.ID, "1000")
	s := f.stock(t, u.ID, "NVDA")

	_, err := f.trade(u.ID, s.ID, "BUY", "10", "100")
	require.NoError(t, err)

	res, err := f.trade(u.ID, s.ID, "SELL", "10", "120")
	require.NoError(t, err)
	assert.True(t, res.Stock.ProfitLoss.Equal(d("200")))
	assert.True(t, res.Stock.ProfitLossPercentage.Equal(d("20")))
	assert.True(t, res.Stock.CurrentQuantity.IsZero())
	assert.False(t, res.Stock.IsOpen)
	require.NotNil(t, res.Stock.CloseDate)
	assert.True(t, fixedNow.Equal(*res.Stock.CloseDate))
	assert.True(t, res.Stock.AveragePrice.Equal(d("100")), "average price kept as history")
	assert.True(t, res.TotalCapital.Equal(d("1200")))
	assert.Equal(t, "closed", res.Stock.Status())
}

func TestLedgerService_PartialSellAtLoss(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "erin")
	f.deposit(t, u.ID, "1000")
	s := f.stock(t, u.ID, "TSLA")

	_, err := f.trade(u.ID, s.ID, "BUY", "10", "100")
	require.NoError(t, err)
	res, err := f.trade(u.ID, s.ID, "SELL", "5", "80")
	require.NoError(t, err)

	assert.True(t, res.Stock.ProfitLoss.Equal(d("-100")))
	assert.True(t, res.Stock.ProfitLossPercentage.Equal(d("-20")))
	assert.True(t, res.Stock.CurrentQuantity.Equal(d("5")))
	assert.True(t, res.Stock.AveragePrice.Equal(d("100")))
	assert.True(t, res.Stock.IsOpen)
	assert.Nil(t, res.Stock.CloseDate)
}

func TestLedgerService_ReopenKeepsCumulativeProfit(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "frank")
	f.deposit(t, u.ID, "1000")
	s := f.stock(t, u.ID, "AMD")

	_, err := f.trade(u.ID, s.ID, "BUY", "10", "100")
	require.NoError(t, err)
	_, err = f.trade(u.ID, s.ID, "SELL", "10", "120")
	require.NoError(t, err)

	tradeDay := fixedNow.Add(-2 * time.Hour)
	cmd, err := NewTradeCommand(u.ID, s.ID, "BUY", d("5"), d("50"), &tradeDay, "back in", fixedNow)
	require.NoError(t, err)
	res, err := f.ledger.ApplyBuy(context.Background(), cmd)
	require.NoError(t, err)

	assert.True(t, res.Stock.IsOpen)
	assert.Nil(t, res.Stock.CloseDate)
	assert.True(t, tradeDay.Equal(res.Stock.OpenDate))
	assert.True(t, res.Stock.ProfitLoss.Equal(d("200")))
	assert.True(t, res.Stock.AveragePrice.Equal(d("50")))
	assert.True(t, res.Stock.CurrentQuantity.Equal(d("5")))
	require.NotNil(t, res.Stock.LastTradeDate)
	assert.True(t, tradeDay.Equal(*res.Stock.LastTradeDate))
	assert.Equal(t, "back in", res.Transaction.Comment)
}

func TestLedgerService_InsufficientFundsIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "gina")
	f.deposit(t, u.ID, "50")
	s := f.stock(t, u.ID, "GOOG")

	_, err := f.trade(u.ID, s.ID, "BUY", "1", "100")
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrInsufficientFunds)
	assert.Equal(t, ports.KindBusinessRule, ports.KindOf(err))
	assert.Equal(t, "Insufficient funds. Please deposit more capital.", ports.MessageOf(err))

	assert.True(t, f.balance(t, u.ID).Equal(d("50")))
	after, err := f.journal.Stock(ctx, u.ID, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Version, after.Version)
	assert.True(t, after.CurrentQuantity.IsZero())
	assert.False(t, after.IsOpen)

	txs, err := f.journal.Transactions(ctx, u.ID, ports.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, txs)
	movements, err := f.journal.CapitalMovements(ctx, u.ID, ports.CapitalFilter{})
	require.NoError(t, err)
	assert.Len(t, movements, 1)
}

func TestLedgerService_InsufficientQuantityIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "hank")
	f.deposit(t, u.ID, "1000")
	s := f.stock(t, u.ID, "IBM")
	_, err := f.trade(u.ID, s.ID, "BUY", "5", "10")
	require.NoError(t, err)

	_, err = f.trade(u.ID, s.ID, "SELL", "10", "10")
	assert.ErrorIs(t, err, ports.ErrInsufficientQuantity)
	assert.Equal(t, "Not enough quantity to sell", ports.MessageOf(err))

	after, err := f.journal.Stock(ctx, u.ID, s.ID)
	require.NoError(t, err)
	assert.True(t, after.CurrentQuantity.Equal(d("5")))
	assert.True(t, after.ProfitLoss.IsZero())
	assert.True(t, f.balance(t, u.ID).Equal(d("950")))
}

func TestLedgerService_ReverseCapitalMovement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "ivy")

	cmd, err := NewCapitalMovementCommand(u.ID, d("300"), "deposit", "", nil, fixedNow)
	require.NoError(t, err)
	dep, err := f.ledger.ApplyCapitalMovement(ctx, cmd)
	require.NoError(t, err)

	cmd, err = NewCapitalMovementCommand(u.ID, d("100"), "withdrawal", "", nil, fixedNow)
	require.NoError(t, err)
	wd, err := f.ledger.ApplyCapitalMovement(ctx, cmd)
	require.NoError(t, err)

	res, err := f.ledger.ReverseCapitalMovement(ctx, u.ID, wd.Movement.ID)
	require.NoError(t, err)
	assert.True(t, res.TotalCapital.Equal(d("300")))
	assert.Equal(t, wd.Movement.ID, res.Movement.ID)

	_, err = f.ledger.ReverseCapitalMovement(ctx, u.ID, wd.Movement.ID)
	assert.Equal(t, ports.KindNotFound, ports.KindOf(err))
	assert.Equal(t, "Capital deposit not found", ports.MessageOf(err))
	assert.True(t, f.balance(t, u.ID).Equal(d("300")))

	res, err = f.ledger.ReverseCapitalMovement(ctx, u.ID, dep.Movement.ID)
	require.NoError(t, err)
	assert.True(t, res.TotalCapital.IsZero())
}

func TestLedgerService_ReverseRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "jack")

	cmd, err := NewCapitalMovementCommand(u.ID, d("500"), "deposit", "", nil, fixedNow)
	require.NoError(t, err)
	dep, err := f.ledger.ApplyCapitalMovement(ctx, cmd)
	require.NoError(t, err)

	s := f.stock(t, u.ID, "ORCL")
	buy, err := f.trade(u.ID, s.ID, "BUY", "4", "100")
	require.NoError(t, err)

	t.Run("deposit already spent", func(t *testing.T) {
		_, err := f.ledger.ReverseCapitalMovement(ctx, u.ID, dep.Movement.ID)
		assert.ErrorIs(t, err, ports.ErrInsufficientFunds)
		assert.True(t, f.balance(t, u.ID).Equal(d("100")))
	})

	t.Run("trade shadow record", func(t *testing.T) {
		movements, err := f.journal.CapitalMovements(ctx, u.ID, ports.CapitalFilter{Type: domain.Withdrawal})
		require.NoError(t, err)
		require.Len(t, movements, 1)
		require.Equal(t, buy.Transaction.ID, movements[0].TransactionID)

		_, err = f.ledger.ReverseCapitalMovement(ctx, u.ID, movements[0].ID)
		assert.ErrorIs(t, err, ports.ErrSettledRecord)
		assert.Equal(t, ports.KindBusinessRule, ports.KindOf(err))
	})

	t.Run("missing user id", func(t *testing.T) {
		_, err := f.ledger.ReverseCapitalMovement(ctx, "", dep.Movement.ID)
		assert.Equal(t, ports.KindUnauthenticated, ports.KindOf(err))
	})
}

func TestLedgerService_RollsBackOnStorageFailure(t *testing.T) {
	injected := errors.New("disk full")

	for _, method := range []string{"UpdateStock", "CreateTransaction", "CreateMovement"} {
		t.Run(method, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			u := f.user(t, "kate")
			f.deposit(t, u.ID, "1000")
			s := f.stock(t, u.ID, "AAPL")

			f.store.FailOn(method, injected)
			_, err := f.trade(u.ID, s.ID, "BUY", "2", "100")
			f.store.FailOn(method, nil)

			require.Error(t, err)
			assert.ErrorIs(t, err, injected)
			assert.Equal(t, ports.KindStorage, ports.KindOf(err))
			assert.Equal(t, "internal server error", ports.MessageOf(err))

			assert.True(t, f.balance(t, u.ID).Equal(d("1000")))
			after, err := f.journal.Stock(ctx, u.ID, s.ID)
			require.NoError(t, err)
			assert.True(t, after.CurrentQuantity.IsZero())
			assert.False(t, after.IsOpen)
			movements, err := f.journal.CapitalMovements(ctx, u.ID, ports.CapitalFilter{})
			require.NoError(t, err)
			assert.Len(t, movements, 1)
			txs, err := f.journal.Transactions(ctx, u.ID, ports.TransactionFilter{})
			require.NoError(t, err)
			assert.Empty(t, txs)
			assert.NotEmpty(t, f.logger.errorMsgs)
		})
	}
}

func TestLedgerService_TenantIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	mallory := f.user(t, "mallory")
	f.deposit(t, alice.ID, "1000")
	f.deposit(t, mallory.ID, "1000")

	s := f.stock(t, alice.ID, "AAPL")
	_, err := f.trade(alice.ID, s.ID, "BUY", "5", "10")
	require.NoError(t, err)

	_, err = f.trade(mallory.ID, s.ID, "SELL", "5", "10")
	assert.Equal(t, ports.KindNotFound, ports.KindOf(err))
	_, err = f.trade(mallory.ID, s.ID, "BUY", "1", "10")
	assert.Equal(t, ports.KindNotFound, ports.KindOf(err))

	aliceMovements, err := f.journal.CapitalMovements(ctx, alice.ID, ports.CapitalFilter{})
	require.NoError(t, err)
	for _, m := range aliceMovements {
		_, err = f.ledger.ReverseCapitalMovement(ctx, mallory.ID, m.ID)
		assert.Equal(t, ports.KindNotFound, ports.KindOf(err))
	}

	_, err = f.journal.Stock(ctx, mallory.ID, s.ID)
	assert.Equal(t, ports.KindNotFound, ports.KindOf(err))
	assert.True(t, f.balance(t, alice.ID).Equal(d("950")))
	assert.True(t, f.balance(t, mallory.ID).Equal(d("1000")))

	// Same symbol is independent per user.
	other := f.stock(t, mallory.ID, "AAPL")
	assert.NotEqual(t, s.ID, other.ID)
}

func TestLedgerService_ConcurrentBuysNeverOverspend(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "liam")
	f.deposit(t, u.ID, "1000")
	s := f.stock(t, u.ID, "META")

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.trade(u.ID, s.ID, "BUY", "1", "100"); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.True(t, f.balance(t, u.ID).IsZero())
	after, err := f.journal.Stock(context.Background(), u.ID, s.ID)
	require.NoError(t, err)
	assert.True(t, after.CurrentQuantity.Equal(d("10")))
	assert.Equal(t, 0, f.ledger.locks.size())
}

func TestLedgerService_CreateStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "mona")
	f.stock(t, u.ID, "AAPL")

	cmd, err := NewStockCommand(u.ID, "aapl", "")
	require.NoError(t, err)
	_, err = f.ledger.CreateStock(ctx, cmd)
	assert.ErrorIs(t, err, ports.ErrDuplicateEntry)
	assert.Equal(t, ports.KindBusinessRule, ports.KindOf(err))

	cmd, err = NewStockCommand("ghost", "MSFT", "")
	require.NoError(t, err)
	_, err = f.ledger.CreateStock(ctx, cmd)
	assert.Equal(t, ports.KindNotFound, ports.KindOf(err))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$1,234.50", FormatAmount(d("1234.5"), "USD"))
	assert.Equal(t, "$0.01", FormatAmount(d("0.005"), "USD"))
	assert.Equal(t, "12.5", FormatAmount(d("12.5"), "NOPE"))
}
