package app

import (
	"context"
	"errors"
	"fmt"

	"tradejournal/internal/domain"
	"tradejournal/internal/ports"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CapitalResult is returned by capital movement operations.
type CapitalResult struct {
	Movement     *domain.CapitalMovement
	TotalCapital decimal.Decimal
}

// TradeResult is returned by buy and sell operations.
type TradeResult struct {
	Transaction  *domain.Transaction
	Stock        *domain.Stock
	TotalCapital decimal.Decimal
}

// LedgerService is the only writer of user balances and position figures.
// Every operation holds the user's lock and runs inside a single store
// transaction, so a failure at any step leaves nothing applied.
type LedgerService struct {
	store  ports.Store
	logger ports.Logger
	locks  *keyLock
	opts   options
}

// NewLedgerService creates a ledger engine over store.
func NewLedgerService(store ports.Store, logger ports.Logger, opts ...Option) (*LedgerService, error) {
	if store == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for LedgerService")
	}
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	return &LedgerService{store: store, logger: logger, locks: newKeyLock(), opts: o}, nil
}

// ApplyCapitalMovement deposits or withdraws cash and records the movement.
func (s *LedgerService) ApplyCapitalMovement(ctx context.Context, cmd CapitalMovementCommand) (*CapitalResult, error) {
	const op = "applyCapitalMovement"
	fields := ports.Fields{"userID": cmd.UserID, "type": cmd.Type, "amount": cmd.Amount.String()}

	unlock := s.locks.Lock(cmd.UserID)
	defer unlock()

	var result *CapitalResult
	err := s.store.WithinTx(ctx, func(r ports.Repositories) error {
		user, err := loadUser(ctx, r, cmd.UserID)
		if err != nil {
			return err
		}
		if cmd.Type == domain.Withdrawal && cmd.Amount.GreaterThan(user.TotalCapital) {
			return ports.BusinessRule("Insufficient capital for withdrawal", ports.ErrInsufficientFunds)
		}

		movement := &domain.CapitalMovement{
			ID:          s.opts.newID(),
			UserID:      cmd.UserID,
			Amount:      cmd.Amount,
			Type:        cmd.Type,
			Date:        cmd.Date,
			Description: cmd.Description,
			CreatedAt:   s.opts.now(),
		}
		user.TotalCapital = user.TotalCapital.Add(movement.SignedAmount())
		if err := r.Users.UpdateBalance(ctx, user); err != nil {
			return err
		}
		if err := r.Capital.CreateMovement(ctx, movement); err != nil {
			return err
		}
		result = &CapitalResult{Movement: movement, TotalCapital: user.TotalCapital}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, op, err, fields)
	}

	s.logger.Info(ctx, op+": capital movement applied", fields, ports.Fields{"movementID": result.Movement.ID, "totalCapital": result.TotalCapital.String()})
	return result, nil
}

// ReverseCapitalMovement deletes an explicit movement and undoes its effect on
// the balance. A second call for the same id finds nothing and changes nothing.
func (s *LedgerService) ReverseCapitalMovement(ctx context.Context, userID, movementID string) (*CapitalResult, error) {
	const op = "reverseCapitalMovement"
	fields := ports.Fields{"userID": userID, "movementID": movementID}

	if err := requireUser(userID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	var result *CapitalResult
	err := s.store.WithinTx(ctx, func(r ports.Repositories) error {
		movement, err := r.Capital.FindMovement(ctx, userID, movementID)
		if err != nil {
			return err
		}
		if movement == nil {
			return ports.NotFound("Capital deposit not found")
		}
		if movement.IsSynthetic() {
			return ports.BusinessRule("Capital movement linked to a transaction cannot be deleted", ports.ErrSettledRecord)
		}

		user, err := loadUser(ctx, r, userID)
		if err != nil {
			return err
		}
		balance := user.TotalCapital.Sub(movement.SignedAmount())
		if balance.IsNegative() {
			return ports.BusinessRule("Insufficient capital to reverse deposit", ports.ErrInsufficientFunds)
		}
		user.TotalCapital = balance
		if err := r.Users.UpdateBalance(ctx, user); err != nil {
			return err
		}
		if err := r.Capital.DeleteMovement(ctx, userID, movementID); err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return ports.NotFound("Capital deposit not found")
			}
			return err
		}
		result = &CapitalResult{Movement: movement, TotalCapital: balance}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, op, err, fields)
	}

	s.logger.Info(ctx, op+": capital movement reversed", fields, ports.Fields{"totalCapital": result.TotalCapital.String()})
	return result, nil
}

// ApplyTrade dispatches on the trade side.
func (s *LedgerService) ApplyTrade(ctx context.Context, cmd TradeCommand) (*TradeResult, error) {
	switch cmd.Type {
	case domain.Buy:
		return s.ApplyBuy(ctx, cmd)
	case domain.Sell:
		return s.ApplySell(ctx, cmd)
	default:
		return nil, ports.Validation("Transaction type must be either BUY or SELL")
	}
}

// ApplyBuy spends cash on shares and folds them into the average price.
func (s *LedgerService) ApplyBuy(ctx context.Context, cmd TradeCommand) (*TradeResult, error) {
	const op = "applyBuy"
	fields := tradeFields(cmd)

	unlock := s.locks.Lock(cmd.UserID)
	defer unlock()

	var result *TradeResult
	err := s.store.WithinTx(ctx, func(r ports.Repositories) error {
		stock, err := loadStock(ctx, r, cmd.UserID, cmd.StockID)
		if err != nil {
			return err
		}
		user, err := loadUser(ctx, r, cmd.UserID)
		if err != nil {
			return err
		}

		amount := cmd.Quantity.Mul(cmd.Price)
		if amount.GreaterThan(user.TotalCapital) {
			return ports.BusinessRule("Insufficient funds. Please deposit more capital.", ports.ErrInsufficientFunds)
		}
		user.TotalCapital = user.TotalCapital.Sub(amount)
		if err := r.Users.UpdateBalance(ctx, user); err != nil {
			return err
		}

		oldValue := stock.CurrentQuantity.Mul(stock.AveragePrice)
		newQuantity := stock.CurrentQuantity.Add(cmd.Quantity)
		stock.AveragePrice = decimal.Zero
		if newQuantity.IsPositive() {
			stock.AveragePrice = oldValue.Add(amount).Div(newQuantity)
		}
		stock.CurrentQuantity = newQuantity
		if !stock.IsOpen {
			stock.OpenDate = cmd.Date
		}
		stock.IsOpen = true
		stock.CloseDate = nil
		tradeDate := cmd.Date
		stock.LastTradeDate = &tradeDate
		if err := r.Stocks.UpdateStock(ctx, stock); err != nil {
			return err
		}

		tx, err := s.record(ctx, r, cmd, stock, amount,
			domain.Withdrawal, "Withdrawal for purchase of %s shares of %s at %s")
		if err != nil {
			return err
		}
		result = &TradeResult{Transaction: tx, Stock: stock, TotalCapital: user.TotalCapital}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, op, err, fields)
	}

	s.logger.Info(ctx, op+": buy applied", fields, ports.Fields{
		"transactionID": result.Transaction.ID,
		"quantity":      result.Stock.CurrentQuantity.String(),
		"averagePrice":  result.Stock.AveragePrice.String(),
		"totalCapital":  result.TotalCapital.String(),
	})
	return result, nil
}

// ApplySell turns shares into cash and realizes profit or loss against the
// average price. The average price itself is left unchanged.
func (s *LedgerService) ApplySell(ctx context.Context, cmd TradeCommand) (*TradeResult, error) {
	const op = "applySell"
	fields := tradeFields(cmd)

	unlock := s.locks.Lock(cmd.UserID)
	defer unlock()

	var result *TradeResult
	err := s.store.WithinTx(ctx, func(r ports.Repositories) error {
		stock, err := loadStock(ctx, r, cmd.UserID, cmd.StockID)
		if err != nil {
			return err
		}
		if cmd.Quantity.GreaterThan(stock.CurrentQuantity) {
			return ports.BusinessRule("Not enough quantity to sell", ports.ErrInsufficientQuantity)
		}
		user, err := loadUser(ctx, r, cmd.UserID)
		if err != nil {
			return err
		}

		amount := cmd.Quantity.Mul(cmd.Price)
		user.TotalCapital = user.TotalCapital.Add(amount)
		if err := r.Users.UpdateBalance(ctx, user); err != nil {
			return err
		}

		diff := cmd.Price.Sub(stock.AveragePrice)
		stock.ProfitLoss = stock.ProfitLoss.Add(diff.Mul(cmd.Quantity))
		if stock.AveragePrice.IsPositive() {
			stock.ProfitLossPercentage = diff.Div(stock.AveragePrice).Mul(hundred)
		}
		stock.CurrentQuantity = stock.CurrentQuantity.Sub(cmd.Quantity)
		tradeDate := cmd.Date
		stock.LastTradeDate = &tradeDate
		if stock.CurrentQuantity.IsZero() {
			closed := s.opts.now()
			stock.IsOpen = false
			stock.CloseDate = &closed
		}
		if err := r.Stocks.UpdateStock(ctx, stock); err != nil {
			return err
		}

		tx, err := s.record(ctx, r, cmd, stock, amount,
			domain.Deposit, "Deposit from sale of %s shares of %s at %s")
		if err != nil {
			return err
		}
		result = &TradeResult{Transaction: tx, Stock: stock, TotalCapital: user.TotalCapital}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, op, err, fields)
	}

	s.logger.Info(ctx, op+": sell applied", fields, ports.Fields{
		"transactionID": result.Transaction.ID,
		"quantity":      result.Stock.CurrentQuantity.String(),
		"profitLoss":    result.Stock.ProfitLoss.String(),
		"status":        result.Stock.Status(),
		"totalCapital":  result.TotalCapital.String(),
	})
	return result, nil
}

// CreateStock registers a closed, empty position for a symbol.
func (s *LedgerService) CreateStock(ctx context.Context, cmd StockCommand) (*domain.Stock, error) {
	const op = "createStock"
	fields := ports.Fields{"userID": cmd.UserID, "symbol": cmd.Symbol}

	unlock := s.locks.Lock(cmd.UserID)
	defer unlock()

	var stock *domain.Stock
	err := s.store.WithinTx(ctx, func(r ports.Repositories) error {
		if _, err := loadUser(ctx, r, cmd.UserID); err != nil {
			return err
		}
		existing, err := r.Stocks.FindStockBySymbol(ctx, cmd.UserID, cmd.Symbol)
		if err != nil {
			return err
		}
		if existing != nil {
			return ports.BusinessRule("Stock already exists", ports.ErrDuplicateEntry)
		}

		now := s.opts.now()
		stock = &domain.Stock{
			ID:                   s.opts.newID(),
			UserID:               cmd.UserID,
			Symbol:               cmd.Symbol,
			CurrentQuantity:      decimal.Zero,
			AveragePrice:         decimal.Zero,
			OpenDate:             now,
			ProfitLoss:           decimal.Zero,
			ProfitLossPercentage: decimal.Zero,
			Notes:                cmd.Notes,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if err := r.Stocks.CreateStock(ctx, stock); err != nil {
			if errors.Is(err, ports.ErrDuplicateEntry) {
				return ports.BusinessRule("Stock already exists", err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, op, err, fields)
	}

	s.logger.Info(ctx, op+": stock created", fields, ports.Fields{"stockID": stock.ID})
	return stock, nil
}

// record appends the transaction and the capital movement that shadows it.
func (s *LedgerService) record(ctx context.Context, r ports.Repositories, cmd TradeCommand, stock *domain.Stock,
	amount decimal.Decimal, movementType domain.MovementType, descFormat string) (*domain.Transaction, error) {
	now := s.opts.now()
	tx := &domain.Transaction{
		ID:              s.opts.newID(),
		UserID:          cmd.UserID,
		StockID:         stock.ID,
		Type:            cmd.Type,
		Quantity:        cmd.Quantity,
		Price:           cmd.Price,
		TransactionDate: cmd.Date,
		Comment:         cmd.Comment,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := r.Transactions.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	movement := &domain.CapitalMovement{
		ID:            s.opts.newID(),
		UserID:        cmd.UserID,
		Amount:        amount,
		Type:          movementType,
		Date:          now,
		Description:   fmt.Sprintf(descFormat, cmd.Quantity.String(), stock.Symbol, FormatAmount(cmd.Price, s.opts.currency)),
		TransactionID: tx.ID,
		CreatedAt:     now,
	}
	if err := r.Capital.CreateMovement(ctx, movement); err != nil {
		return nil, err
	}
	return tx, nil
}

// fail logs a failed operation. Rule violations are returned unchanged, other
// errors are wrapped with the operation name.
func (s *LedgerService) fail(ctx context.Context, op string, err error, fields ports.Fields) error {
	if ports.KindOf(err) == ports.KindStorage {
		s.logger.Error(ctx, err, op+": storage failure", fields)
		return fmt.Errorf("%s: %w", op, err)
	}
	s.logger.Warn(ctx, op+": rejected", fields, ports.Fields{"reason": ports.MessageOf(err)})
	return err
}

func tradeFields(cmd TradeCommand) ports.Fields {
	return ports.Fields{
		"userID":   cmd.UserID,
		"stockID":  cmd.StockID,
		"type":     cmd.Type,
		"quantity": cmd.Quantity.String(),
		"price":    cmd.Price.String(),
	}
}

func loadUser(ctx context.Context, r ports.Repositories, userID string) (*domain.User, error) {
	user, err := r.Users.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ports.NotFound("User not found")
	}
	return user, nil
}

func loadStock(ctx context.Context, r ports.Repositories, userID, stockID string) (*domain.Stock, error) {
	stock, err := r.Stocks.FindStock(ctx, userID, stockID)
	if err != nil {
		return nil, err
	}
	if stock == nil {
		return nil, ports.NotFound("Stock not found")
	}
	return stock, nil
}
