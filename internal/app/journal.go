package app

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"tradejournal/internal/domain"
	"tradejournal/internal/ports"

	"github.com/shopspring/decimal"
)

// JournalService serves reads and the edits that never touch balances or
// position figures.
type JournalService struct {
	store  ports.Store
	logger ports.Logger
	opts   options
}

// NewJournalService creates a journal service over store.
func NewJournalService(store ports.Store, logger ports.Logger, opts ...Option) (*JournalService, error) {
	if store == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for JournalService")
	}
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	return &JournalService{store: store, logger: logger, opts: o}, nil
}

// RegisterUser creates a user with no capital.
func (s *JournalService) RegisterUser(ctx context.Context, username, email string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(username) > 64 {
		return nil, ports.Validation("Username must be between 1 and 64 characters")
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, ports.Validation("Email must be a valid address")
	}

	now := s.opts.now()
	user := &domain.User{
		ID:           s.opts.newID(),
		Username:     username,
		Email:        addr.Address,
		TotalCapital: decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Repositories().Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ports.ErrDuplicateEntry) {
			return nil, ports.BusinessRule("Username already taken", err)
		}
		s.logger.Error(ctx, err, "registerUser: storage failure", ports.Fields{"username": username})
		return nil, fmt.Errorf("registerUser: %w", err)
	}
	s.logger.Info(ctx, "registerUser: user created", ports.Fields{"userID": user.ID, "username": username})
	return user, nil
}

// User returns the user with the given id.
func (s *JournalService) User(ctx context.Context, userID string) (*domain.User, error) {
	return loadUser(ctx, s.store.Repositories(), userID)
}

// UserByUsername looks a user up by login name.
func (s *JournalService) UserByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.store.Repositories().Users.FindUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ports.NotFound("User not found")
	}
	return user, nil
}

// TotalCapital returns the user's current cash balance.
func (s *JournalService) TotalCapital(ctx context.Context, userID string) (decimal.Decimal, error) {
	user, err := s.User(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return user.TotalCapital, nil
}

// CapitalMovements lists the user's capital movements, newest first.
func (s *JournalService) CapitalMovements(ctx context.Context, userID string, f ports.CapitalFilter) ([]*domain.CapitalMovement, error) {
	if f.Type != "" && !f.Type.Valid() {
		return nil, ports.Validation("Type must be either deposit or withdrawal")
	}
	return s.store.Repositories().Capital.ListMovements(ctx, userID, f)
}

// CapitalMovement returns one of the user's capital movements.
func (s *JournalService) CapitalMovement(ctx context.Context, userID, id string) (*domain.CapitalMovement, error) {
	m, err := s.store.Repositories().Capital.FindMovement(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ports.NotFound("Capital deposit not found")
	}
	return m, nil
}

// Stocks lists the user's positions ordered by symbol.
func (s *JournalService) Stocks(ctx context.Context, userID string, f ports.StockFilter) ([]*domain.Stock, error) {
	return s.store.Repositories().Stocks.ListStocks(ctx, userID, f)
}

// Stock returns one of the user's positions.
func (s *JournalService) Stock(ctx context.Context, userID, id string) (*domain.Stock, error) {
	return loadStock(ctx, s.store.Repositories(), userID, id)
}

// UpdateStockNotes replaces the free-text notes of a position.
func (s *JournalService) UpdateStockNotes(ctx context.Context, userID, id, notes string) (*domain.Stock, error) {
	notes, err := validateNotes(notes)
	if err != nil {
		return nil, err
	}

	var stock *domain.Stock
	err = s.store.WithinTx(ctx, func(r ports.Repositories) error {
		stock, err = loadStock(ctx, r, userID, id)
		if err != nil {
			return err
		}
		stock.Notes = notes
		return r.Stocks.UpdateStock(ctx, stock)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug(ctx, "updateStockNotes: notes updated", ports.Fields{"userID": userID, "stockID": id})
	return stock, nil
}

// Transactions lists the user's transactions, newest first.
func (s *JournalService) Transactions(ctx context.Context, userID string, f ports.TransactionFilter) ([]*domain.Transaction, error) {
	return s.store.Repositories().Transactions.ListTransactions(ctx, userID, f)
}

// Transaction returns one of the user's transactions.
func (s *JournalService) Transaction(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	t, err := s.store.Repositories().Transactions.FindTransaction(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ports.NotFound("Transaction not found")
	}
	return t, nil
}

// UpdateTransaction edits the comment and date of a settled transaction.
// Any attempt to change what was traded is rejected, since positions and
// balances are never recomputed from history.
func (s *JournalService) UpdateTransaction(ctx context.Context, userID, id string, patch TransactionPatch) (*domain.Transaction, error) {
	if err := patch.Validate(s.opts.now()); err != nil {
		return nil, err
	}

	var tx *domain.Transaction
	err := s.store.WithinTx(ctx, func(r ports.Repositories) error {
		var err error
		tx, err = r.Transactions.FindTransaction(ctx, userID, id)
		if err != nil {
			return err
		}
		if tx == nil {
			return ports.NotFound("Transaction not found")
		}
		if patch.StockID != nil && strings.TrimSpace(*patch.StockID) != tx.StockID {
			return ports.Validation("Changing stockId is not allowed")
		}
		if patch.Type != nil && domain.TransactionType(strings.ToUpper(strings.TrimSpace(*patch.Type))) != tx.Type {
			return ports.Validation("Changing transaction type is not allowed")
		}
		if (patch.Quantity != nil && !patch.Quantity.Equal(tx.Quantity)) ||
			(patch.Price != nil && !patch.Price.Equal(tx.Price)) {
			return ports.Validation("settled transaction quantity and price cannot be changed")
		}

		if patch.Comment != nil {
			tx.Comment = strings.TrimSpace(*patch.Comment)
		}
		if patch.Date != nil && !patch.Date.IsZero() {
			tx.TransactionDate = patch.Date.UTC()
		}
		return r.Transactions.UpdateTransaction(ctx, tx)
	})
	if err != nil {
		if ports.KindOf(err) == ports.KindStorage {
			s.logger.Error(ctx, err, "updateTransaction: storage failure", ports.Fields{"userID": userID, "transactionID": id})
		}
		return nil, err
	}
	s.logger.Info(ctx, "updateTransaction: transaction updated", ports.Fields{"userID": userID, "transactionID": id})
	return tx, nil
}
