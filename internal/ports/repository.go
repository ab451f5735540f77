package ports

import (
	"context"

	"tradejournal/internal/domain"
)

// UserRepository stores users and their balance.
type UserRepository interface {
	// CreateUser saves a new user. Returns ErrDuplicateEntry if the username is taken.
	CreateUser(ctx context.Context, u *domain.User) error
	// FindUserByID returns nil, nil if not found.
	FindUserByID(ctx context.Context, id string) (*domain.User, error)
	// FindUserByUsername returns nil, nil if not found.
	FindUserByUsername(ctx context.Context, username string) (*domain.User, error)
	// UpdateBalance persists u.TotalCapital if u.Version still matches the stored
	// version, then increments u.Version. Returns ErrConflict otherwise.
	UpdateBalance(ctx context.Context, u *domain.User) error
}

// CapitalFilter narrows capital movement listings.
type CapitalFilter struct {
	Type domain.MovementType // empty for all
}

// CapitalRepository stores capital movements.
type CapitalRepository interface {
	CreateMovement(ctx context.Context, m *domain.CapitalMovement) error
	// FindMovement returns nil, nil if the record is absent or owned by another user.
	FindMovement(ctx context.Context, userID, id string) (*domain.CapitalMovement, error)
	// DeleteMovement returns ErrNotFound if nothing was deleted.
	DeleteMovement(ctx context.Context, userID, id string) error
	// ListMovements returns the user's movements, newest first.
	ListMovements(ctx context.Context, userID string, f CapitalFilter) ([]*domain.CapitalMovement, error)
}

// StockFilter narrows stock listings.
type StockFilter struct {
	Open *bool // nil for all
}

// StockRepository stores positions.
type StockRepository interface {
	// CreateStock returns ErrDuplicateEntry if the user already has the symbol.
	CreateStock(ctx context.Context, s *domain.Stock) error
	// FindStock returns nil, nil if the record is absent or owned by another user.
	FindStock(ctx context.Context, userID, id string) (*domain.Stock, error)
	// FindStockBySymbol returns nil, nil if not found.
	FindStockBySymbol(ctx context.Context, userID, symbol string) (*domain.Stock, error)
	// UpdateStock persists every mutable field when s.Version matches, then
	// increments s.Version. Returns ErrConflict otherwise.
	UpdateStock(ctx context.Context, s *domain.Stock) error
	// ListStocks returns the user's stocks ordered by symbol.
	ListStocks(ctx context.Context, userID string, f StockFilter) ([]*domain.Stock, error)
}

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	StockID string // empty for all
}

// TransactionRepository stores buy and sell records.
type TransactionRepository interface {
	CreateTransaction(ctx context.Context, t *domain.Transaction) error
	// FindTransaction returns nil, nil if the record is absent or owned by another user.
	FindTransaction(ctx context.Context, userID, id string) (*domain.Transaction, error)
	// UpdateTransaction persists comment and transaction date.
	UpdateTransaction(ctx context.Context, t *domain.Transaction) error
	// ListTransactions returns the user's transactions, newest first.
	ListTransactions(ctx context.Context, userID string, f TransactionFilter) ([]*domain.Transaction, error)
}

// Repositories groups the repositories of one store, either bound to a
// transaction or not.
type Repositories struct {
	Users        UserRepository
	Capital      CapitalRepository
	Stocks       StockRepository
	Transactions TransactionRepository
}

// Store is the persistence boundary of the ledger.
type Store interface {
	// Repositories returns repositories for reads outside a transaction.
	Repositories() Repositories
	// WithinTx runs fn against repositories bound to a single transaction.
	// Every write made through them is committed if fn returns nil and rolled
	// back otherwise.
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error
	// Close releases the underlying resources.
	Close() error
}
