// Package memory provides an in-process ports.Store, used by tests and by the
// CLI when no database file is wanted.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tradejournal/internal/domain"
	"tradejournal/internal/ports"
)

type tables struct {
	users        map[string]domain.User
	movements    map[string]domain.CapitalMovement
	stocks       map[string]domain.Stock
	transactions map[string]domain.Transaction
}

func newTables() *tables {
	return &tables{
		users:        make(map[string]domain.User),
		movements:    make(map[string]domain.CapitalMovement),
		stocks:       make(map[string]domain.Stock),
		transactions: make(map[string]domain.Transaction),
	}
}

func (t *tables) clone() *tables {
	c := newTables()
	for k, v := range t.users {
		c.users[k] = v
	}
	for k, v := range t.movements {
		c.movements[k] = v
	}
	for k, v := range t.stocks {
		c.stocks[k] = v
	}
	for k, v := range t.transactions {
		c.transactions[k] = v
	}
	return c
}

// Store is a ports.Store kept in maps. WithinTx works on a copy of the data
// that replaces the committed state only when fn succeeds.
type Store struct {
	mu    sync.Mutex
	data  *tables
	fails map[string]error
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{data: newTables(), fails: make(map[string]error)}
}

// FailOn makes every later call of the named repository method return err.
// A nil err clears the failure.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fails, method)
		return
	}
	s.fails[method] = err
}

// Repositories returns repositories that lock the store for each call.
func (s *Store) Repositories() ports.Repositories {
	return (&repos{s: s}).all()
}

// WithinTx runs fn against a snapshot and commits it if fn returns nil.
func (s *Store) WithinTx(ctx context.Context, fn func(repos ports.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := s.data.clone()
	if err := fn((&repos{s: s, tx: snapshot}).all()); err != nil {
		return err
	}
	s.data = snapshot
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

type repos struct {
	s  *Store
	tx *tables // nil outside a transaction
}

func (r *repos) all() ports.Repositories {
	return ports.Repositories{Users: r, Capital: r, Stocks: r, Transactions: r}
}

func (r *repos) do(method string, fn func(t *tables) error) error {
	if r.tx == nil {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	if err := r.s.fails[method]; err != nil {
		return err
	}
	if r.tx != nil {
		return fn(r.tx)
	}
	return fn(r.s.data)
}

// --- Users ---

func (r *repos) CreateUser(_ context.Context, u *domain.User) error {
	return r.do("CreateUser", func(t *tables) error {
		for _, existing := range t.users {
			if existing.Username == u.Username {
				return fmt.Errorf("user %s: %w", u.Username, ports.ErrDuplicateEntry)
			}
		}
		t.users[u.ID] = *u
		return nil
	})
}

func (r *repos) FindUserByID(_ context.Context, id string) (*domain.User, error) {
	var found *domain.User
	err := r.do("FindUserByID", func(t *tables) error {
		if u, ok := t.users[id]; ok {
			found = &u
		}
		return nil
	})
	return found, err
}

func (r *repos) FindUserByUsername(_ context.Context, username string) (*domain.User, error) {
	var found *domain.User
	err := r.do("FindUserByUsername", func(t *tables) error {
		for _, u := range t.users {
			if u.Username == username {
				u := u
				found = &u
				break
			}
		}
		return nil
	})
	return found, err
}

func (r *repos) UpdateBalance(_ context.Context, u *domain.User) error {
	return r.do("UpdateBalance", func(t *tables) error {
		stored, ok := t.users[u.ID]
		if !ok || stored.Version != u.Version {
			return fmt.Errorf("user %s at version %d: %w", u.ID, u.Version, ports.ErrConflict)
		}
		stored.TotalCapital = u.TotalCapital
		stored.Version++
		stored.UpdatedAt = time.Now().UTC()
		t.users[u.ID] = stored
		u.Version = stored.Version
		u.UpdatedAt = stored.UpdatedAt
		return nil
	})
}

// --- Capital movements ---

func (r *repos) CreateMovement(_ context.Context, m *domain.CapitalMovement) error {
	return r.do("CreateMovement", func(t *tables) error {
		t.movements[m.ID] = *m
		return nil
	})
}

func (r *repos) FindMovement(_ context.Context, userID, id string) (*domain.CapitalMovement, error) {
	var found *domain.CapitalMovement
	err := r.do("FindMovement", func(t *tables) error {
		if m, ok := t.movements[id]; ok && m.UserID == userID {
			found = &m
		}
		return nil
	})
	return found, err
}

func (r *repos) DeleteMovement(_ context.Context, userID, id string) error {
	return r.do("DeleteMovement", func(t *tables) error {
		m, ok := t.movements[id]
		if !ok || m.UserID != userID {
			return fmt.Errorf("capital movement %s: %w", id, ports.ErrNotFound)
		}
		delete(t.movements, id)
		return nil
	})
}

func (r *repos) ListMovements(_ context.Context, userID string, f ports.CapitalFilter) ([]*domain.CapitalMovement, error) {
	out := make([]*domain.CapitalMovement, 0)
	err := r.do("ListMovements", func(t *tables) error {
		for _, m := range t.movements {
			if m.UserID != userID || (f.Type != "" && m.Type != f.Type) {
				continue
			}
			m := m
			out = append(out, &m)
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		return newerFirst(out[i].Date, out[j].Date, out[i].CreatedAt, out[j].CreatedAt)
	})
	return out, err
}

// --- Stocks ---

func (r *repos) CreateStock(_ context.Context, s *domain.Stock) error {
	return r.do("CreateStock", func(t *tables) error {
		for _, existing := range t.stocks {
			if existing.UserID == s.UserID && existing.Symbol == s.Symbol {
				return fmt.Errorf("stock %s: %w", s.Symbol, ports.ErrDuplicateEntry)
			}
		}
		t.stocks[s.ID] = *s
		return nil
	})
}

func (r *repos) FindStock(_ context.Context, userID, id string) (*domain.Stock, error) {
	var found *domain.Stock
	err := r.do("FindStock", func(t *tables) error {
		if s, ok := t.stocks[id]; ok && s.UserID == userID {
			found = &s
		}
		return nil
	})
	return found, err
}

func (r *repos) FindStockBySymbol(_ context.Context, userID, symbol string) (*domain.Stock, error) {
	var found *domain.Stock
	err := r.do("FindStockBySymbol", func(t *tables) error {
		for _, s := range t.stocks {
			if s.UserID == userID && s.Symbol == symbol {
				s := s
				found = &s
				break
			}
		}
		return nil
	})
	return found, err
}

func (r *repos) UpdateStock(_ context.Context, s *domain.Stock) error {
	return r.do("UpdateStock", func(t *tables) error {
		stored, ok := t.stocks[s.ID]
		if !ok || stored.UserID != s.UserID || stored.Version != s.Version {
			return fmt.Errorf("stock %s at version %d: %w", s.ID, s.Version, ports.ErrConflict)
		}
		next := *s
		next.Version++
		next.UpdatedAt = time.Now().UTC()
		t.stocks[s.ID] = next
		s.Version = next.Version
		s.UpdatedAt = next.UpdatedAt
		return nil
	})
}

func (r *repos) ListStocks(_ context.Context, userID string, f ports.StockFilter) ([]*domain.Stock, error) {
	out := make([]*domain.Stock, 0)
	err := r.do("ListStocks", func(t *tables) error {
		for _, s := range t.stocks {
			if s.UserID != userID || (f.Open != nil && s.IsOpen != *f.Open) {
				continue
			}
			s := s
			out = append(out, &s)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, err
}

// --- Transactions ---

func (r *repos) CreateTransaction(_ context.Context, tr *domain.Transaction) error {
	return r.do("CreateTransaction", func(t *tables) error {
		t.transactions[tr.ID] = *tr
		return nil
	})
}

func (r *repos) FindTransaction(_ context.Context, userID, id string) (*domain.Transaction, error) {
	var found *domain.Transaction
	err := r.do("FindTransaction", func(t *tables) error {
		if tr, ok := t.transactions[id]; ok && tr.UserID == userID {
			found = &tr
		}
		return nil
	})
	return found, err
}

func (r *repos) UpdateTransaction(_ context.Context, tr *domain.Transaction) error {
	return r.do("UpdateTransaction", func(t *tables) error {
		stored, ok := t.transactions[tr.ID]
		if !ok || stored.UserID != tr.UserID {
			return fmt.Errorf("transaction %s: %w", tr.ID, ports.ErrNotFound)
		}
		stored.Comment = tr.Comment
		stored.TransactionDate = tr.TransactionDate
		stored.UpdatedAt = time.Now().UTC()
		t.transactions[tr.ID] = stored
		tr.UpdatedAt = stored.UpdatedAt
		return nil
	})
}

func (r *repos) ListTransactions(_ context.Context, userID string, f ports.TransactionFilter) ([]*domain.Transaction, error) {
	out := make([]*domain.Transaction, 0)
	err := r.do("ListTransactions", func(t *tables) error {
		for _, tr := range t.transactions {
			if tr.UserID != userID || (f.StockID != "" && tr.StockID != f.StockID) {
				continue
			}
			tr := tr
			out = append(out, &tr)
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		return newerFirst(out[i].TransactionDate, out[j].TransactionDate, out[i].CreatedAt, out[j].CreatedAt)
	})
	return out, err
}

func newerFirst(dateA, dateB, createdA, createdB time.Time) bool {
	if !dateA.Equal(dateB) {
		return dateA.After(dateB)
	}
	return createdA.After(createdB)
}
