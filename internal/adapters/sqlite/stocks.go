package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tradejournal/internal/domain"
	"tradejournal/internal/ports"
)

const stockColumns = `id, user_id, symbol, current_quantity, average_price, is_open, open_date, close_date,
	profit_loss, profit_loss_percentage, notes, last_trade_date, version, created_at, updated_at`

// CreateStock saves a new position.
func (r *repos) CreateStock(ctx context.Context, s *domain.Stock) error {
	const query = `INSERT INTO stocks (` + stockColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.q.ExecContext(ctx, query,
		s.ID, s.UserID, s.Symbol, s.CurrentQuantity, s.AveragePrice, s.IsOpen, s.OpenDate.UTC(), nullTime(s.CloseDate),
		s.ProfitLoss, s.ProfitLossPercentage, s.Notes, nullTime(s.LastTradeDate), s.Version, s.CreatedAt.UTC(), s.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("stock %s: %w", s.Symbol, ports.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to insert stock %s: %w: %w", s.Symbol, ports.ErrQueryFailed, err)
	}
	r.logger.Debug(ctx, "Stock created", map[string]interface{}{"stockID": s.ID, "symbol": s.Symbol})
	return nil
}

// FindStock retrieves a position owned by userID.
func (r *repos) FindStock(ctx context.Context, userID, id string) (*domain.Stock, error) {
	const query = `SELECT ` + stockColumns + ` FROM stocks WHERE id = ? AND user_id = ?`
	s, err := scanStock(r.q.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query stock %s: %w: %w", id, ports.ErrQueryFailed, err)
	}
	return s, nil
}

// FindStockBySymbol retrieves a user's position by symbol.
func (r *repos) FindStockBySymbol(ctx context.Context, userID, symbol string) (*domain.Stock, error) {
	const query = `SELECT ` + stockColumns + ` FROM stocks WHERE user_id = ? AND symbol = ?`
	s, err := scanStock(r.q.QueryRowContext(ctx, query, userID, symbol))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query stock %s: %w: %w", symbol, ports.ErrQueryFailed, err)
	}
	return s, nil
}

// UpdateStock writes every mutable field if the stored version still matches.
func (r *repos) UpdateStock(ctx context.Context, s *domain.Stock) error {
	const query = `
	UPDATE stocks
	SET current_quantity = ?, average_price = ?, is_open = ?, open_date = ?, close_date = ?,
	    profit_loss = ?, profit_loss_percentage = ?, notes = ?, last_trade_date = ?,
	    version = version + 1, updated_at = ?
	WHERE id = ? AND user_id = ? AND version = ?`

	now := time.Now().UTC()
	result, err := r.q.ExecContext(ctx, query,
		s.CurrentQuantity, s.AveragePrice, s.IsOpen, s.OpenDate.UTC(), nullTime(s.CloseDate),
		s.ProfitLoss, s.ProfitLossPercentage, s.Notes, nullTime(s.LastTradeDate), now,
		s.ID, s.UserID, s.Version)
	if err != nil {
		return fmt.Errorf("failed to update stock %s: %w: %w", s.ID, ports.ErrUpdateFailed, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for stock %s: %w: %w", s.ID, ports.ErrUpdateFailed, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("stock %s at version %d: %w", s.ID, s.Version, ports.ErrConflict)
	}
	s.Version++
	s.UpdatedAt = now
	r.logger.Debug(ctx, "Stock updated", map[string]interface{}{"stockID": s.ID, "symbol": s.Symbol, "status": s.Status()})
	return nil
}

// ListStocks lists a user's positions ordered by symbol.
func (r *repos) ListStocks(ctx context.Context, userID string, f ports.StockFilter) ([]*domain.Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stocks WHERE user_id = ?`
	args := []interface{}{userID}
	if f.Open != nil {
		query += ` AND is_open = ?`
		args = append(args, *f.Open)
	}
	query += ` ORDER BY symbol ASC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stocks for user %s: %w: %w", userID, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	stocks := make([]*domain.Stock, 0)
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		stocks = append(stocks, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock rows: %w", err)
	}
	return stocks, nil
}

func scanStock(sc scanner) (*domain.Stock, error) {
	s := &domain.Stock{}
	var closeDate, lastTrade sql.NullTime
	err := sc.Scan(
		&s.ID, &s.UserID, &s.Symbol, &s.CurrentQuantity, &s.AveragePrice, &s.IsOpen, &s.OpenDate, &closeDate,
		&s.ProfitLoss, &s.ProfitLossPercentage, &s.Notes, &lastTrade, &s.Version, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.CloseDate = timePtr(closeDate)
	s.LastTradeDate = timePtr(lastTrade)
	return s, nil
}
