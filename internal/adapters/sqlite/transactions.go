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

const transactionColumns = `id, user_id, stock_id, transaction_type, quantity, price, transaction_date, comment, created_at, updated_at`

// CreateTransaction appends a buy or sell record.
func (r *repos) CreateTransaction(ctx context.Context, t *domain.Transaction) error {
	const query = `INSERT INTO transactions (` + transactionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.q.ExecContext(ctx, query,
		t.ID, t.UserID, t.StockID, string(t.Type), t.Quantity, t.Price, t.TransactionDate.UTC(), t.Comment,
		t.CreatedAt.UTC(), t.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert transaction for stock %s: %w: %w", t.StockID, ports.ErrQueryFailed, err)
	}
	r.logger.Debug(ctx, "Transaction created", map[string]interface{}{"transactionID": t.ID, "type": t.Type, "stockID": t.StockID})
	return nil
}

// FindTransaction retrieves a transaction owned by userID.
func (r *repos) FindTransaction(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	const query = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ? AND user_id = ?`
	t, err := scanTransaction(r.q.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query transaction %s: %w: %w", id, ports.ErrQueryFailed, err)
	}
	return t, nil
}

// UpdateTransaction writes the editable fields of a transaction.
func (r *repos) UpdateTransaction(ctx context.Context, t *domain.Transaction) error {
	const query = `
	UPDATE transactions SET comment = ?, transaction_date = ?, updated_at = ?
	WHERE id = ? AND user_id = ?`

	now := time.Now().UTC()
	result, err := r.q.ExecContext(ctx, query, t.Comment, t.TransactionDate.UTC(), now, t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w: %w", t.ID, ports.ErrUpdateFailed, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for transaction %s: %w: %w", t.ID, ports.ErrUpdateFailed, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("transaction %s: %w", t.ID, ports.ErrNotFound)
	}
	t.UpdatedAt = now
	return nil
}

// ListTransactions lists a user's transactions, newest first.
func (r *repos) ListTransactions(ctx context.Context, userID string, f ports.TransactionFilter) ([]*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = ?`
	args := []interface{}{userID}
	if f.StockID != "" {
		query += ` AND stock_id = ?`
		args = append(args, f.StockID)
	}
	query += ` ORDER BY transaction_date DESC, created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions for user %s: %w: %w", userID, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	txs := make([]*domain.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return txs, nil
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	var typ string
	err := s.Scan(&t.ID, &t.UserID, &t.StockID, &typ, &t.Quantity, &t.Price, &t.TransactionDate, &t.Comment,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Type = domain.TransactionType(typ)
	return t, nil
}
