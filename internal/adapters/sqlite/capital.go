package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tradejournal/internal/domain"
	"tradejournal/internal/ports"
)

const movementColumns = `id, user_id, amount, type, date, description, transaction_id, created_at`

// CreateMovement appends a capital movement.
func (r *repos) CreateMovement(ctx context.Context, m *domain.CapitalMovement) error {
	const query = `INSERT INTO capital_movements (` + movementColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.q.ExecContext(ctx, query,
		m.ID, m.UserID, m.Amount, string(m.Type), m.Date.UTC(), m.Description, nullString(m.TransactionID), m.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert capital movement for user %s: %w: %w", m.UserID, ports.ErrQueryFailed, err)
	}
	r.logger.Debug(ctx, "Capital movement created", map[string]interface{}{"movementID": m.ID, "type": m.Type, "amount": m.Amount.String()})
	return nil
}

// FindMovement retrieves a movement owned by userID.
func (r *repos) FindMovement(ctx context.Context, userID, id string) (*domain.CapitalMovement, error) {
	const query = `SELECT ` + movementColumns + ` FROM capital_movements WHERE id = ? AND user_id = ?`
	m, err := scanMovement(r.q.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query capital movement %s: %w: %w", id, ports.ErrQueryFailed, err)
	}
	return m, nil
}

// DeleteMovement removes a movement owned by userID.
func (r *repos) DeleteMovement(ctx context.Context, userID, id string) error {
	const query = `DELETE FROM capital_movements WHERE id = ? AND user_id = ?`
	result, err := r.q.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete capital movement %s: %w: %w", id, ports.ErrDeleteFailed, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for capital movement %s: %w: %w", id, ports.ErrDeleteFailed, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("capital movement %s: %w", id, ports.ErrNotFound)
	}
	r.logger.Debug(ctx, "Capital movement deleted", map[string]interface{}{"movementID": id})
	return nil
}

// ListMovements lists a user's movements, newest first.
func (r *repos) ListMovements(ctx context.Context, userID string, f ports.CapitalFilter) ([]*domain.CapitalMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM capital_movements WHERE user_id = ?`
	args := []interface{}{userID}
	if f.Type != "" {
		query += ` AND type = ?`
		args = append(args, string(f.Type))
	}
	query += ` ORDER BY date DESC, created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query capital movements for user %s: %w: %w", userID, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	movements := make([]*domain.CapitalMovement, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan capital movement: %w", err)
		}
		movements = append(movements, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating capital movement rows: %w", err)
	}
	return movements, nil
}

func scanMovement(s scanner) (*domain.CapitalMovement, error) {
	m := &domain.CapitalMovement{}
	var typ string
	var txID sql.NullString
	err := s.Scan(&m.ID, &m.UserID, &m.Amount, &typ, &m.Date, &m.Description, &txID, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.Type = domain.MovementType(typ)
	m.TransactionID = txID.String
	return m, nil
}
