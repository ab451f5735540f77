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

const userColumns = `id, username, email, total_capital, version, created_at, updated_at`

// CreateUser saves a new user.
func (r *repos) CreateUser(ctx context.Context, u *domain.User) error {
	const query = `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.q.ExecContext(ctx, query,
		u.ID, u.Username, u.Email, u.TotalCapital, u.Version, u.CreatedAt.UTC(), u.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s: %w", u.Username, ports.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to insert user %s: %w: %w", u.Username, ports.ErrQueryFailed, err)
	}
	r.logger.Debug(ctx, "User created", map[string]interface{}{"userID": u.ID, "username": u.Username})
	return nil
}

// FindUserByID retrieves a user by id.
func (r *repos) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	u, err := scanUser(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user %s: %w: %w", id, ports.ErrQueryFailed, err)
	}
	return u, nil
}

// FindUserByUsername retrieves a user by username.
func (r *repos) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	u, err := scanUser(r.q.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user %s: %w: %w", username, ports.ErrQueryFailed, err)
	}
	return u, nil
}

// UpdateBalance writes the balance if the stored version still matches.
func (r *repos) UpdateBalance(ctx context.Context, u *domain.User) error {
	const query = `
	UPDATE users SET total_capital = ?, version = version + 1, updated_at = ?
	WHERE id = ? AND version = ?`

	now := time.Now().UTC()
	result, err := r.q.ExecContext(ctx, query, u.TotalCapital, now, u.ID, u.Version)
	if err != nil {
		return fmt.Errorf("failed to update balance for user %s: %w: %w", u.ID, ports.ErrUpdateFailed, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for user %s: %w: %w", u.ID, ports.ErrUpdateFailed, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user %s at version %d: %w", u.ID, u.Version, ports.ErrConflict)
	}
	u.Version++
	u.UpdatedAt = now
	r.logger.Debug(ctx, "User balance updated", map[string]interface{}{"userID": u.ID, "totalCapital": u.TotalCapital.String()})
	return nil
}

func scanUser(s scanner) (*domain.User, error) {
	u := &domain.User{}
	err := s.Scan(&u.ID, &u.Username, &u.Email, &u.TotalCapital, &u.Version, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}
