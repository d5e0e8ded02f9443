package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"vton-rest-api/internal/model"
)

// MySQLAccountRepository implements AccountRepository using MySQL.
// Selected via ACCOUNT_DB_TYPE=mysql; the accounts table is expected
// to exist (managed outside this service).
type MySQLAccountRepository struct {
	db *sql.DB
}

// NewMySQLAccountRepository creates a new MySQL account repository.
func NewMySQLAccountRepository(db *sql.DB) *MySQLAccountRepository {
	return &MySQLAccountRepository{db: db}
}

// CreateAccount inserts a new free-tier account.
func (r *MySQLAccountRepository) CreateAccount(ctx context.Context, email, passwordHash string, credits int) (*model.Account, error) {
	query := `INSERT INTO accounts (email, password_hash, tier, credits) VALUES (?, ?, 'free', ?)`

	res, err := r.db.ExecContext(ctx, query, email, passwordHash, credits)
	if err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read account id: %w", err)
	}

	return r.GetAccountByID(ctx, id)
}

// GetAccountByID loads an account by id.
func (r *MySQLAccountRepository) GetAccountByID(ctx context.Context, id int64) (*model.Account, error) {
	query := `SELECT id, email, password_hash, tier, credits, created_at, updated_at FROM accounts WHERE id = ?`
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

// GetAccountByEmail loads an account by email.
func (r *MySQLAccountRepository) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	query := `SELECT id, email, password_hash, tier, credits, created_at, updated_at FROM accounts WHERE email = ?`
	return scanAccount(r.db.QueryRowContext(ctx, query, email))
}

// AdjustCredits applies delta with the same conditional-update contract
// as the SQLite backend: the write fails instead of going negative.
func (r *MySQLAccountRepository) AdjustCredits(ctx context.Context, id int64, delta int) (*model.Account, error) {
	query := `
		UPDATE accounts
		SET credits = credits + ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND credits + ? >= 0`

	res, err := r.db.ExecContext(ctx, query, delta, id, delta)
	if err != nil {
		return nil, fmt.Errorf("failed to adjust credits: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		if _, err := r.GetAccountByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrInsufficientCredits
	}

	return r.GetAccountByID(ctx, id)
}

// SetTier changes the account tier.
func (r *MySQLAccountRepository) SetTier(ctx context.Context, id int64, t model.Tier) error {
	query := `UPDATE accounts SET tier = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query, string(t), id)
	if err != nil {
		return fmt.Errorf("failed to set tier: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Close closes the database connection.
func (r *MySQLAccountRepository) Close() error {
	return r.db.Close()
}
