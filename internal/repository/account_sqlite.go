package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"vton-rest-api/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteAccountRepository implements AccountRepository using SQLite.
type SQLiteAccountRepository struct {
	db *sql.DB
}

// NewSQLiteAccountRepository creates a new SQLite account repository.
// dbPath is the path to the SQLite database file (e.g., "./data/vton.db").
func NewSQLiteAccountRepository(dbPath string) (*SQLiteAccountRepository, error) {
	db, err := openSQLite(dbPath)
	if err != nil {
		return nil, err
	}

	if err := createAccountTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteAccountRepository] Initialized with database: %s", dbPath)
	return &SQLiteAccountRepository{db: db}, nil
}

// openSQLite opens a SQLite database with WAL mode and a single writer.
func openSQLite(dbPath string) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports 1 writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

func createAccountTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		tier TEXT NOT NULL DEFAULT 'free',
		credits INTEGER NOT NULL DEFAULT 0 CHECK (credits >= 0),
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_accounts_email ON accounts(email);
	`
	_, err := db.Exec(query)
	return err
}

// CreateAccount inserts a new free-tier account.
func (r *SQLiteAccountRepository) CreateAccount(ctx context.Context, email, passwordHash string, credits int) (*model.Account, error) {
	query := `
		INSERT INTO accounts (email, password_hash, tier, credits)
		VALUES (?, ?, 'free', ?)`

	res, err := r.db.ExecContext(ctx, query, email, passwordHash, credits)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
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
func (r *SQLiteAccountRepository) GetAccountByID(ctx context.Context, id int64) (*model.Account, error) {
	query := `SELECT id, email, password_hash, tier, credits, created_at, updated_at FROM accounts WHERE id = ?`
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

// GetAccountByEmail loads an account by email.
func (r *SQLiteAccountRepository) GetAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	query := `SELECT id, email, password_hash, tier, credits, created_at, updated_at FROM accounts WHERE email = ?`
	return scanAccount(r.db.QueryRowContext(ctx, query, email))
}

// AdjustCredits applies delta as a conditional update so the balance
// can never go negative, even under concurrent debits. The balance
// check and the write are one statement against the account row.
func (r *SQLiteAccountRepository) AdjustCredits(ctx context.Context, id int64, delta int) (*model.Account, error) {
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
		// Either the account is missing or the debit would go negative.
		if _, err := r.GetAccountByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrInsufficientCredits
	}

	return r.GetAccountByID(ctx, id)
}

// SetTier changes the account tier.
func (r *SQLiteAccountRepository) SetTier(ctx context.Context, id int64, t model.Tier) error {
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
func (r *SQLiteAccountRepository) Close() error {
	return r.db.Close()
}

// scanAccount reads one account row.
func scanAccount(row *sql.Row) (*model.Account, error) {
	var a model.Account
	var tierStr string
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &tierStr, &a.Credits, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	a.Tier = model.Tier(tierStr)
	return &a, nil
}
