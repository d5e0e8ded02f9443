package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"vton-rest-api/internal/model"
)

// SQLiteLedgerRepository implements LedgerRepository using SQLite.
// Holds generation history, check-ins and purchases.
type SQLiteLedgerRepository struct {
	db *sql.DB
}

// NewSQLiteLedgerRepository creates a new SQLite ledger repository.
// It may share the database file with the account repository; each
// repository owns its own connection.
func NewSQLiteLedgerRepository(dbPath string) (*SQLiteLedgerRepository, error) {
	db, err := openSQLite(dbPath)
	if err != nil {
		return nil, err
	}

	if err := createLedgerTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteLedgerRepository] Initialized with database: %s", dbPath)
	return &SQLiteLedgerRepository{db: db}, nil
}

func createLedgerTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS generation_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL,
		credits_used INTEGER NOT NULL,
		garment_count INTEGER NOT NULL,
		generation_type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		error_message TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		completed_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_history_account ON generation_history(account_id);

	CREATE TABLE IF NOT EXISTS user_checkins (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL,
		checkin_type TEXT NOT NULL,
		checkin_period TEXT NOT NULL,
		credits_awarded INTEGER NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(account_id, checkin_period)
	);

	CREATE TABLE IF NOT EXISTS credit_purchases (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL,
		package_name TEXT NOT NULL,
		package_price INTEGER NOT NULL,
		base_credits INTEGER NOT NULL,
		bonus_credits INTEGER NOT NULL,
		total_credits INTEGER NOT NULL,
		admin_note TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_purchases_account ON credit_purchases(account_id);
	`
	_, err := db.Exec(query)
	return err
}

// CreateGenerationRecord appends a pending generation record.
func (r *SQLiteLedgerRepository) CreateGenerationRecord(ctx context.Context, accountID int64, creditsUsed, garmentCount int, mode model.GenerationMode) (*model.GenerationRecord, error) {
	query := `
		INSERT INTO generation_history (account_id, credits_used, garment_count, generation_type, status)
		VALUES (?, ?, ?, ?, 'pending')`

	res, err := r.db.ExecContext(ctx, query, accountID, creditsUsed, garmentCount, string(mode))
	if err != nil {
		return nil, fmt.Errorf("failed to create generation record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read record id: %w", err)
	}

	return &model.GenerationRecord{
		ID:           id,
		AccountID:    accountID,
		CreditsUsed:  creditsUsed,
		GarmentCount: garmentCount,
		Mode:         mode,
		Status:       model.StatusPending,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// SetGenerationStatus moves a record to a terminal status. The
// completion timestamp is stamped on the same write; terminal rows
// are only ever touched once.
func (r *SQLiteLedgerRepository) SetGenerationStatus(ctx context.Context, id int64, status model.GenerationStatus, errorMessage string) error {
	query := `
		UPDATE generation_history
		SET status = ?, error_message = ?, completed_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'pending'`

	res, err := r.db.ExecContext(ctx, query, string(status), nullable(errorMessage), id)
	if err != nil {
		return fmt.Errorf("failed to update generation status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// ListGenerationHistory returns the most recent generation records.
func (r *SQLiteLedgerRepository) ListGenerationHistory(ctx context.Context, accountID int64, limit int) ([]model.GenerationRecord, error) {
	query := `
		SELECT id, account_id, credits_used, garment_count, generation_type, status, error_message, created_at, completed_at
		FROM generation_history
		WHERE account_id = ?
		ORDER BY created_at DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list generation history: %w", err)
	}
	defer rows.Close()

	var records []model.GenerationRecord
	for rows.Next() {
		var rec model.GenerationRecord
		var mode, status string
		var errMsg sql.NullString
		var completedAt sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.AccountID, &rec.CreditsUsed, &rec.GarmentCount, &mode, &status, &errMsg, &rec.CreatedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.Mode = model.GenerationMode(mode)
		rec.Status = model.GenerationStatus(status)
		rec.ErrorMessage = errMsg.String
		if completedAt.Valid {
			t := completedAt.Time
			rec.CompletedAt = &t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// HasCheckin reports whether a check-in exists for the period.
func (r *SQLiteLedgerRepository) HasCheckin(ctx context.Context, accountID int64, period string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_checkins WHERE account_id = ? AND checkin_period = ?`,
		accountID, period).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check checkin: %w", err)
	}
	return count > 0, nil
}

// CreateCheckin records one credit-awarding check-in.
func (r *SQLiteLedgerRepository) CreateCheckin(ctx context.Context, accountID int64, cadence model.CheckinCadence, period string, credits int) error {
	query := `
		INSERT INTO user_checkins (account_id, checkin_type, checkin_period, credits_awarded)
		VALUES (?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, accountID, string(cadence), period, credits)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return ErrAlreadyCheckedIn
		}
		return fmt.Errorf("failed to create checkin: %w", err)
	}
	return nil
}

// ListCheckins returns the most recent check-ins.
func (r *SQLiteLedgerRepository) ListCheckins(ctx context.Context, accountID int64, limit int) ([]model.Checkin, error) {
	query := `
		SELECT id, account_id, checkin_type, checkin_period, credits_awarded, created_at
		FROM user_checkins
		WHERE account_id = ?
		ORDER BY created_at DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkins: %w", err)
	}
	defer rows.Close()

	var checkins []model.Checkin
	for rows.Next() {
		var c model.Checkin
		var cadence string
		if err := rows.Scan(&c.ID, &c.AccountID, &cadence, &c.Period, &c.CreditsAwarded, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan checkin: %w", err)
		}
		c.Cadence = model.CheckinCadence(cadence)
		checkins = append(checkins, c)
	}
	return checkins, rows.Err()
}

// CreatePurchase records an applied credit package purchase.
func (r *SQLiteLedgerRepository) CreatePurchase(ctx context.Context, accountID int64, pkg model.CreditPackage, adminNote string) error {
	query := `
		INSERT INTO credit_purchases (account_id, package_name, package_price, base_credits, bonus_credits, total_credits, admin_note)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, accountID, pkg.Name, pkg.Price, pkg.BaseCredits, pkg.BonusCredits, pkg.TotalCredits, adminNote)
	if err != nil {
		return fmt.Errorf("failed to create purchase: %w", err)
	}
	return nil
}

// ListPurchases returns the most recent purchases.
func (r *SQLiteLedgerRepository) ListPurchases(ctx context.Context, accountID int64, limit int) ([]model.Purchase, error) {
	query := `
		SELECT id, account_id, package_name, package_price, base_credits, bonus_credits, total_credits, admin_note, created_at
		FROM credit_purchases
		WHERE account_id = ?
		ORDER BY created_at DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []model.Purchase
	for rows.Next() {
		var p model.Purchase
		var note sql.NullString
		if err := rows.Scan(&p.ID, &p.AccountID, &p.PackageName, &p.PackagePrice, &p.BaseCredits, &p.BonusCredits, &p.TotalCredits, &note, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		p.AdminNote = note.String
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

// GetStats returns counters for the admin endpoint.
func (r *SQLiteLedgerRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	counters := map[string]string{
		"total_generations":     `SELECT COUNT(*) FROM generation_history`,
		"completed_generations": `SELECT COUNT(*) FROM generation_history WHERE status = 'completed'`,
		"failed_generations":    `SELECT COUNT(*) FROM generation_history WHERE status = 'failed'`,
		"pending_generations":   `SELECT COUNT(*) FROM generation_history WHERE status = 'pending'`,
		"total_checkins":        `SELECT COUNT(*) FROM user_checkins`,
		"total_purchases":       `SELECT COUNT(*) FROM credit_purchases`,
	}

	for name, query := range counters {
		var count int64
		if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		stats[name] = count
	}

	var creditsSpent sql.NullInt64
	if err := r.db.QueryRowContext(ctx,
		`SELECT SUM(credits_used) FROM generation_history WHERE status = 'completed'`).Scan(&creditsSpent); err != nil {
		return nil, fmt.Errorf("failed to read credits spent: %w", err)
	}
	stats["credits_spent"] = creditsSpent.Int64

	return stats, nil
}

// Close closes the database connection.
func (r *SQLiteLedgerRepository) Close() error {
	return r.db.Close()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
