package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go-digistore/internal/models"

	"golang.org/x/crypto/bcrypt"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// InitDB initializes the database connection and creates tables
func InitDB(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %v", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %v", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	wrapper := &DB{db}

	// Create tables
	if err := wrapper.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}

	return wrapper, nil
}

func (db *DB) createTables() error {
	tables := []string{
		// Admin users
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password TEXT NOT NULL,
			email TEXT,
			role TEXT DEFAULT 'admin',
			last_login DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// One row per known gateway
		`CREATE TABLE IF NOT EXISTS gateway_configs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			gateway_name TEXT UNIQUE NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			api_key TEXT NOT NULL DEFAULT '',
			secret_key TEXT NOT NULL DEFAULT '',
			merchant_id TEXT NOT NULL DEFAULT '',
			environment TEXT NOT NULL DEFAULT 'sandbox' CHECK (environment IN ('sandbox', 'production')),
			is_active BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// At most one active gateway
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_gateway_configs_single_active
			ON gateway_configs(is_active) WHERE is_active = 1`,

		// Global payment settings, single row
		`CREATE TABLE IF NOT EXISTS payment_settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			payment_mode TEXT NOT NULL DEFAULT 'gateway' CHECK (payment_mode IN ('gateway', 'manual')),
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`INSERT OR IGNORE INTO payment_settings (id, payment_mode) VALUES (1, 'gateway')`,

		// Manual bank / e-wallet accounts
		`CREATE TABLE IF NOT EXISTS manual_payment_methods (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL CHECK (type IN ('bank_transfer', 'ewallet')),
			provider_name TEXT NOT NULL,
			account_name TEXT NOT NULL,
			account_number TEXT NOT NULL,
			logo_url TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT 1,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Orders with their payment fields
		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			customer_email TEXT NOT NULL,
			customer_name TEXT NOT NULL,
			customer_phone TEXT NOT NULL DEFAULT '',
			total_amount INTEGER NOT NULL,
			original_total INTEGER NOT NULL,
			discount_amount INTEGER NOT NULL DEFAULT 0,
			promo_code TEXT NOT NULL DEFAULT '',
			payment_status TEXT NOT NULL CHECK (payment_status IN ('PENDING', 'PENDING_MANUAL', 'PAID', 'FAILED', 'EXPIRED')),
			payment_mode TEXT NOT NULL,
			payment_deadline DATETIME,
			payment_gateway TEXT NOT NULL DEFAULT '',
			payment_method TEXT NOT NULL DEFAULT '',
			payment_type TEXT NOT NULL DEFAULT '',
			payment_code TEXT NOT NULL DEFAULT '',
			transaction_id TEXT NOT NULL DEFAULT '',
			qr_url TEXT NOT NULL DEFAULT '',
			redirect_url TEXT NOT NULL DEFAULT '',
			manual_method TEXT NOT NULL DEFAULT '',
			download_count INTEGER NOT NULL DEFAULT 0,
			paid_at DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status_deadline ON orders(payment_status, payment_deadline)`,

		`CREATE TABLE IF NOT EXISTS order_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			order_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			name TEXT NOT NULL,
			price INTEGER NOT NULL,
			quantity INTEGER NOT NULL,
			FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
		)`,

		// Raw gateway charges and callbacks
		`CREATE TABLE IF NOT EXISTS gateway_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			gateway_name TEXT NOT NULL,
			kind TEXT NOT NULL,
			order_id TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT '',
			payload TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_gateway_events_order ON gateway_events(order_id)`,
	}

	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			return err
		}
	}

	return nil
}

// SeedDefaults inserts the known gateways and a sample manual account if missing
func (db *DB) SeedDefaults(ctx context.Context) error {
	stmts := []string{
		`INSERT OR IGNORE INTO gateway_configs (gateway_name, display_name, environment, is_active)
			VALUES ('midtrans', 'Midtrans', 'sandbox', 1)`,
		`INSERT OR IGNORE INTO gateway_configs (gateway_name, display_name, environment, is_active)
			VALUES ('duitku', 'Duitku', 'sandbox', 0)`,
		`INSERT INTO manual_payment_methods (type, provider_name, account_name, account_number, sort_order)
			SELECT 'bank_transfer', 'BCA', 'Digistore', '0000000000', 1
			WHERE NOT EXISTS (SELECT 1 FROM manual_payment_methods)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to seed defaults: %v", err)
		}
	}
	return nil
}

// GetUserByUsername retrieves a user by username
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT id, username, password, email, role, last_login, created_at, updated_at FROM users WHERE username = ?`
	var user models.User
	var lastLogin sql.NullTime
	var email sql.NullString

	err := db.QueryRowContext(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.Password, &email, &user.Role, &lastLogin, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if email.Valid {
		user.Email = email.String
	}
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}

	return &user, nil
}

// TouchLastLogin records a successful login
func (db *DB) TouchLastLogin(ctx context.Context, userID int64) error {
	_, err := db.ExecContext(ctx, `UPDATE users SET last_login = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		time.Now().UTC(), userID)
	return err
}

// HashPassword hashes a password using bcrypt
func (db *DB) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// EnsureDefaultAdmin ensures that a default admin user exists
func (db *DB) EnsureDefaultAdmin(ctx context.Context, username, password string) error {
	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE username = ?", username).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check for existing admin: %v", err)
	}

	if count > 0 {
		return nil
	}

	hashedPassword, err := db.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %v", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO users (username, password, email, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		username, hashedPassword, "admin@digistore.local", "admin",
	)
	if err != nil {
		return fmt.Errorf("failed to create admin user: %v", err)
	}

	fmt.Printf("[DB] Default admin user '%s' created\n", username)
	return nil
}
