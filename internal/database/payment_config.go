package database

import (
	"context"
	"database/sql"
	"fmt"

	"go-digistore/internal/models"
)

const gatewayColumns = `g.id, g.gateway_name, g.display_name, g.api_key, g.secret_key, g.merchant_id,
	g.environment, g.is_active, s.payment_mode, g.created_at, g.updated_at`

const gatewayFrom = `FROM gateway_configs g LEFT JOIN payment_settings s ON s.id = 1`

func scanGatewayConfig(row interface{ Scan(...interface{}) error }) (*models.GatewayConfig, error) {
	var cfg models.GatewayConfig
	var mode sql.NullString
	err := row.Scan(
		&cfg.ID, &cfg.GatewayName, &cfg.DisplayName, &cfg.APIKey, &cfg.SecretKey, &cfg.MerchantID,
		&cfg.Environment, &cfg.IsActive, &mode, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	cfg.PaymentMode = models.ModeGateway
	if mode.Valid && models.PaymentMode(mode.String) == models.ModeManual {
		cfg.PaymentMode = models.ModeManual
	}
	return &cfg, nil
}

// GetActivePaymentConfig returns the active gateway row with the global mode,
// or nil when no gateway is active
func (db *DB) GetActivePaymentConfig(ctx context.Context) (*models.GatewayConfig, error) {
	row := db.QueryRowContext(ctx, `SELECT `+gatewayColumns+` `+gatewayFrom+` WHERE g.is_active = 1 LIMIT 1`)
	cfg, err := scanGatewayConfig(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load active payment config: %v", err)
	}
	return cfg, nil
}

// GetGatewayConfig returns the row for one gateway
func (db *DB) GetGatewayConfig(ctx context.Context, name models.GatewayName) (*models.GatewayConfig, error) {
	row := db.QueryRowContext(ctx, `SELECT `+gatewayColumns+` `+gatewayFrom+` WHERE g.gateway_name = ?`, name)
	cfg, err := scanGatewayConfig(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// ListGatewayConfigs returns every gateway row ordered by name
func (db *DB) ListGatewayConfigs(ctx context.Context) ([]models.GatewayConfig, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+gatewayColumns+` `+gatewayFrom+` ORDER BY g.gateway_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []models.GatewayConfig
	for rows.Next() {
		cfg, err := scanGatewayConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, *cfg)
	}
	return configs, rows.Err()
}

// UpsertGatewayConfig creates or updates credentials for a gateway.
// Activation is left untouched; use SetActiveGateway for that.
func (db *DB) UpsertGatewayConfig(ctx context.Context, cfg *models.GatewayConfig) error {
	env := cfg.Environment
	if env == "" {
		env = models.EnvironmentSandbox
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO gateway_configs (gateway_name, display_name, api_key, secret_key, merchant_id, environment)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(gateway_name) DO UPDATE SET
			display_name = excluded.display_name,
			api_key = excluded.api_key,
			secret_key = excluded.secret_key,
			merchant_id = excluded.merchant_id,
			environment = excluded.environment,
			updated_at = CURRENT_TIMESTAMP`,
		cfg.GatewayName, cfg.DisplayName, cfg.APIKey, cfg.SecretKey, cfg.MerchantID, env,
	)
	if err != nil {
		return fmt.Errorf("failed to save gateway config: %v", err)
	}
	return nil
}

// SetActiveGateway activates name and deactivates every other gateway in one transaction
func (db *DB) SetActiveGateway(ctx context.Context, name models.GatewayName) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM gateway_configs WHERE gateway_name = ?`, name).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}

	// Clear first so the single-active index never sees two rows
	if _, err := tx.ExecContext(ctx, `
		UPDATE gateway_configs SET is_active = 0, updated_at = CURRENT_TIMESTAMP
		WHERE is_active = 1 AND gateway_name <> ?`, name); err != nil {
		return fmt.Errorf("failed to deactivate gateways: %v", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE gateway_configs SET is_active = 1, updated_at = CURRENT_TIMESTAMP
		WHERE gateway_name = ? AND is_active = 0`, name); err != nil {
		return fmt.Errorf("failed to activate gateway: %v", err)
	}

	return tx.Commit()
}

// SetPaymentMode switches between gateway and manual payments globally
func (db *DB) SetPaymentMode(ctx context.Context, mode models.PaymentMode) error {
	if mode != models.ModeGateway && mode != models.ModeManual {
		return fmt.Errorf("invalid payment mode %q", mode)
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO payment_settings (id, payment_mode) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET payment_mode = excluded.payment_mode, updated_at = CURRENT_TIMESTAMP`,
		mode,
	)
	return err
}

// GetPaymentMode returns the stored payment mode, defaulting to gateway
func (db *DB) GetPaymentMode(ctx context.Context) (models.PaymentMode, error) {
	var mode string
	err := db.QueryRowContext(ctx, `SELECT payment_mode FROM payment_settings WHERE id = 1`).Scan(&mode)
	if err == sql.ErrNoRows {
		return models.ModeGateway, nil
	}
	if err != nil {
		return "", err
	}
	return models.PaymentMode(mode), nil
}

// GetActiveManualMethods returns active manual methods by sort order
func (db *DB) GetActiveManualMethods(ctx context.Context) ([]models.ManualPaymentMethod, error) {
	return db.queryManualMethods(ctx, `WHERE is_active = 1`)
}

// ListManualMethods returns all manual methods, active or not
func (db *DB) ListManualMethods(ctx context.Context) ([]models.ManualPaymentMethod, error) {
	return db.queryManualMethods(ctx, ``)
}

const manualColumns = `id, type, provider_name, account_name, account_number, logo_url,
	is_active, sort_order, created_at, updated_at`

func scanManualMethod(row interface{ Scan(...interface{}) error }) (*models.ManualPaymentMethod, error) {
	var m models.ManualPaymentMethod
	err := row.Scan(&m.ID, &m.Type, &m.ProviderName, &m.AccountName, &m.AccountNumber, &m.LogoURL,
		&m.IsActive, &m.SortOrder, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (db *DB) queryManualMethods(ctx context.Context, where string) ([]models.ManualPaymentMethod, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+manualColumns+` FROM manual_payment_methods `+where+` ORDER BY sort_order, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	methods := []models.ManualPaymentMethod{}
	for rows.Next() {
		m, err := scanManualMethod(rows)
		if err != nil {
			return nil, err
		}
		methods = append(methods, *m)
	}
	return methods, rows.Err()
}

// GetManualMethod returns a manual method by ID
func (db *DB) GetManualMethod(ctx context.Context, id int64) (*models.ManualPaymentMethod, error) {
	row := db.QueryRowContext(ctx, `SELECT `+manualColumns+` FROM manual_payment_methods WHERE id = ?`, id)
	m, err := scanManualMethod(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return m, err
}

// CreateManualMethod inserts m and sets its ID
func (db *DB) CreateManualMethod(ctx context.Context, m *models.ManualPaymentMethod) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO manual_payment_methods (type, provider_name, account_name, account_number, logo_url, is_active, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.Type, m.ProviderName, m.AccountName, m.AccountNumber, m.LogoURL, m.IsActive, m.SortOrder,
	)
	if err != nil {
		return fmt.Errorf("failed to create manual method: %v", err)
	}
	m.ID, err = res.LastInsertId()
	return err
}

// UpdateManualMethod overwrites the editable fields of m
func (db *DB) UpdateManualMethod(ctx context.Context, m *models.ManualPaymentMethod) error {
	res, err := db.ExecContext(ctx, `
		UPDATE manual_payment_methods SET
			type = ?, provider_name = ?, account_name = ?, account_number = ?, logo_url = ?,
			is_active = ?, sort_order = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		m.Type, m.ProviderName, m.AccountName, m.AccountNumber, m.LogoURL, m.IsActive, m.SortOrder, m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update manual method: %v", err)
	}
	return expectAffected(res)
}

// DeleteManualMethod removes a manual method. Orders keep their snapshot.
func (db *DB) DeleteManualMethod(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM manual_payment_methods WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
