package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go-digistore/internal/models"
	"go-digistore/internal/payment/lifecycle"
)

const orderColumns = `id, customer_email, customer_name, customer_phone, total_amount, original_total,
	discount_amount, promo_code, payment_status, payment_mode, payment_deadline, payment_gateway,
	payment_method, payment_type, payment_code, transaction_id, qr_url, redirect_url, manual_method,
	download_count, paid_at, created_at, updated_at`

// CreateOrder stores an order and its items in one transaction
func (db *DB) CreateOrder(ctx context.Context, o *models.Order) error {
	snapshot := ""
	if o.ManualMethod != nil {
		b, err := json.Marshal(o.ManualMethod)
		if err != nil {
			return err
		}
		snapshot = string(b)
	}

	var deadline interface{}
	if o.PaymentDeadline != nil {
		deadline = o.PaymentDeadline.UTC()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, customer_email, customer_name, customer_phone, total_amount, original_total,
			discount_amount, promo_code, payment_status, payment_mode, payment_deadline, payment_gateway,
			payment_method, payment_type, payment_code, transaction_id, qr_url, redirect_url, manual_method)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.CustomerEmail, o.CustomerName, o.CustomerPhone, o.TotalAmount, o.OriginalTotal,
		o.DiscountAmount, o.PromoCode, o.PaymentStatus, o.PaymentMode, deadline, o.PaymentGateway,
		o.PaymentMethod, o.PaymentType, o.PaymentCode, o.TransactionID, o.QRURL, o.RedirectURL, snapshot,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %v", err)
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		res, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, name, price, quantity) VALUES (?, ?, ?, ?, ?)`,
			o.ID, item.ProductID, item.Name, item.Price, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %v", err)
		}
		item.ID, _ = res.LastInsertId()
	}

	return tx.Commit()
}

func scanOrder(row interface{ Scan(...interface{}) error }) (*models.Order, error) {
	var o models.Order
	var deadline, paidAt sql.NullTime
	var snapshot string
	err := row.Scan(
		&o.ID, &o.CustomerEmail, &o.CustomerName, &o.CustomerPhone, &o.TotalAmount, &o.OriginalTotal,
		&o.DiscountAmount, &o.PromoCode, &o.PaymentStatus, &o.PaymentMode, &deadline, &o.PaymentGateway,
		&o.PaymentMethod, &o.PaymentType, &o.PaymentCode, &o.TransactionID, &o.QRURL, &o.RedirectURL, &snapshot,
		&o.DownloadCount, &paidAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if deadline.Valid {
		t := deadline.Time.UTC()
		o.PaymentDeadline = &t
	}
	if paidAt.Valid {
		t := paidAt.Time.UTC()
		o.PaidAt = &t
	}
	if snapshot != "" {
		var m models.ManualPaymentMethod
		if err := json.Unmarshal([]byte(snapshot), &m); err == nil {
			o.ManualMethod = &m
		}
	}
	return &o, nil
}

// GetOrder returns an order with its items
func (db *DB) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	o, err := scanOrder(db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, order_id, product_id, name, price, quantity FROM order_items WHERE order_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	o.Items = []models.OrderItem{}
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, item)
	}
	return o, rows.Err()
}

// ListOrders returns the newest orders first, optionally filtered by status
func (db *DB) ListOrders(ctx context.Context, status models.PaymentStatus, limit, offset int) ([]models.Order, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + orderColumns + ` FROM orders`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE payment_status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// TransitionPaymentStatus moves a pending order into a terminal status.
// It reports false when the order was not pending, so repeated callbacks are no-ops.
func (db *DB) TransitionPaymentStatus(ctx context.Context, orderID string, to models.PaymentStatus) (bool, error) {
	if !lifecycle.IsTerminal(to) {
		return false, fmt.Errorf("invalid target status %q", to)
	}

	var paidAt interface{}
	if to == models.StatusPaid {
		paidAt = time.Now().UTC()
	}

	res, err := db.ExecContext(ctx, `
		UPDATE orders SET payment_status = ?, paid_at = COALESCE(?, paid_at), updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND payment_status IN ('PENDING', 'PENDING_MANUAL')`,
		to, paidAt, orderID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update payment status: %v", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}

	var exists int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE id = ?`, orderID).Scan(&exists); err != nil {
		return false, err
	}
	if exists == 0 {
		return false, ErrNotFound
	}
	return false, nil
}

// ExpireOverdueOrders marks pending orders whose deadline has passed as EXPIRED
// and returns their IDs
func (db *DB) ExpireOverdueOrders(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		UPDATE orders SET payment_status = 'EXPIRED', updated_at = CURRENT_TIMESTAMP
		WHERE payment_status IN ('PENDING', 'PENDING_MANUAL')
			AND payment_deadline IS NOT NULL AND payment_deadline <= ?
		RETURNING id`, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to expire orders: %v", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// IncrementDownloadCount bumps the download counter of a paid order
func (db *DB) IncrementDownloadCount(ctx context.Context, orderID string) error {
	res, err := db.ExecContext(ctx, `
		UPDATE orders SET download_count = download_count + 1 WHERE id = ? AND payment_status = 'PAID'`, orderID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// RecordGatewayEvent appends a raw gateway exchange
func (db *DB) RecordGatewayEvent(ctx context.Context, ev *models.GatewayEvent) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO gateway_events (gateway_name, kind, order_id, status, payload, error) VALUES (?, ?, ?, ?, ?, ?)`,
		ev.GatewayName, ev.Kind, ev.OrderID, ev.Status, ev.Payload, ev.Error,
	)
	if err != nil {
		return err
	}
	ev.ID, _ = res.LastInsertId()
	return nil
}

// ListGatewayEvents returns the events recorded for an order, oldest first
func (db *DB) ListGatewayEvents(ctx context.Context, orderID string) ([]models.GatewayEvent, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, gateway_name, kind, order_id, status, payload, error, created_at
		FROM gateway_events WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.GatewayEvent{}
	for rows.Next() {
		var ev models.GatewayEvent
		if err := rows.Scan(&ev.ID, &ev.GatewayName, &ev.Kind, &ev.OrderID, &ev.Status, &ev.Payload, &ev.Error, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
