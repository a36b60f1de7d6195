package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"gitlab.connectwisedev.com/sportshop-backend/models"
	"gitlab.connectwisedev.com/sportshop-backend/store"
)

// OrderStore implements store.OrderStore on PostgreSQL. Items, summary and
// customer info stay JSONB documents; status transitions are conditional
// single-row updates so a pending order cannot be completed and cancelled at
// the same time.
type OrderStore struct {
	db *sql.DB
}

func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

const orderColumns = `order_id, created_at, user_id, status, customer_info, items, summary,
	payment_method, delivery_method, updated_at,
	completed_at, completed_by, sale_id,
	cancelled_at, cancelled_by, cancellation_reason, admin_notes`

func (s *OrderStore) Get(ctx context.Context, orderID string) (models.Order, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_id = $1`, orderID)
	return scanOrder(row)
}

func (s *OrderStore) ListByUser(ctx context.Context, userID string, status models.OrderStatus, limit int) ([]models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1`
	args := []interface{}{userID}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders for user %s: %w", userID, err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s *OrderStore) Put(ctx context.Context, o models.Order) error {
	customerInfo, err := json.Marshal(o.CustomerInfo)
	if err != nil {
		return fmt.Errorf("failed to marshal customer info: %w", err)
	}
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}
	summary, err := json.Marshal(o.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal order summary: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO orders (order_id, created_at, user_id, status, customer_info, items, summary,
			payment_method, delivery_method, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		o.OrderID, o.CreatedAt, o.UserID, o.Status, customerInfo, items, summary,
		nullString(o.PaymentMethod), nullString(o.DeliveryMethod), o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (s *OrderStore) Complete(ctx context.Context, orderID string, at time.Time, completedBy, saleID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, completed_at = $3, completed_by = $4, sale_id = $5, updated_at = $3
		WHERE order_id = $1 AND status = $6`,
		orderID, models.OrderStatusCompleted, at, completedBy, saleID, models.OrderStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to complete order %s: %w", orderID, err)
	}
	return requireTransition(ctx, res, func() error {
		_, getErr := s.Get(ctx, orderID)
		return getErr
	})
}

func (s *OrderStore) Cancel(ctx context.Context, orderID string, at time.Time, cancelledBy, reason, adminNotes string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, cancelled_at = $3, cancelled_by = $4,
			cancellation_reason = $5, admin_notes = $6, updated_at = $3
		WHERE order_id = $1 AND status = $7`,
		orderID, models.OrderStatusCancelled, at, cancelledBy,
		reason, nullString(adminNotes), models.OrderStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel order %s: %w", orderID, err)
	}
	return requireTransition(ctx, res, func() error {
		_, getErr := s.Get(ctx, orderID)
		return getErr
	})
}

func scanOrder(row scanner) (models.Order, error) {
	var (
		o               models.Order
		customerInfo    []byte
		items           []byte
		summary         []byte
		paymentMethod   sql.NullString
		deliveryMethod  sql.NullString
		completedAt     sql.NullTime
		completedBy     sql.NullString
		saleID          sql.NullString
		cancelledAt     sql.NullTime
		cancelledBy     sql.NullString
		cancellationRsn sql.NullString
		adminNotes      sql.NullString
	)
	err := row.Scan(
		&o.OrderID, &o.CreatedAt, &o.UserID, &o.Status, &customerInfo, &items, &summary,
		&paymentMethod, &deliveryMethod, &o.UpdatedAt,
		&completedAt, &completedBy, &saleID,
		&cancelledAt, &cancelledBy, &cancellationRsn, &adminNotes,
	)
	if err == sql.ErrNoRows {
		return models.Order{}, store.ErrNotFound
	}
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to scan order row: %w", err)
	}

	if err := json.Unmarshal(customerInfo, &o.CustomerInfo); err != nil {
		return models.Order{}, fmt.Errorf("failed to unmarshal customer info: %w", err)
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return models.Order{}, fmt.Errorf("failed to unmarshal order items: %w", err)
	}
	if err := json.Unmarshal(summary, &o.Summary); err != nil {
		return models.Order{}, fmt.Errorf("failed to unmarshal order summary: %w", err)
	}

	o.PaymentMethod = paymentMethod.String
	o.DeliveryMethod = deliveryMethod.String
	o.CompletedBy = completedBy.String
	o.SaleID = saleID.String
	o.CancelledBy = cancelledBy.String
	o.CancellationReason = cancellationRsn.String
	o.AdminNotes = adminNotes.String
	if completedAt.Valid {
		o.CompletedAt = &completedAt.Time
	}
	if cancelledAt.Valid {
		o.CancelledAt = &cancelledAt.Time
	}
	return o, nil
}

// requireTransition maps a zero-row conditional update to ErrNotFound when
// the record is missing and ErrStateConflict when the condition failed.
func requireTransition(_ context.Context, res sql.Result, lookup func() error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if getErr := lookup(); getErr == store.ErrNotFound {
		return store.ErrNotFound
	} else if getErr != nil {
		return getErr
	}
	return store.ErrStateConflict
}
