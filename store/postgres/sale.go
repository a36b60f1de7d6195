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

// SaleStore implements store.SaleStore on PostgreSQL.
type SaleStore struct {
	db *sql.DB
}

func NewSaleStore(db *sql.DB) *SaleStore {
	return &SaleStore{db: db}
}

const saleColumns = `sale_id, completed_at, original_order_id, user_id, customer_name,
	customer_email, items, summary, status, completed_by, delivery_method, payment_method,
	admin_notes, original_order_date,
	cancelled_at, cancelled_by, cancellation_reason, stock_restored`

func (s *SaleStore) Get(ctx context.Context, saleID string) (models.Sale, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE sale_id = $1`, saleID)
	return scanSale(row)
}

func (s *SaleStore) List(ctx context.Context, filter store.SaleFilter) ([]models.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales`
	args := []interface{}{}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		query += " WHERE completed_at >= $1"
	}
	query += " ORDER BY completed_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var sales []models.Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

func (s *SaleStore) Put(ctx context.Context, sale models.Sale) error {
	items, err := json.Marshal(sale.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal sale items: %w", err)
	}
	summary, err := json.Marshal(sale.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal sale summary: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sales (sale_id, completed_at, original_order_id, user_id, customer_name,
			customer_email, items, summary, status, completed_by, delivery_method,
			payment_method, admin_notes, original_order_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		sale.SaleID, sale.CompletedAt, sale.OriginalOrderID, nullString(sale.UserID),
		nullString(sale.CustomerName), nullString(sale.CustomerEmail), items, summary,
		sale.Status, sale.CompletedBy, nullString(sale.DeliveryMethod),
		nullString(sale.PaymentMethod), nullString(sale.AdminNotes),
		nullTimeValue(sale.OriginalOrderDate),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sale: %w", err)
	}
	return nil
}

func (s *SaleStore) Cancel(ctx context.Context, saleID string, at time.Time, cancelledBy, reason, adminNotes string, stockRestored bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sales
		SET status = $2, cancelled_at = $3, cancelled_by = $4,
			cancellation_reason = $5, admin_notes = COALESCE($6, admin_notes),
			stock_restored = $7
		WHERE sale_id = $1 AND status <> $2`,
		saleID, models.SaleStatusCancelled, at, cancelledBy,
		reason, nullString(adminNotes), stockRestored,
	)
	if err != nil {
		return fmt.Errorf("failed to cancel sale %s: %w", saleID, err)
	}
	return requireTransition(ctx, res, func() error {
		_, getErr := s.Get(ctx, saleID)
		return getErr
	})
}

func scanSale(row scanner) (models.Sale, error) {
	var (
		sale            models.Sale
		userID          sql.NullString
		customerName    sql.NullString
		customerEmail   sql.NullString
		items           []byte
		summary         []byte
		deliveryMethod  sql.NullString
		paymentMethod   sql.NullString
		adminNotes      sql.NullString
		origOrderDate   sql.NullTime
		cancelledAt     sql.NullTime
		cancelledBy     sql.NullString
		cancellationRsn sql.NullString
	)
	err := row.Scan(
		&sale.SaleID, &sale.CompletedAt, &sale.OriginalOrderID, &userID, &customerName,
		&customerEmail, &items, &summary, &sale.Status, &sale.CompletedBy,
		&deliveryMethod, &paymentMethod, &adminNotes, &origOrderDate,
		&cancelledAt, &cancelledBy, &cancellationRsn, &sale.StockRestored,
	)
	if err == sql.ErrNoRows {
		return models.Sale{}, store.ErrNotFound
	}
	if err != nil {
		return models.Sale{}, fmt.Errorf("failed to scan sale row: %w", err)
	}

	if err := json.Unmarshal(items, &sale.Items); err != nil {
		return models.Sale{}, fmt.Errorf("failed to unmarshal sale items: %w", err)
	}
	if err := json.Unmarshal(summary, &sale.Summary); err != nil {
		return models.Sale{}, fmt.Errorf("failed to unmarshal sale summary: %w", err)
	}

	sale.UserID = userID.String
	sale.CustomerName = customerName.String
	sale.CustomerEmail = customerEmail.String
	sale.DeliveryMethod = deliveryMethod.String
	sale.PaymentMethod = paymentMethod.String
	sale.AdminNotes = adminNotes.String
	sale.CancelledBy = cancelledBy.String
	sale.CancellationReason = cancellationRsn.String
	if origOrderDate.Valid {
		sale.OriginalOrderDate = origOrderDate.Time
	}
	if cancelledAt.Valid {
		sale.CancelledAt = &cancelledAt.Time
	}
	return sale, nil
}

func nullTimeValue(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: t, Valid: true}
}
