package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gitlab.connectwisedev.com/sportshop-backend/models"
	"gitlab.connectwisedev.com/sportshop-backend/store"
)

// CartStore implements store.CartStore on PostgreSQL. Cart lines are keyed
// by (user_id, product_id) so Put can be a plain upsert.
type CartStore struct {
	db *sql.DB
}

func NewCartStore(db *sql.DB) *CartStore {
	return &CartStore{db: db}
}

const cartColumns = `user_id, product_id, quantity, product_name, product_price,
	product_category, product_image_url, added_at, updated_at`

func (s *CartStore) Get(ctx context.Context, userID, productID string) (models.CartItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+cartColumns+` FROM cart_items WHERE user_id = $1 AND product_id = $2`,
		userID, productID)
	return scanCartItem(row)
}

func (s *CartStore) ListByUser(ctx context.Context, userID string) ([]models.CartItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+cartColumns+` FROM cart_items WHERE user_id = $1 ORDER BY added_at ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart for user %s: %w", userID, err)
	}
	defer rows.Close()
	return collectCartItems(rows)
}

func (s *CartStore) ListByProduct(ctx context.Context, productID string) ([]models.CartItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+cartColumns+` FROM cart_items WHERE product_id = $1`,
		productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart lines for product %s: %w", productID, err)
	}
	defer rows.Close()
	return collectCartItems(rows)
}

func (s *CartStore) Put(ctx context.Context, item models.CartItem) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cart_items (`+cartColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (user_id, product_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			product_name = EXCLUDED.product_name,
			product_price = EXCLUDED.product_price,
			product_category = EXCLUDED.product_category,
			product_image_url = EXCLUDED.product_image_url,
			updated_at = EXCLUDED.updated_at`,
		item.UserID, item.ProductID, item.Quantity, item.ProductName, item.ProductPrice,
		item.ProductCategory, nullString(item.ProductImageURL), item.AddedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}
	return nil
}

func (s *CartStore) UpdateQuantity(ctx context.Context, userID, productID string, quantity int, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE cart_items SET quantity = $3, updated_at = $4
		WHERE user_id = $1 AND product_id = $2`,
		userID, productID, quantity, at)
	if err != nil {
		return fmt.Errorf("failed to update cart quantity: %w", err)
	}
	return requireRow(res)
}

func (s *CartStore) Delete(ctx context.Context, userID, productID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`,
		userID, productID)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	return requireRow(res)
}

func scanCartItem(row scanner) (models.CartItem, error) {
	var (
		item     models.CartItem
		imageURL sql.NullString
	)
	err := row.Scan(
		&item.UserID, &item.ProductID, &item.Quantity, &item.ProductName, &item.ProductPrice,
		&item.ProductCategory, &imageURL, &item.AddedAt, &item.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return models.CartItem{}, store.ErrNotFound
	}
	if err != nil {
		return models.CartItem{}, fmt.Errorf("failed to scan cart item row: %w", err)
	}
	item.ProductImageURL = imageURL.String
	return item, nil
}

func collectCartItems(rows *sql.Rows) ([]models.CartItem, error) {
	var items []models.CartItem
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
