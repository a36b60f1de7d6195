package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"gitlab.connectwisedev.com/sportshop-backend/models"
	"gitlab.connectwisedev.com/sportshop-backend/store"
)

// uniqueViolation is the Postgres error code for duplicate keys.
const uniqueViolation = "23505"

// ProductStore implements store.ProductStore on PostgreSQL. Images and
// reviews live in JSONB columns so the product stays a single document, as
// it does in the storefront.
type ProductStore struct {
	db *sql.DB
}

// NewProductStore returns a ProductStore backed by db.
func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

const productColumns = `id, category, name, price, stock, gender, description, image_url,
	images, reviews, average_rating, review_count, sales_count,
	last_sold, last_restocked, is_active, created_by, created_at, updated_at, version`

func (s *ProductStore) Get(ctx context.Context, id string) (models.Product, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

func (s *ProductStore) List(ctx context.Context, filter store.ProductFilter) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	args := []interface{}{}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if filter.Gender != "" {
		args = append(args, filter.Gender)
		query += fmt.Sprintf(" AND gender = $%d", len(args))
	}
	if filter.ActiveOnly {
		query += " AND is_active"
	}
	query += " ORDER BY name ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *ProductStore) Put(ctx context.Context, p models.Product) error {
	images, reviews, err := marshalEmbedded(p)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		p.ID, p.Category, p.Name, p.Price, p.Stock, p.Gender, p.Description, nullString(p.ImageURL),
		images, reviews, p.AverageRating, p.ReviewCount, p.SalesCount,
		nullTime(p.LastSold), nullTime(p.LastRestocked), p.IsActive, p.CreatedBy,
		p.CreatedAt, p.UpdatedAt, p.Version,
	)
	if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
		return store.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// Update rewrites the admin-editable columns only. Reviews and their
// aggregates are owned by the version-guarded UpdateReviews, so a
// concurrent review cannot be clobbered by a stale product edit.
func (s *ProductStore) Update(ctx context.Context, p models.Product) error {
	images, _, err := marshalEmbedded(p)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET category=$2, name=$3, price=$4, stock=$5, gender=$6,
			description=$7, image_url=$8, images=$9, is_active=$10, updated_at=$11
		WHERE id = $1`,
		p.ID, p.Category, p.Name, p.Price, p.Stock, p.Gender,
		p.Description, nullString(p.ImageURL), images, p.IsActive, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return requireRow(res)
}

func (s *ProductStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return requireRow(res)
}

// CommitStock is a single conditional UPDATE, so concurrent completions of
// the same product cannot drive stock negative.
func (s *ProductStore) CommitStock(ctx context.Context, id string, qty int, at time.Time) (int, error) {
	var newStock int
	err := s.db.QueryRowContext(ctx, `
		UPDATE products
		SET stock = stock - $2, sales_count = sales_count + $2, last_sold = $3, updated_at = $3
		WHERE id = $1 AND stock >= $2
		RETURNING stock`,
		id, qty, at,
	).Scan(&newStock)
	if err == sql.ErrNoRows {
		// Either the product is gone or the condition failed; look once to
		// tell the two apart.
		if _, getErr := s.Get(ctx, id); getErr == store.ErrNotFound {
			return 0, store.ErrNotFound
		}
		return 0, store.ErrInsufficientStock
	}
	if err != nil {
		return 0, fmt.Errorf("failed to commit stock for product %s: %w", id, err)
	}
	return newStock, nil
}

func (s *ProductStore) RestoreStock(ctx context.Context, id string, qty int, at time.Time) (models.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE products
		SET stock = stock + $2, sales_count = GREATEST(0, sales_count - $2),
			last_restocked = $3, updated_at = $3
		WHERE id = $1
		RETURNING `+productColumns,
		id, qty, at,
	)
	return scanProduct(row)
}

func (s *ProductStore) UpdateReviews(ctx context.Context, id string, version int, reviews []models.Review, averageRating float64, reviewCount int, at time.Time) error {
	reviewsJSON, err := json.Marshal(reviews)
	if err != nil {
		return fmt.Errorf("failed to marshal reviews: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET reviews=$3, average_rating=$4, review_count=$5, version=version+1, updated_at=$6
		WHERE id = $1 AND version = $2`,
		id, version, reviewsJSON, averageRating, reviewCount, at,
	)
	if err != nil {
		return fmt.Errorf("failed to update reviews for product %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, getErr := s.Get(ctx, id); getErr == store.ErrNotFound {
			return store.ErrNotFound
		}
		return store.ErrVersionConflict
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row scanner) (models.Product, error) {
	var (
		p             models.Product
		description   sql.NullString
		imageURL      sql.NullString
		imagesJSON    []byte
		reviewsJSON   []byte
		lastSold      sql.NullTime
		lastRestocked sql.NullTime
	)
	err := row.Scan(
		&p.ID, &p.Category, &p.Name, &p.Price, &p.Stock, &p.Gender, &description, &imageURL,
		&imagesJSON, &reviewsJSON, &p.AverageRating, &p.ReviewCount, &p.SalesCount,
		&lastSold, &lastRestocked, &p.IsActive, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt, &p.Version,
	)
	if err == sql.ErrNoRows {
		return models.Product{}, store.ErrNotFound
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("failed to scan product row: %w", err)
	}

	p.Description = description.String
	p.ImageURL = imageURL.String
	if lastSold.Valid {
		p.LastSold = &lastSold.Time
	}
	if lastRestocked.Valid {
		p.LastRestocked = &lastRestocked.Time
	}
	if len(imagesJSON) > 0 {
		if err := json.Unmarshal(imagesJSON, &p.Images); err != nil {
			return models.Product{}, fmt.Errorf("failed to unmarshal product images: %w", err)
		}
	}
	if len(reviewsJSON) > 0 {
		if err := json.Unmarshal(reviewsJSON, &p.Reviews); err != nil {
			return models.Product{}, fmt.Errorf("failed to unmarshal product reviews: %w", err)
		}
	}
	return p, nil
}

func marshalEmbedded(p models.Product) (images, reviews []byte, err error) {
	if p.Images == nil {
		p.Images = []models.ProductImage{}
	}
	if p.Reviews == nil {
		p.Reviews = []models.Review{}
	}
	images, err = json.Marshal(p.Images)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal product images: %w", err)
	}
	reviews, err = json.Marshal(p.Reviews)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal product reviews: %w", err)
	}
	return images, reviews, nil
}

// nullString converts a Go string to sql.NullString for nullable DB columns
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
