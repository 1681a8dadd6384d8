package products

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kamrul-pu/product-catalog/internal/platform/db"
)

var (
	// ErrNotFound indicates a missing product or price row.
	ErrNotFound = errors.New("product not found")
	// ErrDuplicateSKU indicates a unique violation on products.sku.
	ErrDuplicateSKU = errors.New("sku already exists")
	// ErrVariantRefMissing indicates a product variant referencing an
	// unknown variant dimension.
	ErrVariantRefMissing = errors.New("variant reference not found")
)

// Repository persists catalog products and their child rows.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error

	Count(ctx context.Context, filter ListFilter) (int, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]Product, error)
	Get(ctx context.Context, id int64) (*Product, error)
	Insert(ctx context.Context, product Product) (int64, error)
	Update(ctx context.Context, id int64, product Product) error
	Delete(ctx context.Context, id int64) error

	VariantIDsExist(ctx context.Context, ids []int64) (bool, error)
	InsertVariants(ctx context.Context, rows []ProductVariant) error
	VariantsFor(ctx context.Context, productIDs []int64) (map[int64][]ProductVariant, error)

	InsertPrice(ctx context.Context, price ProductVariantPrice) (int64, error)
	UpdatePrice(ctx context.Context, id int64, price float64, stock int) error
	PricesFor(ctx context.Context, productIDs []int64) (map[int64][]ProductVariantPrice, error)

	InsertImage(ctx context.Context, image ProductImage) (int64, error)
	ImagesFor(ctx context.Context, productID int64) ([]ProductImage, error)
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository backed by PostgreSQL.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) Count(ctx context.Context, filter ListFilter) (int, error) {
	clause, args := filter.whereClause()
	var total int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM products p"+clause, args...).Scan(&total)
	return total, err
}

func (r *repository) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Product, error) {
	clause, args := filter.whereClause()
	query := "SELECT p.id, p.title, p.sku, p.description, p.created_at FROM products p" + clause +
		" ORDER BY p.created_at DESC, p.id DESC" +
		" LIMIT $" + strconv.Itoa(len(args)+1) + " OFFSET $" + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Title, &p.SKU, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (*Product, error) {
	var p Product
	err := r.db.QueryRow(ctx,
		"SELECT id, title, sku, description, created_at FROM products WHERE id = $1", id,
	).Scan(&p.ID, &p.Title, &p.SKU, &p.Description, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) Insert(ctx context.Context, product Product) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		"INSERT INTO products (title, sku, description, created_at) VALUES ($1, $2, $3, NOW()) RETURNING id",
		product.Title, product.SKU, product.Description,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateSKU
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, id int64, product Product) error {
	tag, err := r.db.Exec(ctx,
		"UPDATE products SET title = $1, sku = $2, description = $3 WHERE id = $4",
		product.Title, product.SKU, product.Description, id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSKU
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) VariantIDsExist(ctx context.Context, ids []int64) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}
	var count int
	err := r.db.QueryRow(ctx,
		"SELECT COUNT(DISTINCT id) FROM variants WHERE id = ANY($1)", ids,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count == len(distinct(ids)), nil
}

func (r *repository) InsertVariants(ctx context.Context, rows []ProductVariant) error {
	for _, row := range rows {
		_, err := r.db.Exec(ctx,
			"INSERT INTO product_variants (variant_title, variant_id, product_id) VALUES ($1, $2, $3)",
			row.VariantTitle, row.VariantID, row.ProductID,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return ErrVariantRefMissing
			}
			return err
		}
	}
	return nil
}

func (r *repository) VariantsFor(ctx context.Context, productIDs []int64) (map[int64][]ProductVariant, error) {
	result := make(map[int64][]ProductVariant)
	if len(productIDs) == 0 {
		return result, nil
	}
	rows, err := r.db.Query(ctx,
		"SELECT id, variant_title, variant_id, product_id FROM product_variants WHERE product_id = ANY($1) ORDER BY id",
		productIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var pv ProductVariant
		if err := rows.Scan(&pv.ID, &pv.VariantTitle, &pv.VariantID, &pv.ProductID); err != nil {
			return nil, err
		}
		result[pv.ProductID] = append(result[pv.ProductID], pv)
	}
	return result, rows.Err()
}

func (r *repository) InsertPrice(ctx context.Context, price ProductVariantPrice) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		"INSERT INTO product_variant_prices (price, stock, product_id) VALUES ($1, $2, $3) RETURNING id",
		price.Price, price.Stock, price.ProductID,
	).Scan(&id)
	return id, err
}

func (r *repository) UpdatePrice(ctx context.Context, id int64, price float64, stock int) error {
	tag, err := r.db.Exec(ctx,
		"UPDATE product_variant_prices SET price = $1, stock = $2 WHERE id = $3",
		price, stock, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) PricesFor(ctx context.Context, productIDs []int64) (map[int64][]ProductVariantPrice, error) {
	result := make(map[int64][]ProductVariantPrice)
	if len(productIDs) == 0 {
		return result, nil
	}
	rows, err := r.db.Query(ctx,
		"SELECT id, price, stock, product_id FROM product_variant_prices WHERE product_id = ANY($1) ORDER BY id",
		productIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var pvp ProductVariantPrice
		if err := rows.Scan(&pvp.ID, &pvp.Price, &pvp.Stock, &pvp.ProductID); err != nil {
			return nil, err
		}
		result[pvp.ProductID] = append(result[pvp.ProductID], pvp)
	}
	return result, rows.Err()
}

func (r *repository) InsertImage(ctx context.Context, image ProductImage) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		"INSERT INTO product_images (product_id, file_path) VALUES ($1, $2) RETURNING id",
		image.ProductID, image.FilePath,
	).Scan(&id)
	return id, err
}

func (r *repository) ImagesFor(ctx context.Context, productID int64) ([]ProductImage, error) {
	rows, err := r.db.Query(ctx,
		"SELECT id, product_id, file_path FROM product_images WHERE product_id = $1 ORDER BY id",
		productID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []ProductImage
	for rows.Next() {
		var img ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.FilePath); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func distinct(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
