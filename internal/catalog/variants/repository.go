package variants

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates a missing variant row.
var ErrNotFound = errors.New("variant not found")

// ErrInUse indicates a variant still referenced by product variants.
var ErrInUse = errors.New("variant is referenced by products")

// Repository persists variant dimensions.
type Repository interface {
	List(ctx context.Context, limit, offset int) ([]Variant, int, error)
	ListActive(ctx context.Context) ([]Option, error)
	Get(ctx context.Context, id int64) (*Variant, error)
	Insert(ctx context.Context, variant Variant) (int64, error)
	Update(ctx context.Context, id int64, variant Variant) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a Repository backed by PostgreSQL.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) List(ctx context.Context, limit, offset int) ([]Variant, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM variants").Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx,
		"SELECT id, title, description, active FROM variants ORDER BY title LIMIT $1 OFFSET $2",
		limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Variant
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ID, &v.Title, &v.Description, &v.Active); err != nil {
			return nil, 0, err
		}
		items = append(items, v)
	}
	return items, total, rows.Err()
}

func (r *repository) ListActive(ctx context.Context) ([]Option, error) {
	rows, err := r.db.Query(ctx,
		"SELECT id, title FROM variants WHERE active ORDER BY title",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []Option
	for rows.Next() {
		var o Option
		if err := rows.Scan(&o.ID, &o.Title); err != nil {
			return nil, err
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (*Variant, error) {
	var v Variant
	err := r.db.QueryRow(ctx,
		"SELECT id, title, description, active FROM variants WHERE id = $1", id,
	).Scan(&v.ID, &v.Title, &v.Description, &v.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *repository) Insert(ctx context.Context, variant Variant) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		"INSERT INTO variants (title, description, active) VALUES ($1, $2, $3) RETURNING id",
		variant.Title, variant.Description, variant.Active,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, variant Variant) error {
	tag, err := r.db.Exec(ctx,
		"UPDATE variants SET title = $1, description = $2, active = $3 WHERE id = $4",
		variant.Title, variant.Description, variant.Active, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM variants WHERE id = $1", id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrInUse
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
