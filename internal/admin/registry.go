// Package admin exposes every catalog entity for direct inspection and
// row deletion through a generic table UI.
package admin

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Entity describes one registered entity: its admin columns and how to list
// and delete rows.
type Entity struct {
	Slug    string
	Title   string
	Columns []string

	list   func(ctx context.Context, limit, offset int) ([]Row, int, error)
	delete func(ctx context.Context, id int64) error
}

// Row is one table row: the primary key plus the display column values.
type Row struct {
	ID     int64
	Values []string
}

// Registry holds the registered entities in display order.
type Registry struct {
	entities []*Entity
	bySlug   map[string]*Entity
}

// NewRegistry registers the five catalog entities with their display columns.
func NewRegistry(pool *pgxpool.Pool) *Registry {
	r := &Registry{bySlug: make(map[string]*Entity)}

	r.register(Entity{
		Slug:    "products",
		Title:   "Products",
		Columns: []string{"Title", "SKU", "Description"},
		list:    tableLister(pool, "products", "id, title, sku, description", "id DESC"),
		delete:  rowDeleter(pool, "products"),
	})
	r.register(Entity{
		Slug:    "variants",
		Title:   "Variants",
		Columns: []string{"Title", "Description", "Active"},
		list:    tableLister(pool, "variants", "id, title, description, active", "title"),
		delete:  rowDeleter(pool, "variants"),
	})
	r.register(Entity{
		Slug:    "product-variants",
		Title:   "Product Variants",
		Columns: []string{"ID", "Variant Title"},
		list:    tableLister(pool, "product_variants", "id, id, variant_title", "id DESC"),
		delete:  rowDeleter(pool, "product_variants"),
	})
	r.register(Entity{
		Slug:    "variant-prices",
		Title:   "Variant Prices",
		Columns: []string{"Price", "Stock"},
		list:    tableLister(pool, "product_variant_prices", "id, price, stock", "id DESC"),
		delete:  rowDeleter(pool, "product_variant_prices"),
	})
	r.register(Entity{
		Slug:    "product-images",
		Title:   "Product Images",
		Columns: []string{"File Path"},
		list:    tableLister(pool, "product_images", "id, file_path", "id DESC"),
		delete:  rowDeleter(pool, "product_images"),
	})

	return r
}

// Entities returns the registered entities in display order.
func (r *Registry) Entities() []*Entity { return r.entities }

// Lookup finds an entity by slug.
func (r *Registry) Lookup(slug string) (*Entity, bool) {
	e, ok := r.bySlug[slug]
	return e, ok
}

// List returns one page of rows for the entity.
func (e *Entity) List(ctx context.Context, limit, offset int) ([]Row, int, error) {
	return e.list(ctx, limit, offset)
}

// DeleteRow removes one row by primary key.
func (e *Entity) DeleteRow(ctx context.Context, id int64) error {
	return e.delete(ctx, id)
}

// register allocates the entity once so the slice and the slug index share
// one stable pointer regardless of later appends.
func (r *Registry) register(e Entity) {
	ent := &e
	r.entities = append(r.entities, ent)
	r.bySlug[ent.Slug] = ent
}

// tableLister builds a paginated lister over a table. The first selected
// column must be the primary key; the rest become display values.
func tableLister(pool *pgxpool.Pool, table, columns, order string) func(context.Context, int, int) ([]Row, int, error) {
	return func(ctx context.Context, limit, offset int) ([]Row, int, error) {
		var total int
		if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&total); err != nil {
			return nil, 0, err
		}

		query := "SELECT " + columns + " FROM " + table + " ORDER BY " + order + " LIMIT $1 OFFSET $2"
		rows, err := pool.Query(ctx, query, limit, offset)
		if err != nil {
			return nil, 0, err
		}
		defer rows.Close()

		var result []Row
		for rows.Next() {
			values, err := rows.Values()
			if err != nil {
				return nil, 0, err
			}
			row := Row{}
			for i, v := range values {
				if i == 0 {
					row.ID = toInt64(v)
					continue
				}
				row.Values = append(row.Values, fmt.Sprintf("%v", v))
			}
			result = append(result, row)
		}
		return result, total, rows.Err()
	}
}

func rowDeleter(pool *pgxpool.Pool, table string) func(context.Context, int64) error {
	return func(ctx context.Context, id int64) error {
		_, err := pool.Exec(ctx, "DELETE FROM "+table+" WHERE id = $1", id)
		return err
	}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case string:
		id, _ := strconv.ParseInt(n, 10, 64)
		return id
	default:
		return 0
	}
}
