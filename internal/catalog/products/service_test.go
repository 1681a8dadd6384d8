package products

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	nextID     int64
	products   map[int64]Product
	variants   map[int64]struct{}
	rows       []ProductVariant
	prices     []ProductVariantPrice
	images     []ProductImage
	duplicates map[string]struct{}
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		products:   make(map[int64]Product),
		variants:   make(map[int64]struct{}),
		duplicates: make(map[string]struct{}),
	}
}

func (m *memoryRepo) addVariantDimension(id int64) { m.variants[id] = struct{}{} }

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *memoryRepo) matches(p Product, filter ListFilter) bool {
	if filter.Title != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(filter.Title)) {
		return false
	}
	if filter.VariantID != nil {
		found := false
		for _, row := range m.rows {
			if row.ProductID == p.ID && row.VariantID == *filter.VariantID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.HasPriceRange() {
		found := false
		for _, price := range m.prices {
			if price.ProductID == p.ID && price.Price >= *filter.PriceFrom && price.Price <= *filter.PriceTo {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.Date != nil && !p.CreatedAt.Truncate(24*time.Hour).Equal(filter.Date.Truncate(24*time.Hour)) {
		return false
	}
	return true
}

func (m *memoryRepo) filtered(filter ListFilter) []Product {
	var out []Product
	for _, p := range m.products {
		if m.matches(p, filter) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *memoryRepo) Count(_ context.Context, filter ListFilter) (int, error) {
	return len(m.filtered(filter)), nil
}

func (m *memoryRepo) List(_ context.Context, filter ListFilter, limit, offset int) ([]Product, error) {
	items := m.filtered(filter)
	if offset >= len(items) {
		return nil, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end], nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (*Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *memoryRepo) Insert(_ context.Context, product Product) (int64, error) {
	if _, ok := m.duplicates[product.SKU]; ok {
		return 0, ErrDuplicateSKU
	}
	m.duplicates[product.SKU] = struct{}{}
	m.nextID++
	product.ID = m.nextID
	product.CreatedAt = time.Now()
	m.products[product.ID] = product
	return product.ID, nil
}

func (m *memoryRepo) Update(_ context.Context, id int64, product Product) error {
	existing, ok := m.products[id]
	if !ok {
		return ErrNotFound
	}
	if product.SKU != existing.SKU {
		if _, dup := m.duplicates[product.SKU]; dup {
			return ErrDuplicateSKU
		}
		delete(m.duplicates, existing.SKU)
		m.duplicates[product.SKU] = struct{}{}
	}
	existing.Title = product.Title
	existing.SKU = product.SKU
	existing.Description = product.Description
	m.products[id] = existing
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	existing, ok := m.products[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.duplicates, existing.SKU)
	delete(m.products, id)
	return nil
}

func (m *memoryRepo) VariantIDsExist(_ context.Context, ids []int64) (bool, error) {
	for _, id := range ids {
		if _, ok := m.variants[id]; !ok {
			return false, nil
		}
	}
	return true, nil
}

func (m *memoryRepo) InsertVariants(_ context.Context, rows []ProductVariant) error {
	for _, row := range rows {
		m.nextID++
		row.ID = m.nextID
		m.rows = append(m.rows, row)
	}
	return nil
}

func (m *memoryRepo) VariantsFor(_ context.Context, productIDs []int64) (map[int64][]ProductVariant, error) {
	result := make(map[int64][]ProductVariant)
	for _, row := range m.rows {
		for _, id := range productIDs {
			if row.ProductID == id {
				result[id] = append(result[id], row)
			}
		}
	}
	return result, nil
}

func (m *memoryRepo) InsertPrice(_ context.Context, price ProductVariantPrice) (int64, error) {
	m.nextID++
	price.ID = m.nextID
	m.prices = append(m.prices, price)
	return price.ID, nil
}

func (m *memoryRepo) UpdatePrice(_ context.Context, id int64, price float64, stock int) error {
	for i := range m.prices {
		if m.prices[i].ID == id {
			m.prices[i].Price = price
			m.prices[i].Stock = stock
			return nil
		}
	}
	return ErrNotFound
}

func (m *memoryRepo) PricesFor(_ context.Context, productIDs []int64) (map[int64][]ProductVariantPrice, error) {
	result := make(map[int64][]ProductVariantPrice)
	for _, price := range m.prices {
		for _, id := range productIDs {
			if price.ProductID == id {
				result[id] = append(result[id], price)
			}
		}
	}
	return result, nil
}

func (m *memoryRepo) InsertImage(_ context.Context, image ProductImage) (int64, error) {
	m.nextID++
	image.ID = m.nextID
	m.images = append(m.images, image)
	return image.ID, nil
}

func (m *memoryRepo) ImagesFor(_ context.Context, productID int64) ([]ProductImage, error) {
	var out []ProductImage
	for _, img := range m.images {
		if img.ProductID == productID {
			out = append(out, img)
		}
	}
	return out, nil
}

func TestCreateInsertsVariantRowsTransactionally(t *testing.T) {
	repo := newMemoryRepo()
	repo.addVariantDimension(1)
	repo.addVariantDimension(2)
	svc := NewService(repo, 5)

	input := CreateProductInput{
		Form: ProductForm{Title: "Classic Tee", SKU: "TEE-1", Description: "Crew neck"},
		Selections: []VariantSelection{
			{Tags: "S,M,L", Option: 1},
			{Tags: "Black,White", Option: 2},
		},
		SeedPrice: &PriceForm{Price: 19.99, Stock: 10},
	}

	product, fieldErrs, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
	require.False(t, fieldErrs.HasErrors())
	require.NotNil(t, product)
	require.NotZero(t, product.ID)

	require.Len(t, repo.rows, len(input.Selections))
	for _, row := range repo.rows {
		require.Equal(t, product.ID, row.ProductID)
	}
	require.Len(t, repo.prices, 1)
	require.Equal(t, product.ID, repo.prices[0].ProductID)
}

func TestCreateValidatesBeforePersisting(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, 5)

	_, fieldErrs, err := svc.Create(context.Background(), CreateProductInput{
		Form: ProductForm{Title: "", SKU: ""},
	})
	require.NoError(t, err)
	require.True(t, fieldErrs.HasErrors())
	require.Contains(t, fieldErrs, "title")
	require.Contains(t, fieldErrs, "sku")
	require.Empty(t, repo.products)
}

func TestCreateRejectsUnknownVariantReference(t *testing.T) {
	repo := newMemoryRepo()
	repo.addVariantDimension(1)
	svc := NewService(repo, 5)

	_, _, err := svc.Create(context.Background(), CreateProductInput{
		Form:       ProductForm{Title: "Tee", SKU: "TEE-2"},
		Selections: []VariantSelection{{Tags: "S", Option: 99}},
	})
	require.ErrorIs(t, err, ErrVariantRefMissing)
	require.Empty(t, repo.products)
	require.Empty(t, repo.rows)
}

func TestCreateDuplicateSKUBecomesFieldError(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, 5)

	_, _, err := svc.Create(context.Background(), CreateProductInput{
		Form: ProductForm{Title: "First", SKU: "DUP-1"},
	})
	require.NoError(t, err)

	product, fieldErrs, err := svc.Create(context.Background(), CreateProductInput{
		Form: ProductForm{Title: "Second", SKU: "DUP-1"},
	})
	require.NoError(t, err)
	require.Nil(t, product)
	require.Contains(t, fieldErrs, "sku")
}

func TestListClampsPageToLastPage(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, 5)
	for i := 0; i < 12; i++ {
		_, _, err := svc.Create(context.Background(), CreateProductInput{
			Form: ProductForm{Title: "Item", SKU: "SKU-" + string(rune('A'+i))},
		})
		require.NoError(t, err)
	}

	result, err := svc.List(context.Background(), ListFilter{Page: 99})
	require.NoError(t, err)
	require.Equal(t, 3, result.Pagination.Page)
	require.Equal(t, 3, result.Pagination.TotalPages)
	require.Len(t, result.Products, 2)
}

func TestListLoadsChildren(t *testing.T) {
	repo := newMemoryRepo()
	repo.addVariantDimension(1)
	svc := NewService(repo, 5)

	product, _, err := svc.Create(context.Background(), CreateProductInput{
		Form:       ProductForm{Title: "Tee", SKU: "TEE-3"},
		Selections: []VariantSelection{{Tags: "S", Option: 1}},
		SeedPrice:  &PriceForm{Price: 12, Stock: 3},
	})
	require.NoError(t, err)

	result, err := svc.List(context.Background(), ListFilter{Page: 1})
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	require.Equal(t, product.ID, result.Products[0].ID)
	require.Len(t, result.Products[0].Variants, 1)
	require.Len(t, result.Products[0].Prices, 1)
}

func TestListFiltersByTitle(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, 5)
	for _, title := range []string{"Wool Scarf", "Denim Jacket", "Wool Socks"} {
		_, _, err := svc.Create(context.Background(), CreateProductInput{
			Form: ProductForm{Title: title, SKU: "SKU-" + title},
		})
		require.NoError(t, err)
	}

	result, err := svc.List(context.Background(), ListFilter{Title: "wool", Page: 1})
	require.NoError(t, err)
	require.Len(t, result.Products, 2)
	require.Equal(t, 2, result.Pagination.Total)
}

func TestListFiltersByCreationDay(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, 5)

	older, _, err := svc.Create(context.Background(), CreateProductInput{
		Form: ProductForm{Title: "Older", SKU: "OLD-1"},
	})
	require.NoError(t, err)
	wanted, _, err := svc.Create(context.Background(), CreateProductInput{
		Form: ProductForm{Title: "Wanted", SKU: "NEW-1"},
	})
	require.NoError(t, err)

	// The filter matches the calendar day, not the exact timestamp.
	setCreatedAt(repo, older.ID, time.Date(2026, 8, 29, 23, 59, 0, 0, time.UTC))
	setCreatedAt(repo, wanted.ID, time.Date(2026, 8, 30, 15, 4, 5, 0, time.UTC))

	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	result, err := svc.List(context.Background(), ListFilter{Date: &day, Page: 1})
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	require.Equal(t, "Wanted", result.Products[0].Title)
}

func setCreatedAt(repo *memoryRepo, id int64, at time.Time) {
	p := repo.products[id]
	p.CreatedAt = at
	repo.products[id] = p
}

func TestUpdateInvalidPriceWritesNothing(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, 5)

	product, _, err := svc.Create(context.Background(), CreateProductInput{
		Form:      ProductForm{Title: "Belt", SKU: "BLT-1"},
		SeedPrice: &PriceForm{Price: 20, Stock: 5},
	})
	require.NoError(t, err)
	priceID := repo.prices[0].ID

	formErrs, err := svc.Update(context.Background(), product.ID, UpdateProductInput{
		Form:   ProductForm{Title: "Renamed Belt", SKU: "BLT-1"},
		Prices: []PriceForm{{ID: priceID, Price: -3, Stock: 5}},
	})
	require.NoError(t, err)
	require.True(t, formErrs.HasErrors())
	require.Contains(t, formErrs.Prices[priceID], "price")

	// Nothing may be written when any form fails.
	require.Equal(t, "Belt", repo.products[product.ID].Title)
	require.Equal(t, 20.0, repo.prices[0].Price)
}

func TestUpdateRejectsForeignPriceRow(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, 5)

	first, _, err := svc.Create(context.Background(), CreateProductInput{
		Form:      ProductForm{Title: "First", SKU: "A-1"},
		SeedPrice: &PriceForm{Price: 10, Stock: 1},
	})
	require.NoError(t, err)
	_, _, err = svc.Create(context.Background(), CreateProductInput{
		Form:      ProductForm{Title: "Second", SKU: "B-1"},
		SeedPrice: &PriceForm{Price: 15, Stock: 2},
	})
	require.NoError(t, err)
	foreignPriceID := repo.prices[1].ID

	_, err = svc.Update(context.Background(), first.ID, UpdateProductInput{
		Form:   ProductForm{Title: "First", SKU: "A-1"},
		Prices: []PriceForm{{ID: foreignPriceID, Price: 1, Stock: 1}},
	})
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 15.0, repo.prices[1].Price)
}

func TestUpdateAppliesAllRows(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, 5)

	product, _, err := svc.Create(context.Background(), CreateProductInput{
		Form:      ProductForm{Title: "Jacket", SKU: "JKT-1"},
		SeedPrice: &PriceForm{Price: 80, Stock: 4},
	})
	require.NoError(t, err)
	priceID := repo.prices[0].ID

	formErrs, err := svc.Update(context.Background(), product.ID, UpdateProductInput{
		Form:   ProductForm{Title: "Denim Jacket", SKU: "JKT-1", Description: "Mid-weight"},
		Prices: []PriceForm{{ID: priceID, Price: 75.5, Stock: 9}},
	})
	require.NoError(t, err)
	require.False(t, formErrs.HasErrors())

	require.Equal(t, "Denim Jacket", repo.products[product.ID].Title)
	require.Equal(t, 75.5, repo.prices[0].Price)
	require.Equal(t, 9, repo.prices[0].Stock)
}

func TestAddImageUnknownProduct(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, 5)

	_, err := svc.AddImage(context.Background(), 42, "uploads/x.png")
	require.ErrorIs(t, err, ErrNotFound)
	require.Empty(t, repo.images)
}

func TestDeleteRemovesProduct(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, 5)

	product, _, err := svc.Create(context.Background(), CreateProductInput{
		Form: ProductForm{Title: "Scarf", SKU: "SCF-1"},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), product.ID))
	require.ErrorIs(t, svc.Delete(context.Background(), product.ID), ErrNotFound)
}
