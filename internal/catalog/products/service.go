package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/kamrul-pu/product-catalog/internal/catalog/shared"
	internalShared "github.com/kamrul-pu/product-catalog/internal/shared"
)

// Service implements the product flows: transactional create, filtered
// listing with eager children, and all-or-nothing update.
type Service struct {
	repo     Repository
	validate *validator.Validate
	pageSize int
}

// NewService constructs a Service. pageSize is the fixed listing page size.
func NewService(repo Repository, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = 5
	}
	return &Service{repo: repo, validate: validator.New(), pageSize: pageSize}
}

// ListResult is one page of products with pagination metadata.
type ListResult struct {
	Products   []ProductDetail
	Pagination internalShared.Pagination
}

// UpdateFormErrors groups validation failures across the product form and
// every price form. Any populated entry aborts the whole update.
type UpdateFormErrors struct {
	Product shared.FieldErrors
	Prices  map[int64]shared.FieldErrors
}

// HasErrors reports whether any form failed validation.
func (e UpdateFormErrors) HasErrors() bool {
	if e.Product.HasErrors() {
		return true
	}
	for _, fe := range e.Prices {
		if fe.HasErrors() {
			return true
		}
	}
	return false
}

// Create validates the submitted product before anything is persisted, then
// inserts the product, its variant rows and the optional seed price row in
// one transaction. A dangling variant reference aborts the whole request.
func (s *Service) Create(ctx context.Context, input CreateProductInput) (*Product, shared.FieldErrors, error) {
	fieldErrs := ValidateProductForm(s.validate, input.Form)
	if input.SeedPrice != nil {
		for field, msg := range ValidatePriceForm(s.validate, *input.SeedPrice) {
			fieldErrs.Add(field, msg)
		}
	}
	for _, sel := range input.Selections {
		if sel.Option <= 0 {
			fieldErrs.Add("product_variants", "every variant option must reference a variant")
			break
		}
	}
	if fieldErrs.HasErrors() {
		return nil, fieldErrs, nil
	}

	product := Product{
		Title:       input.Form.Title,
		SKU:         input.Form.SKU,
		Description: input.Form.Description,
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		variantIDs := make([]int64, 0, len(input.Selections))
		for _, sel := range input.Selections {
			variantIDs = append(variantIDs, sel.Option)
		}
		ok, err := repo.VariantIDsExist(ctx, variantIDs)
		if err != nil {
			return fmt.Errorf("check variant refs: %w", err)
		}
		if !ok {
			return ErrVariantRefMissing
		}

		id, err := repo.Insert(ctx, product)
		if err != nil {
			return err
		}
		product.ID = id

		rows := make([]ProductVariant, 0, len(input.Selections))
		for _, sel := range input.Selections {
			rows = append(rows, ProductVariant{
				VariantTitle: sel.Tags,
				VariantID:    sel.Option,
				ProductID:    id,
			})
		}
		if len(rows) > 0 {
			if err := repo.InsertVariants(ctx, rows); err != nil {
				return err
			}
		}

		if input.SeedPrice != nil {
			_, err := repo.InsertPrice(ctx, ProductVariantPrice{
				Price:     input.SeedPrice.Price,
				Stock:     input.SeedPrice.Stock,
				ProductID: id,
			})
			if err != nil {
				return fmt.Errorf("insert seed price: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateSKU) {
			fieldErrs.Add("sku", "a product with this sku already exists")
			return nil, fieldErrs, nil
		}
		return nil, nil, err
	}

	return &product, fieldErrs, nil
}

// List returns one page of filtered products, each with its variants and
// prices eagerly loaded. A page past the end clamps to the last page.
func (s *Service) List(ctx context.Context, filter ListFilter) (ListResult, error) {
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return ListResult{}, fmt.Errorf("count products: %w", err)
	}

	pagination := internalShared.NewPagination(filter.Page, s.pageSize, total)
	items, err := s.repo.List(ctx, filter, pagination.PerPage, pagination.Offset())
	if err != nil {
		return ListResult{}, fmt.Errorf("list products: %w", err)
	}

	details, err := s.loadChildren(ctx, items)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Products: details, Pagination: pagination}, nil
}

// GetDetail loads one product with its children for the update page.
func (s *Service) GetDetail(ctx context.Context, id int64) (*ProductDetail, error) {
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	details, err := s.loadChildren(ctx, []Product{*product})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// Update re-validates the product form and every price form against the
// submitted data. All forms must pass before any write happens; on success
// the product fields and every price row are persisted in one transaction.
func (s *Service) Update(ctx context.Context, id int64, input UpdateProductInput) (UpdateFormErrors, error) {
	formErrs := UpdateFormErrors{
		Product: ValidateProductForm(s.validate, input.Form),
		Prices:  make(map[int64]shared.FieldErrors, len(input.Prices)),
	}
	for _, price := range input.Prices {
		formErrs.Prices[price.ID] = ValidatePriceForm(s.validate, price)
	}
	if formErrs.HasErrors() {
		return formErrs, nil
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if _, err := repo.Get(ctx, id); err != nil {
			return err
		}

		owned, err := repo.PricesFor(ctx, []int64{id})
		if err != nil {
			return fmt.Errorf("load price rows: %w", err)
		}
		ownedIDs := make(map[int64]struct{}, len(owned[id]))
		for _, row := range owned[id] {
			ownedIDs[row.ID] = struct{}{}
		}
		for _, price := range input.Prices {
			if _, ok := ownedIDs[price.ID]; !ok {
				return fmt.Errorf("price row %d: %w", price.ID, ErrNotFound)
			}
		}

		if err := repo.Update(ctx, id, Product{
			Title:       input.Form.Title,
			SKU:         input.Form.SKU,
			Description: input.Form.Description,
		}); err != nil {
			return err
		}
		for _, price := range input.Prices {
			if err := repo.UpdatePrice(ctx, price.ID, price.Price, price.Stock); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateSKU) {
			formErrs.Product.Add("sku", "a product with this sku already exists")
			return formErrs, nil
		}
		return formErrs, err
	}
	return formErrs, nil
}

// Delete removes a product; child rows cascade at the database.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

// AddImage records an uploaded image file for a product.
func (s *Service) AddImage(ctx context.Context, productID int64, filePath string) (*ProductImage, error) {
	if _, err := s.repo.Get(ctx, productID); err != nil {
		return nil, err
	}
	image := ProductImage{ProductID: productID, FilePath: filePath}
	id, err := s.repo.InsertImage(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("insert image: %w", err)
	}
	image.ID = id
	return &image, nil
}

// Images lists a product's stored images.
func (s *Service) Images(ctx context.Context, productID int64) ([]ProductImage, error) {
	return s.repo.ImagesFor(ctx, productID)
}

// PageSize exposes the configured listing page size.
func (s *Service) PageSize() int { return s.pageSize }

func (s *Service) loadChildren(ctx context.Context, items []Product) ([]ProductDetail, error) {
	ids := make([]int64, 0, len(items))
	for _, p := range items {
		ids = append(ids, p.ID)
	}

	var (
		variants map[int64][]ProductVariant
		prices   map[int64][]ProductVariantPrice
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		variants, err = s.repo.VariantsFor(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		prices, err = s.repo.PricesFor(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load product children: %w", err)
	}

	details := make([]ProductDetail, 0, len(items))
	for _, p := range items {
		details = append(details, ProductDetail{
			Product:  p,
			Variants: variants[p.ID],
			Prices:   prices[p.ID],
		})
	}
	return details, nil
}
