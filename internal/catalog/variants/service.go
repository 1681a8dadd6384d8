package variants

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/kamrul-pu/product-catalog/internal/catalog/shared"
)

// Service implements variant dimension CRUD and the cached active-option
// list consumed by the product create/list pages.
type Service struct {
	repo     Repository
	cache    *OptionCache
	logger   *slog.Logger
	validate *validator.Validate
}

// NewService constructs a Service. cache may be nil.
func NewService(repo Repository, cache *OptionCache, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger, validate: validator.New()}
}

// List returns one page of variants with the total count.
func (s *Service) List(ctx context.Context, page, limit int) ([]Variant, int, error) {
	if page < 1 {
		page = shared.DefaultPage
	}
	if limit < 1 {
		limit = shared.DefaultLimit
	}
	return s.repo.List(ctx, limit, (page-1)*limit)
}

// ActiveOptions returns the (id, title) pairs of active variants, serving
// from cache when possible.
func (s *Service) ActiveOptions(ctx context.Context) ([]Option, error) {
	if options, ok := s.cache.Get(ctx); ok {
		return options, nil
	}
	options, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active variants: %w", err)
	}
	if err := s.cache.Set(ctx, options); err != nil && s.logger != nil {
		s.logger.Warn("cache variant options failed", "error", err)
	}
	return options, nil
}

// Get returns one variant by id.
func (s *Service) Get(ctx context.Context, id int64) (*Variant, error) {
	if id <= 0 {
		return nil, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// Create validates and inserts a variant, invalidating the option cache.
func (s *Service) Create(ctx context.Context, form VariantForm) (*Variant, shared.FieldErrors, error) {
	fieldErrs := ValidateVariantForm(s.validate, form)
	if fieldErrs.HasErrors() {
		return nil, fieldErrs, nil
	}

	variant := Variant{Title: form.Title, Description: form.Description, Active: form.Active}
	id, err := s.repo.Insert(ctx, variant)
	if err != nil {
		return nil, nil, fmt.Errorf("insert variant: %w", err)
	}
	variant.ID = id

	s.invalidateOptions(ctx)
	return &variant, fieldErrs, nil
}

// Update validates and persists a variant, invalidating the option cache.
func (s *Service) Update(ctx context.Context, id int64, form VariantForm) (shared.FieldErrors, error) {
	fieldErrs := ValidateVariantForm(s.validate, form)
	if fieldErrs.HasErrors() {
		return fieldErrs, nil
	}

	err := s.repo.Update(ctx, id, Variant{
		Title:       form.Title,
		Description: form.Description,
		Active:      form.Active,
	})
	if err != nil {
		return fieldErrs, err
	}

	s.invalidateOptions(ctx)
	return fieldErrs, nil
}

// Delete removes an unused variant, invalidating the option cache.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateOptions(ctx)
	return nil
}

func (s *Service) invalidateOptions(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil && s.logger != nil {
		s.logger.Warn("invalidate variant option cache failed", "error", err)
	}
}
