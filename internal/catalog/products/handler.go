package products

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kamrul-pu/product-catalog/internal/catalog/shared"
	"github.com/kamrul-pu/product-catalog/internal/catalog/variants"
	"github.com/kamrul-pu/product-catalog/internal/platform/httpx"
	internalShared "github.com/kamrul-pu/product-catalog/internal/shared"
	"github.com/kamrul-pu/product-catalog/internal/view"
)

// Handler wires the product HTTP flows: create, list, update, images.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	variants  *variants.Service
	templates *view.Engine
	csrf      *internalShared.CSRFManager
	uploadDir string
}

// NewHandler constructs a Handler instance.
func NewHandler(
	logger *slog.Logger,
	service *Service,
	variantService *variants.Service,
	templates *view.Engine,
	csrf *internalShared.CSRFManager,
	uploadDir string,
) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		variants:  variantService,
		templates: templates,
		csrf:      csrf,
		uploadDir: uploadDir,
	}
}

// MountRoutes registers product routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/new", h.ShowCreateForm)
	r.Post("/", h.Create)
	r.Get("/{id}/edit", h.ShowUpdateForm)
	r.Post("/{id}/edit", h.Update)
	r.Post("/{id}/images", h.UploadImage)
	r.Post("/{id}/delete", h.Delete)
}

// List renders the filtered, paginated product listing.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ParseListFilter(r.URL.Query())

	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list products failed", "error", err)
		http.Error(w, "Failed to load products", http.StatusInternalServerError)
		return
	}

	options, err := h.variants.ActiveOptions(r.Context())
	if err != nil {
		h.logger.Error("load variant options failed", "error", err)
		options = nil
	}

	h.render(w, r, "pages/products/list.html", map[string]any{
		"Products":   result.Products,
		"Pagination": result.Pagination,
		"Variants":   options,
		"Filters":    filter,
	}, http.StatusOK)
}

// ShowCreateForm renders the create form with active variant options.
func (h *Handler) ShowCreateForm(w http.ResponseWriter, r *http.Request) {
	options, err := h.variants.ActiveOptions(r.Context())
	if err != nil {
		h.logger.Error("load variant options failed", "error", err)
		http.Error(w, "Failed to load variant options", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/products/create.html", map[string]any{
		"Variants": options,
		"Errors":   shared.FieldErrors{},
	}, http.StatusOK)
}

// Create handles the product create POST. The variant selections arrive as a
// JSON-encoded array in the product_variants form field; a malformed array
// fails the whole request before anything is persisted.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unable to parse form")
		return
	}

	input := CreateProductInput{
		Form: ProductForm{
			Title:       r.PostFormValue("product_name"),
			SKU:         r.PostFormValue("product_sku"),
			Description: r.PostFormValue("description"),
		},
	}

	if raw := r.PostFormValue("product_variants"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &input.Selections); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Malformed Input", "product_variants must be a JSON array of {tags, option} pairs")
			return
		}
	}

	if seed, fieldErrs := parseSeedPrice(r); fieldErrs.HasErrors() {
		httpx.JSON(w, http.StatusBadRequest, map[string]any{"success": false, "errors": fieldErrs})
		return
	} else if seed != nil {
		input.SeedPrice = seed
	}

	product, fieldErrs, err := h.service.Create(r.Context(), input)
	if err != nil {
		if errors.Is(err, ErrVariantRefMissing) {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Reference", "one or more variant options do not exist")
			return
		}
		h.logger.Error("create product failed", "error", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if fieldErrs.HasErrors() {
		httpx.JSON(w, http.StatusBadRequest, map[string]any{"success": false, "errors": fieldErrs})
		return
	}

	h.logger.Info("product created", "id", product.ID, "sku", product.SKU)
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}

// ShowUpdateForm renders the pre-filled product form plus one price form per
// existing price row.
func (h *Handler) ShowUpdateForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	detail, err := h.service.GetDetail(r.Context(), id)
	if err != nil {
		h.logger.Error("get product failed", "error", err, "id", id)
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	images, err := h.service.Images(r.Context(), id)
	if err != nil {
		h.logger.Error("load product images failed", "error", err, "id", id)
		images = nil
	}

	h.render(w, r, "pages/products/update.html", map[string]any{
		"Product":     detail,
		"Images":      images,
		"Errors":      shared.FieldErrors{},
		"PriceErrors": map[int64]shared.FieldErrors{},
	}, http.StatusOK)
}

// Update re-validates the product form and every price form. All forms must
// pass before any write; a single failure re-renders the full form set with
// errors and persists nothing.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	detail, err := h.service.GetDetail(r.Context(), id)
	if err != nil {
		h.logger.Error("get product failed", "error", err, "id", id)
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	input := UpdateProductInput{
		Form: ProductForm{
			Title:       r.PostFormValue("title"),
			SKU:         r.PostFormValue("sku"),
			Description: r.PostFormValue("description"),
		},
	}

	parseErrs := UpdateFormErrors{Product: shared.FieldErrors{}, Prices: map[int64]shared.FieldErrors{}}
	for _, row := range detail.Prices {
		form := PriceForm{ID: row.ID}
		fe := shared.FieldErrors{}

		priceRaw := r.PostFormValue("price_" + strconv.FormatInt(row.ID, 10))
		if price, err := strconv.ParseFloat(priceRaw, 64); err != nil {
			fe.Add("price", "price must be a number")
		} else {
			form.Price = price
		}

		stockRaw := r.PostFormValue("stock_" + strconv.FormatInt(row.ID, 10))
		if stock, err := strconv.Atoi(stockRaw); err != nil {
			fe.Add("stock", "stock must be an integer")
		} else {
			form.Stock = stock
		}

		parseErrs.Prices[row.ID] = fe
		input.Prices = append(input.Prices, form)
	}

	if parseErrs.HasErrors() {
		h.renderUpdateErrors(w, r, detail, input, parseErrs)
		return
	}

	formErrs, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "Product not found", http.StatusNotFound)
			return
		}
		h.logger.Error("update product failed", "error", err, "id", id)
		http.Error(w, "Failed to update product", http.StatusInternalServerError)
		return
	}
	if formErrs.HasErrors() {
		h.renderUpdateErrors(w, r, detail, input, formErrs)
		return
	}

	h.redirectWithFlash(w, r, "/products", "success", "Product updated successfully")
}

// UploadImage stores an uploaded file and records a product image row.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "Image file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	filePath, err := h.storeUpload(file, header.Filename)
	if err != nil {
		h.logger.Error("store upload failed", "error", err, "id", id)
		http.Error(w, "Failed to store image", http.StatusInternalServerError)
		return
	}

	if _, err := h.service.AddImage(r.Context(), id, filePath); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "Product not found", http.StatusNotFound)
			return
		}
		h.logger.Error("record image failed", "error", err, "id", id)
		http.Error(w, "Failed to record image", http.StatusInternalServerError)
		return
	}

	h.redirectWithFlash(w, r, "/products/"+strconv.FormatInt(id, 10)+"/edit", "success", "Image uploaded")
}

// Delete removes a product and its cascading child rows.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "Product not found", http.StatusNotFound)
			return
		}
		h.logger.Error("delete product failed", "error", err, "id", id)
		http.Error(w, "Failed to delete product", http.StatusInternalServerError)
		return
	}

	h.redirectWithFlash(w, r, "/products", "success", "Product deleted")
}

func (h *Handler) renderUpdateErrors(w http.ResponseWriter, r *http.Request, detail *ProductDetail, input UpdateProductInput, formErrs UpdateFormErrors) {
	// Re-render with the submitted values bound to the original rows.
	submitted := *detail
	submitted.Title = input.Form.Title
	submitted.SKU = input.Form.SKU
	submitted.Description = input.Form.Description

	h.render(w, r, "pages/products/update.html", map[string]any{
		"Product":     &submitted,
		"Errors":      formErrs.Product,
		"PriceErrors": formErrs.Prices,
	}, http.StatusBadRequest)
}

func (h *Handler) storeUpload(file io.Reader, original string) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", err
	}
	name := uuid.NewString() + filepath.Ext(original)
	path := filepath.Join(h.uploadDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", err
	}
	return path, nil
}

func parseSeedPrice(r *http.Request) (*PriceForm, shared.FieldErrors) {
	priceRaw := r.PostFormValue("price")
	stockRaw := r.PostFormValue("stock")
	if priceRaw == "" && stockRaw == "" {
		return nil, shared.FieldErrors{}
	}

	fe := shared.FieldErrors{}
	form := PriceForm{}
	if price, err := strconv.ParseFloat(priceRaw, 64); err != nil {
		fe.Add("price", "price must be a number")
	} else {
		form.Price = price
	}
	if stock, err := strconv.Atoi(stockRaw); err != nil {
		fe.Add("stock", "stock must be an integer")
	} else {
		form.Stock = stock
	}
	if fe.HasErrors() {
		return nil, fe
	}
	return &form, fe
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, tmpl string, data map[string]any, status int) {
	sess := internalShared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)

	var flash *internalShared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}

	viewData := view.TemplateData{
		Title:       "Products",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}

	w.WriteHeader(status)
	if err := h.templates.Render(w, tmpl, viewData); err != nil {
		h.logger.Error("template render failed", "error", err, "template", tmpl)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, url, flashType, message string) {
	sess := internalShared.SessionFromContext(r.Context())
	if sess != nil {
		sess.AddFlash(internalShared.FlashMessage{Kind: flashType, Message: message})
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
