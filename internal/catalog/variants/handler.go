package variants

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kamrul-pu/product-catalog/internal/catalog/shared"
	internalShared "github.com/kamrul-pu/product-catalog/internal/shared"
	"github.com/kamrul-pu/product-catalog/internal/view"
)

// Handler wires the variant dimension CRUD pages.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *internalShared.CSRFManager
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *internalShared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
}

// MountRoutes registers variant routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/new", h.ShowForm)
	r.Post("/", h.Create)
	r.Get("/{id}/edit", h.ShowEditForm)
	r.Post("/{id}/edit", h.Update)
	r.Post("/{id}/delete", h.Delete)
}

// List renders the variant table.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	items, total, err := h.service.List(r.Context(), page, shared.DefaultLimit)
	if err != nil {
		h.logger.Error("list variants failed", "error", err)
		http.Error(w, "Failed to load variants", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/variants/list.html", map[string]any{
		"Variants":   items,
		"Pagination": internalShared.NewPagination(page, shared.DefaultLimit, total),
	}, http.StatusOK)
}

// ShowForm renders an empty variant form.
func (h *Handler) ShowForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/variants/form.html", map[string]any{
		"Variant": nil,
		"Form":    VariantForm{Active: true},
		"Errors":  shared.FieldErrors{},
	}, http.StatusOK)
}

// Create validates and persists a new variant.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	form := parseVariantForm(r)
	variant, fieldErrs, err := h.service.Create(r.Context(), form)
	if err != nil {
		h.logger.Error("create variant failed", "error", err)
		http.Error(w, "Failed to create variant", http.StatusInternalServerError)
		return
	}
	if fieldErrs.HasErrors() {
		h.render(w, r, "pages/variants/form.html", map[string]any{
			"Variant": nil,
			"Form":    form,
			"Errors":  fieldErrs,
		}, http.StatusBadRequest)
		return
	}

	h.logger.Info("variant created", "id", variant.ID, "title", variant.Title)
	h.redirectWithFlash(w, r, "/variants", "success", "Variant created successfully")
}

// ShowEditForm renders the pre-filled variant form.
func (h *Handler) ShowEditForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid variant ID", http.StatusBadRequest)
		return
	}

	variant, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get variant failed", "error", err, "id", id)
		http.Error(w, "Variant not found", http.StatusNotFound)
		return
	}

	h.render(w, r, "pages/variants/form.html", map[string]any{
		"Variant": variant,
		"Form": VariantForm{
			Title:       variant.Title,
			Description: variant.Description,
			Active:      variant.Active,
		},
		"Errors": shared.FieldErrors{},
	}, http.StatusOK)
}

// Update validates and persists variant changes.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid variant ID", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	form := parseVariantForm(r)
	fieldErrs, err := h.service.Update(r.Context(), id, form)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "Variant not found", http.StatusNotFound)
			return
		}
		h.logger.Error("update variant failed", "error", err, "id", id)
		http.Error(w, "Failed to update variant", http.StatusInternalServerError)
		return
	}
	if fieldErrs.HasErrors() {
		h.render(w, r, "pages/variants/form.html", map[string]any{
			"Variant": &Variant{ID: id},
			"Form":    form,
			"Errors":  fieldErrs,
		}, http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, "/variants", "success", "Variant updated successfully")
}

// Delete removes a variant not referenced by any product.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid variant ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			http.Error(w, "Variant not found", http.StatusNotFound)
		case errors.Is(err, ErrInUse):
			h.redirectWithFlash(w, r, "/variants", "error", "Variant is still used by products")
		default:
			h.logger.Error("delete variant failed", "error", err, "id", id)
			http.Error(w, "Failed to delete variant", http.StatusInternalServerError)
		}
		return
	}

	h.redirectWithFlash(w, r, "/variants", "success", "Variant deleted")
}

func parseVariantForm(r *http.Request) VariantForm {
	return VariantForm{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
		Active:      r.PostFormValue("active") == "on" || r.PostFormValue("active") == "true",
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, tmpl string, data map[string]any, status int) {
	sess := internalShared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)

	var flash *internalShared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}

	viewData := view.TemplateData{
		Title:       "Variants",
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
