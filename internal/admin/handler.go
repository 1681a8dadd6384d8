package admin

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kamrul-pu/product-catalog/internal/shared"
	"github.com/kamrul-pu/product-catalog/internal/view"
)

const adminPageSize = 20

// Handler serves the generic entity browser.
type Handler struct {
	logger    *slog.Logger
	registry  *Registry
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, registry *Registry, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, registry: registry, templates: templates, csrf: csrf}
}

// MountRoutes registers admin routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Index)
	r.Get("/{entity}", h.List)
	r.Post("/{entity}/{id}/delete", h.Delete)
}

// Index lists the registered entities.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/admin/index.html", "Administration", map[string]any{
		"Entities": h.registry.Entities(),
	}, http.StatusOK)
}

// List renders one page of rows for an entity.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	entity, ok := h.registry.Lookup(chi.URLParam(r, "entity"))
	if !ok {
		http.Error(w, "Unknown entity", http.StatusNotFound)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	rows, total, err := entity.List(r.Context(), adminPageSize, (page-1)*adminPageSize)
	if err != nil {
		h.logger.Error("admin list failed", "error", err, "entity", entity.Slug)
		http.Error(w, "Failed to load rows", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/admin/list.html", entity.Title, map[string]any{
		"Entity":     entity,
		"Rows":       rows,
		"Pagination": shared.NewPagination(page, adminPageSize, total),
	}, http.StatusOK)
}

// Delete removes one row of an entity.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	entity, ok := h.registry.Lookup(chi.URLParam(r, "entity"))
	if !ok {
		http.Error(w, "Unknown entity", http.StatusNotFound)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid row ID", http.StatusBadRequest)
		return
	}

	if err := entity.DeleteRow(r.Context(), id); err != nil {
		h.logger.Error("admin delete failed", "error", err, "entity", entity.Slug, "id", id)
		h.redirectWithFlash(w, r, "/admin/"+entity.Slug, "error", "Row could not be deleted")
		return
	}

	h.logger.Info("admin row deleted", "entity", entity.Slug, "id", id)
	h.redirectWithFlash(w, r, "/admin/"+entity.Slug, "success", "Row deleted")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, tmpl, title string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}

	viewData := view.TemplateData{
		Title:       title,
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
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: flashType, Message: message})
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
