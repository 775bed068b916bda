package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dvloznov/opsconsole/internal/api/middleware"
	"github.com/dvloznov/opsconsole/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// CategoriesHandler handles category catalog endpoints.
type CategoriesHandler struct {
	catalog CategoryCatalog
	log     zerolog.Logger
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(catalog CategoryCatalog, log zerolog.Logger) *CategoriesHandler {
	return &CategoriesHandler{
		catalog: catalog,
		log:     log,
	}
}

// ListCategories handles GET /api/categories
func (h *CategoriesHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list categories")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list categories")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	})
}

// CreateCategory handles POST /api/categories
func (h *CategoriesHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req domain.Category
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.ID = ""

	created, err := h.catalog.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, h.log, err, "Failed to create category")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, created)
}

// UpdateCategory handles PUT /api/categories/{id}
func (h *CategoriesHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var patch domain.CategoryPatch
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&patch); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.catalog.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeDomainError(w, h.log, err, "Failed to update category")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, updated)
}

// DeleteCategory handles DELETE /api/categories/{id}
func (h *CategoriesHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, h.log, err, "Failed to delete category")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
