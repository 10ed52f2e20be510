package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/mediagate/internal/api/errors"
	"github.com/bigkaa/mediagate/internal/domain/model"
	"github.com/bigkaa/mediagate/internal/repository"
)

// CategoriesHandler — обработчик endpoints категорий.
type CategoriesHandler struct {
	categories repository.CategoryRepository
	logger     *slog.Logger
}

// NewCategoriesHandler создаёт обработчик категорий.
func NewCategoriesHandler(categories repository.CategoryRepository, logger *slog.Logger) *CategoriesHandler {
	return &CategoriesHandler{
		categories: categories,
		logger:     logger.With(slog.String("component", "categories_handler")),
	}
}

// List обрабатывает GET /server/categories.
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.categories.List(r.Context())
	if err != nil {
		h.logger.Error("Ошибка получения списка категорий", slog.String("error", err.Error()))
		apierrors.InternalServerError(w, "Failed to load categories", "")
		return
	}
	if items == nil {
		items = []*model.Category{}
	}
	apierrors.WriteJSON(w, http.StatusOK, items)
}

// createCategoryRequest — тело создания категории.
type createCategoryRequest struct {
	Name string `json:"name"`
}

// Create обрабатывает POST /server/categories.
func (h *CategoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.BadRequest(w, "Malformed request body")
		return
	}
	if !model.ValidEntityName(req.Name) {
		apierrors.BadRequest(w, fmt.Sprintf("Invalid category name %q", req.Name))
		return
	}

	c, err := h.categories.Create(r.Context(), req.Name)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			apierrors.BadRequest(w, fmt.Sprintf("Category %q already exists", req.Name))
			return
		}
		h.logger.Error("Ошибка создания категории",
			slog.String("name", req.Name),
			slog.String("error", err.Error()),
		)
		apierrors.InternalServerError(w, "Failed to create category", "")
		return
	}

	apierrors.WriteJSON(w, http.StatusCreated, c)
}

// Delete обрабатывает DELETE /server/category/{categoryID}.
func (h *CategoriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "categoryID")
	if !ok {
		return
	}

	if err := h.categories.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			apierrors.NotFound(w, "Category not found")
			return
		}
		h.logger.Error("Ошибка удаления категории",
			slog.Int64("category_id", id),
			slog.String("error", err.Error()),
		)
		apierrors.InternalServerError(w, "Failed to delete category", "")
		return
	}

	apierrors.OKRequest(w, "Category deleted")
}
