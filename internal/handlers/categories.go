package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/qrcs/qrcs/internal/services"
	"github.com/qrcs/qrcs/pkg/response"
)

// CategoryHandler exposes the incident category catalogue.
type CategoryHandler struct {
	categories *services.CategoryService
}

// NewCategoryHandler constructs a CategoryHandler.
func NewCategoryHandler(db *gorm.DB) (*CategoryHandler, error) {
	categories, err := services.NewCategoryService(db)
	if err != nil {
		return nil, err
	}
	return &CategoryHandler{categories: categories}, nil
}

type categoryRequest struct {
	Name          string `json:"name" validate:"omitempty,max=100"`
	Description   string `json:"description" validate:"omitempty,max=500"`
	PriorityLevel int    `json:"priority_level" validate:"omitempty,min=1,max=5"`
	Icon          string `json:"icon" validate:"omitempty,max=50"`
}

// List returns every category.
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.categories.List(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, categories)
}

// Create adds a category.
func (h *CategoryHandler) Create(c *gin.Context) {
	var req categoryRequest
	if !bindAndValidate(c, &req) {
		return
	}

	category, err := h.categories.Create(requestContext(c), currentUserID(c), services.CategoryInput{
		Name:          req.Name,
		Description:   req.Description,
		PriorityLevel: req.PriorityLevel,
		Icon:          req.Icon,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, category)
}

// Update modifies a category.
func (h *CategoryHandler) Update(c *gin.Context) {
	var req categoryRequest
	if !bindAndValidate(c, &req) {
		return
	}

	category, err := h.categories.Update(requestContext(c), currentUserID(c), strings.TrimSpace(c.Param("id")), services.CategoryInput{
		Name:          req.Name,
		Description:   req.Description,
		PriorityLevel: req.PriorityLevel,
		Icon:          req.Icon,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, category)
}

// Delete removes an unreferenced category.
func (h *CategoryHandler) Delete(c *gin.Context) {
	if err := h.categories.Delete(requestContext(c), currentUserID(c), strings.TrimSpace(c.Param("id"))); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
