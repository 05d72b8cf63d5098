package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/minwoo/facetrack/internal/domain"
	"github.com/minwoo/facetrack/internal/repository"
	"gorm.io/gorm"
)

// IdentityHandler handles identity CRUD endpoints.
type IdentityHandler struct {
	identities  *repository.IdentityRepository
	appearances *repository.AppearanceRepository
}

// NewIdentityHandler creates a new identity handler.
func NewIdentityHandler(identities *repository.IdentityRepository, appearances *repository.AppearanceRepository) *IdentityHandler {
	return &IdentityHandler{identities: identities, appearances: appearances}
}

// List handles GET /api/v1/identities.
func (h *IdentityHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	identities, err := h.identities.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list identities: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"identities": identities,
		"total":      len(identities),
	})
}

// Get handles GET /api/v1/identities/:id.
func (h *IdentityHandler) Get(c *gin.Context) {
	identity, err := h.identities.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Identity not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get identity: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, identity)
}

// updateIdentityRequest carries the mutable identity fields.
type updateIdentityRequest struct {
	Name       *string           `json:"name"`
	Role       *domain.RoleClass `json:"role"`
	DetailInfo *string           `json:"detail_info"`
}

// Update handles PATCH /api/v1/identities/:id.
func (h *IdentityHandler) Update(c *gin.Context) {
	var req updateIdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	identity, err := h.identities.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Identity not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get identity: " + err.Error(),
		})
		return
	}

	if req.Name != nil {
		identity.Name = *req.Name
	}
	if req.Role != nil {
		identity.Role = *req.Role
	}
	if req.DetailInfo != nil {
		identity.DetailInfo = *req.DetailInfo
	}

	if err := h.identities.Update(c.Request.Context(), identity); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to update identity: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, identity)
}

// Delete handles DELETE /api/v1/identities/:id.
// Administrative operation; the resolution engine itself never deletes
// identities outside failure compensation.
func (h *IdentityHandler) Delete(c *gin.Context) {
	if err := h.identities.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete identity: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Identity deleted"})
}

// RoleCounts handles GET /api/v1/identities/role-counts.
func (h *IdentityHandler) RoleCounts(c *gin.Context) {
	counts, err := h.identities.CountByRole(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to count identities: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"counts": counts})
}

// Appearances handles GET /api/v1/identities/:id/appearances.
func (h *IdentityHandler) Appearances(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	appearances, err := h.appearances.ListByIdentity(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list appearances: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"appearances": appearances,
		"total":       len(appearances),
	})
}
