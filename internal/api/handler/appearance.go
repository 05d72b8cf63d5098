package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/minwoo/facetrack/internal/repository"
)

// AppearanceHandler handles read access to the appearance log.
type AppearanceHandler struct {
	appearances *repository.AppearanceRepository
}

// NewAppearanceHandler creates a new appearance handler.
func NewAppearanceHandler(appearances *repository.AppearanceRepository) *AppearanceHandler {
	return &AppearanceHandler{appearances: appearances}
}

// ListByCamera handles GET /api/v1/cameras/:id/appearances.
func (h *AppearanceHandler) ListByCamera(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	appearances, err := h.appearances.ListByCamera(c.Request.Context(), c.Param("id"), limit, offset)
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

// ListByTimeRange handles GET /api/v1/appearances?start=&end= where start and
// end are RFC 3339 timestamps.
func (h *AppearanceHandler) ListByTimeRange(c *gin.Context) {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'start' must be an RFC 3339 timestamp"})
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'end' must be an RFC 3339 timestamp"})
		return
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'end' must not be before 'start'"})
		return
	}

	appearances, err := h.appearances.ListByTimeRange(c.Request.Context(), start, end)
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

// CountByIdentity handles GET /api/v1/identities/:id/appearances/count.
func (h *AppearanceHandler) CountByIdentity(c *gin.Context) {
	count, err := h.appearances.CountByIdentity(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to count appearances: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}
