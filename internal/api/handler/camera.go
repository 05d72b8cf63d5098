package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/minwoo/facetrack/internal/domain"
	"github.com/minwoo/facetrack/internal/repository"
	"gorm.io/gorm"
)

// CameraHandler handles camera CRUD endpoints.
type CameraHandler struct {
	cameras *repository.CameraRepository
}

// NewCameraHandler creates a new camera handler.
func NewCameraHandler(cameras *repository.CameraRepository) *CameraHandler {
	return &CameraHandler{cameras: cameras}
}

type createCameraRequest struct {
	Title       string `json:"title" binding:"required"`
	SubTitle    string `json:"sub_title"`
	FloorNum    int    `json:"floor_num"`
	FloorSubNum int    `json:"floor_sub_num"`
}

// Create handles POST /api/v1/cameras.
func (h *CameraHandler) Create(c *gin.Context) {
	var req createCameraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	now := time.Now().UTC()
	camera := &domain.Camera{
		ID:          uuid.New().String(),
		Title:       req.Title,
		SubTitle:    req.SubTitle,
		FloorNum:    req.FloorNum,
		FloorSubNum: req.FloorSubNum,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.cameras.Create(c.Request.Context(), camera); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create camera: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, camera)
}

// List handles GET /api/v1/cameras.
func (h *CameraHandler) List(c *gin.Context) {
	cameras, err := h.cameras.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list cameras: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cameras": cameras,
		"total":   len(cameras),
	})
}

// Get handles GET /api/v1/cameras/:id.
func (h *CameraHandler) Get(c *gin.Context) {
	camera, err := h.cameras.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Camera not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get camera: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, camera)
}

// FindByLocation handles GET /api/v1/cameras/location?floor_num=&floor_sub_num=.
func (h *CameraHandler) FindByLocation(c *gin.Context) {
	floorNum, err := strconv.Atoi(c.Query("floor_num"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'floor_num' is required"})
		return
	}
	floorSubNum, err := strconv.Atoi(c.Query("floor_sub_num"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'floor_sub_num' is required"})
		return
	}

	camera, err := h.cameras.FindByLocation(c.Request.Context(), floorNum, floorSubNum)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No camera registered at this location"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to look up camera: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, camera)
}

type updateCameraRequest struct {
	Title       *string `json:"title"`
	SubTitle    *string `json:"sub_title"`
	FloorNum    *int    `json:"floor_num"`
	FloorSubNum *int    `json:"floor_sub_num"`
}

// Update handles PATCH /api/v1/cameras/:id.
func (h *CameraHandler) Update(c *gin.Context) {
	var req updateCameraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	camera, err := h.cameras.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Camera not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get camera: " + err.Error(),
		})
		return
	}

	if req.Title != nil {
		camera.Title = *req.Title
	}
	if req.SubTitle != nil {
		camera.SubTitle = *req.SubTitle
	}
	if req.FloorNum != nil {
		camera.FloorNum = *req.FloorNum
	}
	if req.FloorSubNum != nil {
		camera.FloorSubNum = *req.FloorSubNum
	}
	camera.UpdatedAt = time.Now().UTC()

	if err := h.cameras.Update(c.Request.Context(), camera); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to update camera: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, camera)
}

// Delete handles DELETE /api/v1/cameras/:id.
func (h *CameraHandler) Delete(c *gin.Context) {
	if err := h.cameras.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete camera: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Camera deleted"})
}
