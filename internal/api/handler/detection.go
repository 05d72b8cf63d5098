package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/minwoo/facetrack/internal/domain"
	"github.com/minwoo/facetrack/internal/service"
)

// DetectionHandler handles the detection ingestion endpoint.
type DetectionHandler struct {
	pipeline *service.Pipeline
}

// NewDetectionHandler creates a new detection handler.
// Parameters:
//   - pipeline: batch ingestion pipeline instance.
// Returns:
//   - *DetectionHandler: initialized handler.
func NewDetectionHandler(pipeline *service.Pipeline) *DetectionHandler {
	return &DetectionHandler{pipeline: pipeline}
}

// BatchRequest is the ingress payload: a set of detections submitted together
// for independent, concurrent resolution.
type BatchRequest struct {
	Data []domain.Detection `json:"data" binding:"required,min=1,dive"`
}

// ProcessBatch handles POST /api/v1/detections/batch.
// The response reports a per-item outcome; a failed item never fails the
// batch as a whole.
func (h *DetectionHandler) ProcessBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	result := h.pipeline.ProcessBatch(c.Request.Context(), req.Data)
	c.JSON(http.StatusOK, result)
}
