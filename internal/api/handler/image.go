package handler

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	// Registered decoders let DecodeConfig sniff the formats camera agents
	// actually send.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/minwoo/facetrack/internal/domain"
	"github.com/minwoo/facetrack/internal/repository"
	"github.com/minwoo/facetrack/internal/storage"
	"gorm.io/gorm"
)

const maxSnapshotSize = 10 << 20 // 10 MB

// ImageHandler handles the captured image log and snapshot uploads.
type ImageHandler struct {
	images  *repository.ImageRepository
	storage storage.SnapshotStorage // nil when snapshot storage is disabled
}

// NewImageHandler creates a new image handler. store may be nil; uploads then
// return 503 while the read endpoints keep working.
func NewImageHandler(images *repository.ImageRepository, store storage.SnapshotStorage) *ImageHandler {
	return &ImageHandler{images: images, storage: store}
}

// List handles GET /api/v1/images.
func (h *ImageHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	images, err := h.images.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list images: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"images": images,
		"total":  len(images),
	})
}

// Get handles GET /api/v1/images/:id.
func (h *ImageHandler) Get(c *gin.Context) {
	img, err := h.images.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get image: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, img)
}

// ListByIdentity handles GET /api/v1/identities/:id/images.
func (h *ImageHandler) ListByIdentity(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	images, err := h.images.ListByIdentity(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list images: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"images": images,
		"total":  len(images),
	})
}

// Upload handles POST /api/v1/images/upload. The snapshot is stored under a
// content-hash key, so re-uploading the same frame is a no-op on the bucket.
func (h *ImageHandler) Upload(c *gin.Context) {
	if h.storage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Snapshot storage is not configured"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Form file 'file' is required"})
		return
	}
	if fileHeader.Size > maxSnapshotSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Snapshot exceeds the 10 MB limit"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open uploaded file: " + err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file: " + err.Error()})
		return
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Uploaded file is not a supported image format"})
		return
	}

	sum := md5.Sum(data)
	hash := hex.EncodeToString(sum[:])
	key := fmt.Sprintf("%s/%s%s", hash[:2], hash, extensionFor(format, fileHeader.Filename))

	ctx := c.Request.Context()

	exists, err := h.storage.Exists(ctx, key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check snapshot: " + err.Error()})
		return
	}
	if !exists {
		contentType := fileHeader.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "image/" + format
		}
		if err := h.storage.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store snapshot: " + err.Error()})
			return
		}
	}

	img := &domain.CapturedImage{
		ID:        uuid.New().String(),
		Type:      imageTypeFromForm(c),
		URL:       h.storage.URL(key),
		CreatedAt: time.Now().UTC(),
	}
	if id := c.PostForm("identity_id"); id != "" {
		img.IdentityID = &id
	}
	if id := c.PostForm("camera_id"); id != "" {
		img.CameraID = &id
	}

	if err := h.images.Append(ctx, img); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record image: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"image":  img,
		"width":  cfg.Width,
		"height": cfg.Height,
	})
}

func imageTypeFromForm(c *gin.Context) domain.ImageType {
	if c.PostForm("type") == string(domain.ImageTypeCamera) {
		return domain.ImageTypeCamera
	}
	return domain.ImageTypeFace
}

// extensionFor prefers the sniffed format over whatever extension the client
// put on the filename.
func extensionFor(format, filename string) string {
	switch format {
	case "jpeg":
		return ".jpg"
	case "png", "gif", "webp":
		return "." + format
	}
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		return ext
	}
	return ".bin"
}
