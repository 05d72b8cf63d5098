package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/minwoo/facetrack/internal/api/handler"
	"github.com/minwoo/facetrack/internal/api/middleware"
	"github.com/minwoo/facetrack/internal/config"
	"github.com/minwoo/facetrack/internal/logger"
	"github.com/minwoo/facetrack/internal/repository"
	"github.com/minwoo/facetrack/internal/service"
	"github.com/minwoo/facetrack/internal/storage"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Pipeline    *service.Pipeline
	Identities  *repository.IdentityRepository
	Cameras     *repository.CameraRepository
	Appearances *repository.AppearanceRepository
	Images      *repository.ImageRepository
	Storage     storage.SnapshotStorage // nil when snapshot storage is disabled
}

// SetupRouter configures the Gin engine with all routes and middleware.
func SetupRouter(cfg *config.Config, log *logger.Logger, deps *Handlers) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	corsCfg := cors.DefaultConfig()
	if cfg.Server.CORS.AllowAllOrigins || len(cfg.Server.CORS.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.Server.CORS.AllowedOrigins
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", "X-Request-ID")
	r.Use(cors.New(corsCfg))

	healthHandler := handler.NewHealthHandler()
	detectionHandler := handler.NewDetectionHandler(deps.Pipeline)
	identityHandler := handler.NewIdentityHandler(deps.Identities, deps.Appearances)
	cameraHandler := handler.NewCameraHandler(deps.Cameras)
	appearanceHandler := handler.NewAppearanceHandler(deps.Appearances)
	imageHandler := handler.NewImageHandler(deps.Images, deps.Storage)

	r.GET("/health", healthHandler.Health)

	v1 := r.Group("/api/v1")
	{
		detections := v1.Group("/detections")
		{
			detections.POST("/batch", detectionHandler.ProcessBatch)
		}

		identities := v1.Group("/identities")
		{
			identities.GET("", identityHandler.List)
			identities.GET("/role-counts", identityHandler.RoleCounts)
			identities.GET("/:id", identityHandler.Get)
			identities.PATCH("/:id", identityHandler.Update)
			identities.DELETE("/:id", identityHandler.Delete)
			identities.GET("/:id/appearances", identityHandler.Appearances)
			identities.GET("/:id/appearances/count", appearanceHandler.CountByIdentity)
			identities.GET("/:id/images", imageHandler.ListByIdentity)
		}

		cameras := v1.Group("/cameras")
		{
			cameras.POST("", cameraHandler.Create)
			cameras.GET("", cameraHandler.List)
			cameras.GET("/location", cameraHandler.FindByLocation)
			cameras.GET("/:id", cameraHandler.Get)
			cameras.PATCH("/:id", cameraHandler.Update)
			cameras.DELETE("/:id", cameraHandler.Delete)
			cameras.GET("/:id/appearances", appearanceHandler.ListByCamera)
		}

		appearances := v1.Group("/appearances")
		{
			appearances.GET("", appearanceHandler.ListByTimeRange)
		}

		images := v1.Group("/images")
		{
			images.GET("", imageHandler.List)
			images.GET("/:id", imageHandler.Get)
			images.POST("/upload", imageHandler.Upload)
		}
	}

	return r
}
