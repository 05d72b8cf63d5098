package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/minwoo/facetrack/internal/config"
	"github.com/minwoo/facetrack/internal/domain"
	"github.com/minwoo/facetrack/internal/logger"
	"github.com/minwoo/facetrack/internal/repository"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

// seedCamera is one camera entry in the seed file.
type seedCamera struct {
	Title       string `mapstructure:"title"`
	SubTitle    string `mapstructure:"sub_title"`
	FloorNum    int    `mapstructure:"floor_num"`
	FloorSubNum int    `mapstructure:"floor_sub_num"`
}

// Seeds the camera directory from a YAML file. Existing cameras are matched
// by floor location and updated in place, so the command is safe to re-run.
func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to service config file")
	seedFile := flag.String("file", "configs/cameras.yaml", "path to camera seed file")
	flag.Parse()

	log := logger.NewDefault()
	logger.SetDefaultLogger(log)
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}

	v := viper.New()
	v.SetConfigFile(*seedFile)
	if err := v.ReadInConfig(); err != nil {
		log.WithError(err).Fatal("Failed to read seed file")
	}

	var cameras []seedCamera
	if err := v.UnmarshalKey("cameras", &cameras); err != nil {
		log.WithError(err).Fatal("Failed to parse seed file")
	}
	if len(cameras) == 0 {
		log.Fatal("Seed file contains no cameras")
	}

	repo := repository.NewCameraRepository(db)
	ctx := context.Background()

	var created, updated int
	for _, sc := range cameras {
		existing, err := repo.FindByLocation(ctx, sc.FloorNum, sc.FloorSubNum)
		now := time.Now().UTC()

		switch {
		case err == nil:
			existing.Title = sc.Title
			existing.SubTitle = sc.SubTitle
			existing.UpdatedAt = now
			if err := repo.Update(ctx, existing); err != nil {
				log.WithError(err).Fatal("Failed to update camera")
			}
			updated++
		case errors.Is(err, gorm.ErrRecordNotFound):
			camera := &domain.Camera{
				ID:          uuid.New().String(),
				Title:       sc.Title,
				SubTitle:    sc.SubTitle,
				FloorNum:    sc.FloorNum,
				FloorSubNum: sc.FloorSubNum,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := repo.Create(ctx, camera); err != nil {
				log.WithError(err).Fatal("Failed to create camera")
			}
			created++
		default:
			log.WithError(err).Fatal("Failed to look up camera")
		}
	}

	log.WithFields(logger.Fields{
		"created": created,
		"updated": updated,
	}).Info("Camera directory seeded")
}
