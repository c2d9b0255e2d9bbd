package main

import (
	"fmt"
	"log"
	"os"
	"sort"

	"orderlens/internal/config"
	"orderlens/internal/handler"
	"orderlens/internal/jobstore"
	"orderlens/internal/port"
	"orderlens/internal/preprocess"
	"orderlens/internal/router"
	"orderlens/internal/service"
	s3storage "orderlens/internal/storage/s3"
	"orderlens/internal/vision"

	// Register vision model providers.
	_ "orderlens/internal/vision/claude"
	_ "orderlens/internal/vision/gemini"
	_ "orderlens/internal/vision/openai"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	// Initialize vision models for every provider with an API key
	models := make(map[string]port.VisionModel)
	for name, providerCfg := range cfg.Vision.Providers() {
		model, err := vision.New(providerCfg)
		if err != nil {
			return fmt.Errorf("failed to initialize %s model: %w", name, err)
		}
		models[name] = model
	}
	if len(models) == 0 {
		return fmt.Errorf("no vision providers configured; set at least one API key")
	}
	modelNames := make([]string, 0, len(models))
	for name := range models {
		modelNames = append(modelNames, name)
	}
	sort.Strings(modelNames)

	// Initialize optional archival storage
	var storage port.ObjectStorage
	if cfg.S3.Enabled {
		storage, err = s3storage.NewS3Client(&cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	}

	// Initialize services
	store := jobstore.NewMemoryStore()
	converter := preprocess.NewPopplerConverter(cfg.Upload.PageDPI)
	jobSvc := service.NewJobService(store, converter, models, storage, cfg)

	// Initialize handlers
	jobH := handler.NewJobHandler(jobSvc)
	healthH := handler.NewHealthHandler(cfg.Upload.Dir, modelNames)

	// Setup router
	r := router.Setup(cfg, jobH, healthH)

	log.Printf("Server starting on %s (models: %v)", cfg.Server.Port, modelNames)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
