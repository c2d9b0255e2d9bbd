package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"orderlens/internal/config"
	"orderlens/internal/domain"
	"orderlens/internal/extract"
	"orderlens/internal/port"
)

// JobSubmitInput is the DTO for job submission requests.
type JobSubmitInput struct {
	File   multipart.File
	Header *multipart.FileHeader
	Models []string
}

// JobService defines the extraction job contract.
type JobService interface {
	Submit(ctx context.Context, input JobSubmitInput) (*domain.Job, error)
	GetByID(ctx context.Context, jobID uuid.UUID) (*domain.Job, error)
	List(ctx context.Context) ([]domain.JobSummary, error)
	Result(ctx context.Context, jobID uuid.UUID, model string) (*domain.ExtractionResult, error)
	ComparisonFor(ctx context.Context, jobID uuid.UUID) (*domain.Comparison, error)
}

type jobService struct {
	store     port.JobStore
	converter port.PageConverter
	models    map[string]port.VisionModel
	storage   port.ObjectStorage // nil when archival is disabled
	engine    *extract.Engine
	cfg       *config.Config
	sem       chan struct{}
}

// NewJobService creates a new JobService implementation. storage may be nil,
// in which case finished jobs are kept in memory only.
func NewJobService(
	store port.JobStore,
	converter port.PageConverter,
	models map[string]port.VisionModel,
	storage port.ObjectStorage,
	cfg *config.Config,
) JobService {
	maxRuns := cfg.Jobs.MaxConcurrentRuns
	if maxRuns <= 0 {
		maxRuns = 1
	}
	return &jobService{
		store:     store,
		converter: converter,
		models:    models,
		storage:   storage,
		engine:    extract.NewEngine(time.Duration(cfg.Jobs.RetryBackoffSecs) * time.Second),
		cfg:       cfg,
		sem:       make(chan struct{}, maxRuns),
	}
}

func (s *jobService) Submit(ctx context.Context, input JobSubmitInput) (*domain.Job, error) {
	modelNames, err := s.resolveModels(input.Models)
	if err != nil {
		return nil, err
	}

	// Validate file extension
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(input.Header.Filename), "."))
	if _, ok := domain.AllowedExtensions[ext]; !ok {
		return nil, domain.ErrUnsupportedFileType
	}

	// Validate file size
	if input.Header.Size == 0 {
		return nil, domain.ErrEmptyFile
	}
	maxBytes := s.cfg.Upload.MaxFileSizeMB * 1024 * 1024
	if input.Header.Size > maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	// Read first 512 bytes for magic-byte content type detection
	buf := make([]byte, 512)
	n, err := input.File.Read(buf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading file header: %w", err)
	}
	detectedType := http.DetectContentType(buf[:n])
	if _, validContent := domain.AllowedContentTypes[detectedType]; !validContent {
		return nil, domain.ErrUnsupportedFileType
	}

	// Seek back to beginning before persisting
	if _, err := input.File.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking file: %w", err)
	}

	jobID := uuid.New()
	path := filepath.Join(s.cfg.Upload.Dir, fmt.Sprintf("%s.%s", jobID, ext))
	if err := saveUpload(input.File, path); err != nil {
		return nil, fmt.Errorf("persisting upload: %w", err)
	}

	job := &domain.Job{
		ID:           jobID,
		Status:       domain.JobStatusProcessing,
		FilePath:     path,
		OriginalName: input.Header.Filename,
		CreatedAt:    time.Now().UTC(),
		ModelResults: make(map[string]*domain.ModelRun, len(modelNames)),
	}
	for _, name := range modelNames {
		job.ModelResults[name] = &domain.ModelRun{
			Model:  name,
			Status: domain.RunStatusProcessing,
		}
	}

	if err := s.store.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}

	log.Printf("jobService.Submit: job %s accepted (%s, %d bytes, models: %s)",
		jobID, input.Header.Filename, input.Header.Size, strings.Join(modelNames, ","))

	go s.process(context.Background(), jobID, path, modelNames)

	return job.Clone(), nil
}

func (s *jobService) resolveModels(requested []string) ([]string, error) {
	names := requested
	if len(names) == 0 {
		names = s.cfg.Jobs.DefaultModels
	}
	if len(names) == 0 {
		return nil, domain.ErrNoModelsSelected
	}

	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		if _, ok := s.models[name]; !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownModel, name)
		}
		seen[name] = true
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil, domain.ErrNoModelsSelected
	}
	return out, nil
}

func saveUpload(src io.Reader, path string) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

// process runs the full extraction pipeline for one job: render pages once,
// then fan out one worker per selected model.
func (s *jobService) process(ctx context.Context, jobID uuid.UUID, path string, modelNames []string) {
	pages, err := s.converter.Convert(ctx, path)
	if err != nil {
		log.Printf("jobService.process: job %s preprocessing failed: %v", jobID, err)
		s.failAllRuns(ctx, jobID, err)
		return
	}

	if err := s.store.Update(ctx, jobID, func(job *domain.Job) {
		job.PageCount = len(pages)
	}); err != nil {
		log.Printf("jobService.process: job %s: recording page count: %v", jobID, err)
		return
	}

	var wg sync.WaitGroup
	for _, name := range modelNames {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			s.sem <- struct{}{}
			defer func() { <-s.sem }()
			s.runModel(ctx, jobID, name, pages)
		}(name)
	}
	wg.Wait()
}

// failAllRuns marks every run and the job itself failed, used when the
// document could not be rendered so no model can do any work.
func (s *jobService) failAllRuns(ctx context.Context, jobID uuid.UUID, cause error) {
	if err := s.store.Update(ctx, jobID, func(job *domain.Job) {
		for _, run := range job.ModelResults {
			run.Status = domain.RunStatusFailed
			run.Error = cause.Error()
			run.Progress = 0
			run.ProcessingTime = 0
		}
		job.Status = domain.JobStatusFailed
		job.Progress = 0
	}); err != nil {
		log.Printf("jobService.failAllRuns: job %s: %v", jobID, err)
	}
}

// runModel processes every page of the document sequentially with one model.
// A failure on the first page fails the run; failures on later pages skip
// the page and the run still completes with whatever was extracted.
func (s *jobService) runModel(ctx context.Context, jobID uuid.UUID, modelName string, pages []port.PageImage) {
	model := s.models[modelName]
	start := time.Now()

	runCtx := ctx
	if s.cfg.Jobs.TimeoutSecs > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.Jobs.TimeoutSecs)*time.Second)
		defer cancel()
	}

	merged := &domain.ExtractionResult{
		Products:  []domain.Product{},
		OrderInfo: domain.OrderInfo{},
	}

	for i, page := range pages {
		prompt := extract.BuildPagePrompt(page.PageNumber, len(pages), len(merged.Products))
		outcome := s.engine.ProcessPage(runCtx, model, port.PageInput{
			ImageBytes:  page.Bytes,
			ContentType: page.ContentType,
			Prompt:      prompt,
		})

		if outcome.Err != "" {
			if i == 0 {
				log.Printf("jobService.runModel: job %s model %s failed on first page: %s", jobID, modelName, outcome.Err)
				s.finishRun(ctx, jobID, modelName, nil, outcome.Err, time.Since(start))
				return
			}
			log.Printf("jobService.runModel: job %s model %s skipping page %d: %s", jobID, modelName, page.PageNumber, outcome.Err)
			continue
		}

		mergeResult(merged, outcome.Result)

		progress := float64(i+1) / float64(len(pages))
		if err := s.store.Update(ctx, jobID, func(job *domain.Job) {
			if run, ok := job.ModelResults[modelName]; ok {
				run.Progress = progress
			}
			job.Progress = meanRunProgress(job.ModelResults)
		}); err != nil {
			log.Printf("jobService.runModel: job %s model %s: recording progress: %v", jobID, modelName, err)
		}
	}

	s.finishRun(ctx, jobID, modelName, merged, "", time.Since(start))
}

// mergeResult folds one page's result into the accumulated run result.
// Products append; order_info fields overwrite when the newer value is
// non-empty, so later pages win for document-level fields.
func mergeResult(acc, page *domain.ExtractionResult) {
	acc.Products = append(acc.Products, page.Products...)
	for key, val := range page.OrderInfo {
		if val == nil {
			continue
		}
		if s, ok := val.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		acc.OrderInfo[key] = val
	}
	if page.PartiallyRecovered {
		acc.PartiallyRecovered = true
	}
}

func meanRunProgress(runs map[string]*domain.ModelRun) float64 {
	if len(runs) == 0 {
		return 0
	}
	sum := 0.0
	for _, run := range runs {
		sum += run.Progress
	}
	return sum / float64(len(runs))
}

// finishRun records a terminal run state and, when it is the last run to
// finish, settles the job: final status, aggregate progress, and the
// comparison, which is generated exactly once under the store lock.
func (s *jobService) finishRun(ctx context.Context, jobID uuid.UUID, modelName string, result *domain.ExtractionResult, runErr string, elapsed time.Duration) {
	justCompleted := false

	if err := s.store.Update(ctx, jobID, func(job *domain.Job) {
		run, ok := job.ModelResults[modelName]
		if !ok {
			return
		}
		run.ProcessingTime = elapsed.Seconds()
		if runErr != "" {
			run.Status = domain.RunStatusFailed
			run.Error = runErr
			run.Progress = 0
		} else {
			run.Status = domain.RunStatusCompleted
			run.Result = result
			run.Progress = 1
		}
		job.Progress = meanRunProgress(job.ModelResults)

		allTerminal := true
		anyCompleted := false
		for _, r := range job.ModelResults {
			if !r.Status.Terminal() {
				allTerminal = false
			}
			if r.Status == domain.RunStatusCompleted {
				anyCompleted = true
			}
		}
		if !allTerminal {
			return
		}

		if anyCompleted {
			job.Status = domain.JobStatusCompleted
		} else {
			job.Status = domain.JobStatusFailed
		}
		if job.Comparison == nil {
			job.Comparison = BuildComparison(job.ID, time.Now().UTC(), job.ModelResults)
			justCompleted = true
		}
	}); err != nil {
		log.Printf("jobService.finishRun: job %s model %s: %v", jobID, modelName, err)
		return
	}

	log.Printf("jobService.finishRun: job %s model %s finished in %.1fs (failed=%v)",
		jobID, modelName, elapsed.Seconds(), runErr != "")

	if justCompleted && s.storage != nil {
		s.archive(ctx, jobID)
	}
}

// archive uploads the finished job record and the original document to
// object storage. Archival failures are logged, never surfaced: the job
// outcome is already settled in the store.
func (s *jobService) archive(ctx context.Context, jobID uuid.UUID) {
	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		log.Printf("jobService.archive: job %s: %v", jobID, err)
		return
	}

	payload, err := json.Marshal(job)
	if err != nil {
		log.Printf("jobService.archive: job %s: marshaling record: %v", jobID, err)
		return
	}
	if _, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.S3.Bucket,
		Key:         fmt.Sprintf("jobs/%s/result.json", jobID),
		Body:        strings.NewReader(string(payload)),
		ContentType: "application/json",
		Size:        int64(len(payload)),
	}); err != nil {
		log.Printf("jobService.archive: job %s: uploading record: %v", jobID, err)
		return
	}

	doc, err := os.Open(job.FilePath)
	if err != nil {
		log.Printf("jobService.archive: job %s: opening document: %v", jobID, err)
		return
	}
	defer func() { _ = doc.Close() }()

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(job.FilePath), "."))
	contentType := domain.AllowedFileTypes[domain.AllowedExtensions[ext]]
	if _, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.S3.Bucket,
		Key:         fmt.Sprintf("jobs/%s/%s", jobID, job.OriginalName),
		Body:        doc,
		ContentType: contentType,
	}); err != nil {
		log.Printf("jobService.archive: job %s: uploading document: %v", jobID, err)
		return
	}

	log.Printf("jobService.archive: job %s archived to bucket %s", jobID, s.cfg.S3.Bucket)
}

func (s *jobService) GetByID(ctx context.Context, jobID uuid.UUID) (*domain.Job, error) {
	return s.store.Get(ctx, jobID)
}

func (s *jobService) List(ctx context.Context) ([]domain.JobSummary, error) {
	return s.store.List(ctx)
}

func (s *jobService) Result(ctx context.Context, jobID uuid.UUID, model string) (*domain.ExtractionResult, error) {
	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	run, ok := job.ModelResults[strings.ToLower(model)]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	if run.Status != domain.RunStatusCompleted || run.Result == nil {
		return nil, domain.ErrResultNotReady
	}
	return run.Result, nil
}

func (s *jobService) ComparisonFor(ctx context.Context, jobID uuid.UUID) (*domain.Comparison, error) {
	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Comparison == nil {
		return nil, domain.ErrComparisonNotReady
	}
	return job.Comparison, nil
}
