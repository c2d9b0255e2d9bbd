package domain

import "errors"

var (
	ErrJobNotFound         = errors.New("job not found")
	ErrRunNotFound         = errors.New("model run not found for this job")
	ErrResultNotReady      = errors.New("extraction result not available yet")
	ErrComparisonNotReady  = errors.New("comparison not generated yet")
	ErrNoModelsSelected    = errors.New("no extraction models selected")
	ErrUnknownModel        = errors.New("unknown extraction model")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrEmptyFile           = errors.New("uploaded file is empty")
)
