package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"orderlens/internal/domain"
)

func TestBuildComparison(t *testing.T) {
	jobID := uuid.New()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	runs := map[string]*domain.ModelRun{
		"openai": {
			Model:          "openai",
			Status:         domain.RunStatusCompleted,
			ProcessingTime: 41.2,
			Result: &domain.ExtractionResult{
				Products: []domain.Product{{}, {}, {}},
			},
		},
		"gemini": {
			Model:          "gemini",
			Status:         domain.RunStatusCompleted,
			ProcessingTime: 18.7,
			Result: &domain.ExtractionResult{
				Products: []domain.Product{{}, {}},
			},
		},
		"claude": {
			Model:          "claude",
			Status:         domain.RunStatusFailed,
			ProcessingTime: 5.1,
			Error:          "first page failed",
		},
	}

	c := BuildComparison(jobID, at, runs)

	assert.Equal(t, jobID, c.JobID)
	assert.Equal(t, at, c.GeneratedAt)
	assert.Equal(t, []string{"claude", "gemini", "openai"}, c.Models)

	// failed runs keep their timing but get no product count
	assert.Equal(t, map[string]float64{"claude": 5.1, "gemini": 18.7, "openai": 41.2}, c.ProcessingTimes)
	assert.Equal(t, map[string]int{"gemini": 2, "openai": 3}, c.ProductCounts)
}

func TestBuildComparison_FailedRunWithoutTiming(t *testing.T) {
	runs := map[string]*domain.ModelRun{
		"gemini": {Model: "gemini", Status: domain.RunStatusFailed, ProcessingTime: 0},
	}

	c := BuildComparison(uuid.New(), time.Now(), runs)

	assert.Equal(t, []string{"gemini"}, c.Models)
	assert.Empty(t, c.ProcessingTimes)
	assert.Empty(t, c.ProductCounts)
}
