package service

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"orderlens/internal/domain"
)

// BuildComparison summarizes the terminal model runs of a job. Processing
// times cover every run that recorded one; product counts only cover runs
// that completed with a result.
func BuildComparison(jobID uuid.UUID, at time.Time, runs map[string]*domain.ModelRun) *domain.Comparison {
	c := &domain.Comparison{
		JobID:           jobID,
		GeneratedAt:     at,
		Models:          make([]string, 0, len(runs)),
		ProcessingTimes: make(map[string]float64, len(runs)),
		ProductCounts:   make(map[string]int, len(runs)),
	}

	for name, run := range runs {
		c.Models = append(c.Models, name)
		if run.ProcessingTime > 0 {
			c.ProcessingTimes[name] = run.ProcessingTime
		}
		if run.Status == domain.RunStatusCompleted && run.Result != nil {
			c.ProductCounts[name] = len(run.Result.Products)
		}
	}
	sort.Strings(c.Models)

	return c
}
