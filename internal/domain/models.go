package domain

import (
	"time"

	"github.com/google/uuid"
)

// SizeEntry is one size/quantity pair within a color. Quantity is always
// strictly positive; integral values marshal without a decimal part.
type SizeEntry struct {
	Size     string  `json:"size"`
	Quantity float64 `json:"quantity"`
}

// Color groups the sizes and prices extracted for one color of a product.
type Color struct {
	ColorCode  *string     `json:"color_code"`
	ColorName  *string     `json:"color_name"`
	Sizes      []SizeEntry `json:"sizes"`
	UnitPrice  *float64    `json:"unit_price"`
	SalesPrice *float64    `json:"sales_price"`
	Subtotal   *float64    `json:"subtotal"`
}

// Product is one extracted product with its per-color breakdown.
// Scalar fields are nil when the document does not show them.
type Product struct {
	Name         *string  `json:"name"`
	MaterialCode *string  `json:"material_code"`
	Category     *string  `json:"category"`
	Model        *string  `json:"model"`
	Composition  *string  `json:"composition"`
	Colors       []Color  `json:"colors"`
	TotalPrice   *float64 `json:"total_price"`
}

// OrderInfo is an open mapping of document-level summary fields
// (total_pieces, total_value, order_number, date, ...).
type OrderInfo map[string]interface{}

// ExtractionResult is the structured payload produced for a page or
// accumulated for a whole model run.
type ExtractionResult struct {
	Products           []Product `json:"products"`
	OrderInfo          OrderInfo `json:"order_info"`
	PartiallyRecovered bool      `json:"partially_recovered,omitempty"`
}

// ModelRun tracks one model's progress and outcome within a job.
// It is immutable once Status is terminal.
type ModelRun struct {
	Model          string            `json:"model"`
	Status         RunStatus         `json:"status"`
	Progress       float64           `json:"progress"`
	Result         *ExtractionResult `json:"result,omitempty"`
	Error          string            `json:"error,omitempty"`
	ProcessingTime float64           `json:"processing_time,omitempty"`
}

// Comparison summarizes timing and product counts across the models of a
// completed job. Product counts cover only runs that completed with a result.
type Comparison struct {
	JobID           uuid.UUID          `json:"job_id"`
	GeneratedAt     time.Time          `json:"generated_at"`
	Models          []string           `json:"models"`
	ProcessingTimes map[string]float64 `json:"processing_times"`
	ProductCounts   map[string]int     `json:"product_counts"`
}

// Job is one document submitted for extraction across one or more models.
type Job struct {
	ID           uuid.UUID            `json:"id"`
	Status       JobStatus            `json:"status"`
	Progress     float64              `json:"progress"`
	FilePath     string               `json:"-"`
	OriginalName string               `json:"original_name"`
	PageCount    int                  `json:"page_count,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	ModelResults map[string]*ModelRun `json:"model_results"`
	Comparison   *Comparison          `json:"comparison,omitempty"`
}

// Clone returns a copy safe to hand out while model tasks keep mutating the
// original. ModelRun structs are copied by value; result payloads and the
// comparison are shared because they are only attached once a run is terminal
// and never mutated afterwards.
func (j *Job) Clone() *Job {
	c := *j
	c.ModelResults = make(map[string]*ModelRun, len(j.ModelResults))
	for name, run := range j.ModelResults {
		r := *run
		c.ModelResults[name] = &r
	}
	return &c
}

// JobSummary is the compact listing shape returned by the jobs index.
type JobSummary struct {
	ID           uuid.UUID            `json:"id"`
	Status       JobStatus            `json:"status"`
	Progress     float64              `json:"progress"`
	OriginalName string               `json:"original_name"`
	CreatedAt    time.Time            `json:"created_at"`
	ModelStatus  map[string]RunStatus `json:"model_status"`
}

// Summary projects a job into its listing shape.
func (j *Job) Summary() JobSummary {
	ms := make(map[string]RunStatus, len(j.ModelResults))
	for name, run := range j.ModelResults {
		ms[name] = run.Status
	}
	return JobSummary{
		ID:           j.ID,
		Status:       j.Status,
		Progress:     j.Progress,
		OriginalName: j.OriginalName,
		CreatedAt:    j.CreatedAt,
		ModelStatus:  ms,
	}
}
