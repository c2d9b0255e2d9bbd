package handler

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"orderlens/internal/export"
	"orderlens/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// JobHandler handles extraction job endpoints.
type JobHandler struct {
	jobService service.JobService
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(jobService service.JobService) *JobHandler {
	return &JobHandler{jobService: jobService}
}

// Submit handles POST /api/v1/jobs. The document goes in the "file" form
// field; an optional comma-separated "models" field selects which models run.
func (h *JobHandler) Submit(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	var models []string
	if raw := c.PostForm("models"); raw != "" {
		for _, m := range strings.Split(raw, ",") {
			if m = strings.TrimSpace(m); m != "" {
				models = append(models, m)
			}
		}
	}

	job, err := h.jobService.Submit(c.Request.Context(), service.JobSubmitInput{
		File:   file,
		Header: header,
		Models: models,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondAccepted(c, job)
}

// List handles GET /api/v1/jobs
func (h *JobHandler) List(c *gin.Context) {
	jobs, err := h.jobService.List(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, jobs)
}

// GetByID handles GET /api/v1/jobs/:id
func (h *JobHandler) GetByID(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid job ID")
		return
	}

	job, err := h.jobService.GetByID(c.Request.Context(), jobID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, job)
}

// Result handles GET /api/v1/jobs/:id/result/:model
func (h *JobHandler) Result(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid job ID")
		return
	}

	result, err := h.jobService.Result(c.Request.Context(), jobID, c.Param("model"))
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}

// Excel handles GET /api/v1/jobs/:id/excel/:model. It streams the flattened
// extraction result as an xlsx attachment.
func (h *JobHandler) Excel(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid job ID")
		return
	}
	model := c.Param("model")

	result, err := h.jobService.Result(c.Request.Context(), jobID, model)
	if err != nil {
		HandleError(c, err)
		return
	}

	job, err := h.jobService.GetByID(c.Request.Context(), jobID)
	if err != nil {
		HandleError(c, err)
		return
	}

	docType := strings.TrimPrefix(strings.ToLower(filepath.Ext(job.OriginalName)), ".")
	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, result, docType); err != nil {
		HandleError(c, err)
		return
	}

	filename := export.BuildFilename(job.OriginalName, model)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Comparison handles GET /api/v1/jobs/:id/comparison
func (h *JobHandler) Comparison(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid job ID")
		return
	}

	comparison, err := h.jobService.ComparisonFor(c.Request.Context(), jobID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, comparison)
}
