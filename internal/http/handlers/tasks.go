package handlers

import (
	"fmt"
	"net/http"
	"time"

	"taskhub/internal/domain"
	"taskhub/internal/domain/models"
	"taskhub/internal/http/middleware"
	"taskhub/internal/service"

	"github.com/gin-gonic/gin"
)

// TaskHandler is the tasks facade.
type TaskHandler struct {
	Tasks *service.TaskService
}

type taskResponse struct {
	ID          int64     `json:"id"`
	Summary     string    `json:"summary"`
	Description *string   `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	CreatedBy   *int64    `json:"created_by,omitempty"`
}

func taskResponseFrom(t *models.Task) taskResponse {
	resp := taskResponse{
		ID:        t.ID,
		Summary:   t.Summary,
		Status:    t.Status,
		CreatedAt: t.CreatedAt,
	}
	if t.Description.Valid {
		desc := t.Description.String
		resp.Description = &desc
	}
	if t.CreatedBy.Valid {
		by := t.CreatedBy.Int64
		resp.CreatedBy = &by
	}
	return resp
}

type taskListResponse struct {
	Results        []taskResponse `json:"results"`
	TotalItems     int64          `json:"total_items"`
	TotalPage      int64          `json:"total_page"`
	RecordsPerPage int            `json:"records_per_page"`
}

// GET /api/v1/tasks
func (h TaskHandler) List(c *gin.Context) {
	ident := middleware.CurrentIdentity(c)
	page, err := h.Tasks.List(c.Request.Context(), ident, ParseListParams(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	out := taskListResponse{
		Results:        make([]taskResponse, 0, len(page.Results)),
		TotalItems:     page.TotalItems,
		TotalPage:      page.TotalPage,
		RecordsPerPage: page.RecordsPerPage,
	}
	for i := range page.Results {
		out.Results = append(out.Results, taskResponseFrom(&page.Results[i]))
	}
	c.JSON(http.StatusOK, out)
}

type createTaskRequest struct {
	Summary     string `json:"summary" binding:"required"`
	Description string `json:"description"`
}

// POST /api/v1/tasks
func (h TaskHandler) Create(c *gin.Context) {
	var req createTaskRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	ident := middleware.CurrentIdentity(c)
	task, err := h.Tasks.Create(c.Request.Context(), req.Summary, req.Description, ident)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, taskResponseFrom(task))
}

// GET /api/v1/tasks/:id
func (h TaskHandler) GetByID(c *gin.Context) {
	id, ok := ParseID(c)
	if !ok {
		return
	}
	ident := middleware.CurrentIdentity(c)
	task, err := h.Tasks.GetByID(c.Request.Context(), id, ident, false, false)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, taskResponseFrom(task))
}

type editTaskRequest struct {
	Summary     *string `json:"summary"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// PUT /api/v1/tasks/:id
func (h TaskHandler) Update(c *gin.Context) {
	id, ok := ParseID(c)
	if !ok {
		return
	}
	var req editTaskRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	ident := middleware.CurrentIdentity(c)
	if _, err := h.Tasks.GetByID(c.Request.Context(), id, ident, false, false); err != nil {
		RespondDomainError(c, err)
		return
	}
	patch := models.TaskPatch{Summary: req.Summary, Description: req.Description, Status: req.Status}
	task, err := h.Tasks.Edit(c.Request.Context(), id, patch, ident)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if task == nil {
		RespondDomainError(c, domain.NotFoundError{Resource: "tasks"})
		return
	}
	c.JSON(http.StatusOK, taskResponseFrom(task))
}

// DELETE /api/v1/tasks/:id (soft delete)
func (h TaskHandler) Delete(c *gin.Context) {
	id, ok := ParseID(c)
	if !ok {
		return
	}
	ident := middleware.CurrentIdentity(c)
	if _, err := h.Tasks.SoftDeleteByID(c.Request.Context(), id, ident, false); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/v1/tasks/export/pdf
func (h TaskHandler) ExportPDF(c *gin.Context) {
	ident := middleware.CurrentIdentity(c)
	exporter := service.TaskExportService{
		Tasks:     h.Tasks,
		RequestID: middleware.GetRequestID(c),
	}
	data, filename, err := exporter.TaskListPDF(c.Request.Context(), ident, c.Query("search"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}
