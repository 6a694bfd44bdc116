package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"taskhub/internal/domain/models"
	"taskhub/internal/scope"
	"taskhub/internal/store"
	"taskhub/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// exportPageLimit caps how many rows a single PDF export pulls.
const exportPageLimit = 500

// TaskExportService renders the caller's task list as a PDF.
type TaskExportService struct {
	Tasks     *TaskService
	RequestID string
}

func (s TaskExportService) TaskListPDF(ctx context.Context, ident scope.Identity, search string) ([]byte, string, error) {
	page, err := s.Tasks.List(ctx, ident, store.ListParams{
		Search: search,
		Page:   1,
		Limit:  exportPageLimit,
		SortBy: "created_at",
		Order:  "desc",
	})
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(s.RequestID, "export", "task_list_pdf", fmt.Sprintf("rows=%d", len(page.Results)))
	return buildTaskListPDF(page.Results, page.TotalItems)
}

func buildTaskListPDF(tasks []models.Task, total int64) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Task List", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "TASK LIST")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s | %d task(s)", time.Now().Format("2006-01-02 15:04"), total))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(15, 8, "ID", "1", 0, "", false, 0, "")
	pdf.CellFormat(90, 8, "Summary", "1", 0, "", false, 0, "")
	pdf.CellFormat(35, 8, "Status", "1", 0, "", false, 0, "")
	pdf.CellFormat(45, 8, "Created", "1", 1, "", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, t := range tasks {
		summary := t.Summary
		if len(summary) > 48 {
			summary = summary[:45] + "..."
		}
		pdf.CellFormat(15, 7, fmt.Sprintf("%d", t.ID), "1", 0, "", false, 0, "")
		pdf.CellFormat(90, 7, summary, "1", 0, "", false, 0, "")
		pdf.CellFormat(35, 7, t.Status, "1", 0, "", false, 0, "")
		pdf.CellFormat(45, 7, t.CreatedAt.Format("2006-01-02 15:04"), "1", 1, "", false, 0, "")
	}

	if len(tasks) == 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(0, 6, "No tasks matched.", "", "", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("tasks-%s.pdf", time.Now().Format("20060102"))
	return buf.Bytes(), filename, nil
}
