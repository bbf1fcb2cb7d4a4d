package handlers

import (
	"net/http"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/marketplace-service/internal/api/dto"
	"github.com/spec-kit/marketplace-service/internal/tasks"
	apperrors "github.com/spec-kit/marketplace-service/pkg/util"
)

// TasksHandler triggers background exports and surfaces task results.
type TasksHandler struct {
	dispatcher *tasks.Dispatcher
	reportDir  string
}

// NewTasksHandler constructs handler.
func NewTasksHandler(dispatcher *tasks.Dispatcher, reportDir string) *TasksHandler {
	return &TasksHandler{dispatcher: dispatcher, reportDir: reportDir}
}

// TriggerExport POST /admin/exports. Returns 202 with a task id the
// caller polls for the artifact name.
func (h *TasksHandler) TriggerExport(c *fiber.Ctx) error {
	taskID, err := h.dispatcher.Enqueue(tasks.KindExportReport, nil)
	if err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": dto.TaskAccepted{
		TaskID: taskID,
		State:  string(tasks.ResultPending),
	}})
}

// GetResult GET /admin/tasks/:id.
func (h *TasksHandler) GetResult(c *fiber.Ctx) error {
	result, ok := h.dispatcher.GetResult(c.Params("id"))
	if !ok {
		return apperrors.NewNotFound("task", map[string]any{"id": c.Params("id")})
	}
	return c.JSON(fiber.Map{"data": dto.TaskResult{
		TaskID: result.TaskID,
		State:  string(result.State),
		Value:  result.Value,
		Error:  result.Error,
	}})
}

// DownloadExport GET /admin/exports/:filename serves a finished CSV
// artifact from the report directory.
func (h *TasksHandler) DownloadExport(c *fiber.Ctx) error {
	// Base strips any traversal; artifacts live flat in reportDir.
	filename := filepath.Base(c.Params("filename"))
	return c.SendFile(filepath.Join(h.reportDir, filename))
}
