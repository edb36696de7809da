package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"gorm.io/gorm"

	"github.com/mrlokans/pixeljournal/internal/apiclient"
	"github.com/mrlokans/pixeljournal/internal/importers"
	"github.com/mrlokans/pixeljournal/internal/tasks"
)

const (
	csvFormField  = "csv_file"
	maxUploadSize = 10 << 20
)

// ImportController accepts CSV exports and reports import progress.
type ImportController struct {
	runner   ImportRunner
	progress ImportProgressStore
	queue    TaskQueue
}

func NewImportController(runner ImportRunner, progress ImportProgressStore, queue TaskQueue) *ImportController {
	return &ImportController{
		runner:   runner,
		progress: progress,
		queue:    queue,
	}
}

// ImportCSV handles POST /api/import/csv
// The upload is imported in the background when a task queue is
// configured and synchronously otherwise. One import runs per user.
func (ic *ImportController) ImportCSV(c *gin.Context) {
	userID := GetUserID(c)

	fileHeader, err := c.FormFile(csvFormField)
	if err != nil {
		respondBadRequest(c, "No file uploaded. Please select a CSV file.")
		return
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".csv") {
		respondBadRequest(c, "Invalid file type. Please upload a .csv file.")
		return
	}
	if fileHeader.Size > maxUploadSize {
		respondBadRequest(c, "File too large. Maximum size is 10MB.")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondInternalError(c, err, "open upload")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		respondInternalError(c, err, "read upload")
		return
	}

	started, err := ic.progress.TryStartImport(userID, 0)
	if err != nil {
		respondInternalError(c, err, "start import")
		return
	}
	if !started {
		respondError(c, http.StatusConflict, "An import is already running")
		return
	}

	if ic.queue != nil {
		taskID, err := ic.queue.Enqueue(tasks.ImportGamesTask{
			UserID:   userID,
			FileName: fileHeader.Filename,
			CSV:      string(content),
		})
		if err != nil {
			_ = ic.progress.CompleteImport(userID, false, 0, 0, err.Error())
			respondInternalError(c, err, "enqueue import task")
			return
		}
		respondAccepted(c, "import queued", gin.H{"task_id": taskID})
		return
	}

	summary, err := ic.runner.Import(c.Request.Context(), userID, strings.NewReader(string(content)))
	if err != nil {
		respondImportError(c, err, summary)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "import completed",
		"summary": summary,
	})
}

func respondImportError(c *gin.Context, err error, summary importers.Summary) {
	switch {
	case errors.Is(err, importers.ErrParse), apiclient.IsMissingCredential(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Details: summary})
	default:
		respondInternalError(c, err, "import")
	}
}

// ImportStatus handles GET /api/import/status
// ?task_id= adds the state of the background task.
func (ic *ImportController) ImportStatus(c *gin.Context) {
	progress, err := ic.progress.GetImportProgress(GetUserID(c))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondNotFound(c, "import")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get import progress")
		return
	}

	resp := gin.H{"progress": progress}

	if taskID := c.Query("task_id"); taskID != "" && ic.queue != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), taskStatusTimeout)
		defer cancel()

		status, err := ic.queue.Status(ctx, taskID)
		if err != nil {
			respondInternalError(c, err, "get task status")
			return
		}
		resp["task"] = gin.H{
			"id":     taskID,
			"status": taskStatusToString(status),
		}
	}

	c.JSON(http.StatusOK, resp)
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
