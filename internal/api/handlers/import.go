package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/phototag/internal/api/ws"
	"github.com/your-org/phototag/internal/jobmanager"
	"github.com/your-org/phototag/pkg/dto"
)

// ImportHandler wires the job manager's start/cancel/status operations
// to the command surface, broadcasting progress over the WebSocket hub.
type ImportHandler struct {
	jobs *jobmanager.Manager
	hub  *ws.Hub
}

func NewImportHandler(jobs *jobmanager.Manager, hub *ws.Hub) *ImportHandler {
	return &ImportHandler{jobs: jobs, hub: hub}
}

func (h *ImportHandler) ImportFolder(c *gin.Context) {
	var req dto.ImportFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	jobID, err := h.jobs.StartImport(req.Path, h.hub.Emit)
	if err != nil {
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.ImportFolderResponse{JobID: jobID})
}

func (h *ImportHandler) CancelImport(c *gin.Context) {
	if err := h.jobs.CancelCurrent(); err != nil {
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ImportHandler) CancelImportFile(c *gin.Context) {
	var req dto.CancelImportFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if err := h.jobs.CancelFile(req.Path); err != nil {
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ImportHandler) IsImporting(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"is_importing": h.jobs.IsImporting()})
}
