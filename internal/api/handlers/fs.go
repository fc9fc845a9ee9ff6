package handlers

import (
	"net/http"
	"os"
	"os/exec"
	"runtime"

	"github.com/gin-gonic/gin"

	"github.com/your-org/phototag/pkg/dto"
)

// FSHandler serves the filesystem-adjacent commands is_directory and
// show_in_folder; these reach outside the catalog into the local OS.
type FSHandler struct{}

func NewFSHandler() *FSHandler { return &FSHandler{} }

func (h *FSHandler) IsDirectory(c *gin.Context) {
	var req dto.IsDirectoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	info, err := os.Stat(req.Path)
	c.JSON(http.StatusOK, dto.IsDirectoryResponse{IsDirectory: err == nil && info.IsDir()})
}

// ShowInFolder reveals path in the host OS's file manager. It shells out
// to the platform-appropriate opener; an unsupported OS is reported as an
// error rather than silently doing nothing.
func (h *FSHandler) ShowInFolder(c *gin.Context) {
	var req dto.ShowInFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", "-R", req.Path)
	case "windows":
		cmd = exec.Command("explorer", "/select,", req.Path)
	case "linux":
		cmd = exec.Command("xdg-open", req.Path)
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "unsupported platform: " + runtime.GOOS})
		return
	}
	if err := cmd.Start(); err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
