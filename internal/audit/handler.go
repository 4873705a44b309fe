package audit

import (
	"net/http"
	"slices"

	"realestate_ai_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

type FileInfo struct {
	Name  string `json:"name"`
	Bytes int    `json:"bytes"`
}

// Handler serves read-only downloads of the CSV trails to admins.
type Handler struct {
	log *Log
}

func NewHandler(auditLog *Log) *Handler {
	return &Handler{log: auditLog}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:file", h.Download)
}

func (h *Handler) List(c *gin.Context) {
	items := make([]FileInfo, 0, len(Files))
	for _, name := range Files {
		data, err := h.log.Snapshot(name)
		if err != nil {
			httpkit.Error(c, http.StatusInternalServerError, "failed to read audit log", nil)
			return
		}
		items = append(items, FileInfo{Name: name, Bytes: len(data)})
	}
	httpkit.OK(c, gin.H{"files": items})
}

func (h *Handler) Download(c *gin.Context) {
	name := c.Param("file")
	if !slices.Contains(Files, name) {
		httpkit.Error(c, http.StatusNotFound, "unknown audit file", nil)
		return
	}

	data, err := h.log.Snapshot(name)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to read audit log", nil)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+name)
	c.Data(http.StatusOK, "text/csv", data)
}
