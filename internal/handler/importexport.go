package handler

import (
	"net/http"

	"compcore/internal/model"
	"compcore/internal/service"

	"github.com/gin-gonic/gin"
)

// ImportExportHandler handles batch import and export HTTP requests.
type ImportExportHandler struct {
	importer *service.Importer
	exporter *service.Exporter
	comps    *service.CompsService
}

// NewImportExportHandler creates a new import/export handler
func NewImportExportHandler(importer *service.Importer, exporter *service.Exporter, comps *service.CompsService) *ImportExportHandler {
	return &ImportExportHandler{
		importer: importer,
		exporter: exporter,
		comps:    comps,
	}
}

// ImportRequest is a batch of loosely typed rows.
type ImportRequest struct {
	Rows []model.ImportRow `json:"rows" binding:"required"`
}

// Import handles POST /api/v1/comparables/import
func (h *ImportExportHandler) Import(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	report := h.importer.Import(c.Request.Context(), req.Rows)
	c.JSON(http.StatusOK, report)
}

// ExportRequest selects the comparables and output format.
type ExportRequest struct {
	IDs    []int64 `json:"ids" binding:"required"`
	Format string  `json:"format"`
}

// Export handles POST /api/v1/comparables/export
func (h *ImportExportHandler) Export(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	comps, err := h.comps.Comparables(c.Request.Context(), req.IDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Export failed: " + err.Error()})
		return
	}

	switch req.Format {
	case "", "json":
		data, err := h.exporter.JSON(comps)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Export failed: " + err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/json", data)
	case "csv":
		data, err := h.exporter.CSV(comps)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Export failed: " + err.Error()})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="comparables.csv"`)
		c.Data(http.StatusOK, "text/csv", data)
	case "geojson":
		data, err := h.exporter.GeoJSON(comps)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Export failed: " + err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/geo+json", data)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown export format: " + req.Format})
	}
}
