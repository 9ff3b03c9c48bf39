package handler

import (
	"errors"
	"net/http"

	"compcore/internal/engine"
	"compcore/internal/model"
	"compcore/internal/service"

	"github.com/gin-gonic/gin"
)

// CompsHandler handles comparable search and scoring HTTP requests.
type CompsHandler struct {
	comps       *service.CompsService
	defaultSize int
	maxSize     int
}

// NewCompsHandler creates a new comps handler
func NewCompsHandler(comps *service.CompsService, defaultSize, maxSize int) *CompsHandler {
	return &CompsHandler{
		comps:       comps,
		defaultSize: defaultSize,
		maxSize:     maxSize,
	}
}

// statusFor maps engine configuration errors to 400; everything else
// is a server-side failure.
func statusFor(err error) int {
	if errors.Is(err, engine.ErrConfig) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Search handles POST /api/v1/comparables/search
func (h *CompsHandler) Search(c *gin.Context) {
	var req model.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if req.Filters.Size <= 0 {
		req.Filters.Size = h.defaultSize
	}
	if req.Filters.Size > h.maxSize {
		req.Filters.Size = h.maxSize
	}

	response, err := h.comps.Search(c.Request.Context(), &req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": "Search failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// NormalizeRequest is the payload for explicit normalization.
type NormalizeRequest struct {
	IDs     []int64              `json:"ids" binding:"required"`
	Rules   model.NormalizeRules `json:"rules"`
	Subject model.SubjectRef     `json:"subject"`
}

// Normalize handles POST /api/v1/comparables/normalize
func (h *CompsHandler) Normalize(c *gin.Context) {
	var req NormalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	adjusted, err := h.comps.Normalize(c.Request.Context(), req.IDs, req.Rules, req.Subject)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": "Normalization failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"adjusted": adjusted})
}

// ScoreRequest is the payload for explicit similarity scoring.
type ScoreRequest struct {
	IDs     []int64           `json:"ids" binding:"required"`
	Params  model.ScoreParams `json:"params"`
	Subject model.SubjectRef  `json:"subject"`
}

// Score handles POST /api/v1/comparables/score
func (h *CompsHandler) Score(c *gin.Context) {
	var req ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	scored, err := h.comps.Score(c.Request.Context(), req.IDs, req.Params, req.Subject)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": "Scoring failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": scored})
}

// DedupRequest is the payload for explicit deduplication.
type DedupRequest struct {
	IDs      []int64             `json:"ids" binding:"required"`
	Strategy model.DedupStrategy `json:"strategy"`
	Options  engine.DedupOptions `json:"options"`
}

// Dedup handles POST /api/v1/comparables/dedup
func (h *CompsHandler) Dedup(c *gin.Context) {
	var req DedupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if req.Strategy == "" {
		req.Strategy = model.DedupHash
	}

	result, err := h.comps.Dedup(c.Request.Context(), req.IDs, req.Strategy, req.Options)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": "Dedup failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// EmbeddingRequest is the payload for feature-vector recomputation.
type EmbeddingRequest struct {
	IDs     []int64          `json:"ids" binding:"required"`
	Subject model.SubjectRef `json:"subject"`
}

// UpdateEmbeddings handles POST /api/v1/comparables/embeddings
func (h *CompsHandler) UpdateEmbeddings(c *gin.Context) {
	var req EmbeddingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	success, errs := h.comps.UpdateEmbeddings(c.Request.Context(), req.IDs, req.Subject)
	c.JSON(http.StatusOK, gin.H{
		"success": success,
		"failed":  len(errs),
		"errors":  errs,
	})
}
