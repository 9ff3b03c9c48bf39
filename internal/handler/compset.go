package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"compcore/internal/model"
	"compcore/internal/service"

	"github.com/gin-gonic/gin"
)

// CompSetHandler handles saved comp set HTTP requests.
type CompSetHandler struct {
	sets *service.CompSetService
}

// NewCompSetHandler creates a new comp set handler
func NewCompSetHandler(sets *service.CompSetService) *CompSetHandler {
	return &CompSetHandler{sets: sets}
}

// Save handles POST /api/v1/comp-sets
func (h *CompSetHandler) Save(c *gin.Context) {
	var set model.CompSet
	if err := c.ShouldBindJSON(&set); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	saved, err := h.sets.Save(c.Request.Context(), set)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Save failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, saved)
}

// Update handles PUT /api/v1/comp-sets/:id
func (h *CompSetHandler) Update(c *gin.Context) {
	var set model.CompSet
	if err := c.ShouldBindJSON(&set); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	set.ID = c.Param("id")

	if err := h.sets.Update(c.Request.Context(), set); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Comp set not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Update failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": true})
}

// List handles GET /api/v1/comp-sets
func (h *CompSetHandler) List(c *gin.Context) {
	sets, err := h.sets.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "List failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": sets})
}

// Get handles GET /api/v1/comp-sets/:id
func (h *CompSetHandler) Get(c *gin.Context) {
	set, err := h.sets.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Get failed: " + err.Error()})
		return
	}
	if set == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comp set not found"})
		return
	}

	c.JSON(http.StatusOK, set)
}
