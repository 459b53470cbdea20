package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/renfield/atelier/internal/service"
)

// ArtworkHandler handles artwork lifecycle endpoints. These are called by
// the generation pipeline after a file lands in object storage, not by
// end-user uploads.
type ArtworkHandler struct {
	ingestion *service.IngestionService
}

// NewArtworkHandler creates a new artwork handler.
// Parameters:
//   - ingestion: ingestion coordinator instance.
// Returns:
//   - *ArtworkHandler: initialized handler.
func NewArtworkHandler(ingestion *service.IngestionService) *ArtworkHandler {
	return &ArtworkHandler{
		ingestion: ingestion,
	}
}

// Create handles POST /api/v1/artworks.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ArtworkHandler) Create(c *gin.Context) {
	var input service.CreateArtworkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	if input.OwnerID == "" || input.FileKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "owner_id and file_key are required",
		})
		return
	}

	artwork, err := h.ingestion.CreateArtwork(c.Request.Context(), &input)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, artwork)
}

// Get handles GET /api/v1/artworks/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ArtworkHandler) Get(c *gin.Context) {
	artwork, err := h.ingestion.GetArtwork(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, artwork)
}

// Update handles PUT /api/v1/artworks/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ArtworkHandler) Update(c *gin.Context) {
	var input service.UpdateArtworkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	artwork, err := h.ingestion.UpdateArtwork(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, artwork)
}

// Delete handles DELETE /api/v1/artworks/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ArtworkHandler) Delete(c *gin.Context) {
	if err := h.ingestion.DeleteArtwork(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
