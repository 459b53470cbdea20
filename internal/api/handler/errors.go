package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/renfield/atelier/internal/domain"
)

// writeError maps domain errors onto HTTP statuses. Unmapped errors are
// internal; their detail stays in the logs, not the response.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Artwork not found",
		})
	case errors.Is(err, domain.ErrTargetNotIndexed):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Artwork is not indexed yet, try again shortly",
		})
	case errors.Is(err, domain.ErrEmptyInput):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Query text must not be empty",
		})
	case errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrIndexUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Search is temporarily unavailable",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}
