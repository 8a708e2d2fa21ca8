package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type ingestRequest struct {
	TermCode string `json:"term_code" binding:"required"`
}

// IngestAuth rejects ingestion requests without the configured bearer token.
func IngestAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "ingestion endpoint is not configured"})
			return
		}
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing token"})
			return
		}
		c.Next()
	}
}

// PostIngest handles POST /api/ingest: it runs a full-term ingestion and
// returns the run summary, or an error with a message. A failed run never
// returns partial counts.
func (h *Handler) PostIngest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.ingest.IngestTerm(c.Request.Context(), req.TermCode)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}
