package server

import (
	"net/http"

	"embedkit/internal/embeddings"

	"github.com/gin-gonic/gin"
)

// EmbedRequest is the body of POST /v1/embeddings.
type EmbedRequest struct {
	Input []string `json:"input" binding:"required"`
}

// EmbeddingData is one vector in an EmbedResponse.
type EmbeddingData struct {
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

// EmbedResponse is returned by POST /v1/embeddings, one entry per input in input order.
type EmbedResponse struct {
	Provider string          `json:"provider"`
	Data     []EmbeddingData `json:"data"`
}

func (s *Server) handleEmbed(c *gin.Context) {
	var req EmbedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request body: " + err.Error(),
		})

		return
	}

	vectors, err := s.provider.Embed(c.Request.Context(), req.Input)
	if err != nil {
		status := http.StatusBadGateway
		if embeddings.IsValidation(err) {
			status = http.StatusBadRequest
		}

		_ = c.Error(err)
		c.JSON(status, gin.H{
			"error": err.Error(),
		})

		return
	}

	resp := EmbedResponse{
		Provider: s.providerName,
		Data:     make([]EmbeddingData, len(vectors)),
	}

	for i, vector := range vectors {
		resp.Data[i] = EmbeddingData{Index: i, Embedding: vector}
	}

	c.JSON(http.StatusOK, resp)
}
