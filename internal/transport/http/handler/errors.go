package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ragchat/internal/ai"
	"ragchat/internal/app"
	"ragchat/internal/pkg/docparse"
	"ragchat/internal/transport/http/response"
	"ragchat/internal/vectorstore"
)

// writeError maps service errors onto status codes. Anything unrecognised
// is treated as a failing upstream (embedding provider or vector store).
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, app.ErrInvalidRequest), errors.Is(err, docparse.ErrUnreadable):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, ai.ErrContractViolation), errors.Is(err, vectorstore.ErrDimensionMismatch):
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, err.Error())
	default:
		response.Error(c, http.StatusBadGateway, response.CodeUpstream, err.Error())
	}
}

func badRequest(c *gin.Context, message string) {
	response.Error(c, http.StatusBadRequest, response.CodeBadRequest, message)
}
