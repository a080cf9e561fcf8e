package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ragchat/internal/app"
	"ragchat/internal/transport/http/response"
)

type QueryHandler struct {
	queryService *app.QueryService
}

type chatRequest struct {
	Query  string `json:"query"`
	TopK   int    `json:"top_k"`
	Source string `json:"source"`
}

func NewQueryHandler(queryService *app.QueryService) *QueryHandler {
	return &QueryHandler{queryService: queryService}
}

func (h *QueryHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}

	outcome, err := h.queryService.Answer(c.Request.Context(), app.ChatInput{
		Query:  req.Query,
		TopK:   req.TopK,
		Source: req.Source,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcome)
}

func (h *QueryHandler) TestEmbed(c *gin.Context) {
	text, ok := c.GetQuery("text")
	if !ok {
		badRequest(c, "missing query parameter: text")
		return
	}

	length, preview, err := h.queryService.ProbeEmbedding(c.Request.Context(), text)
	if err != nil {
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"length":  length,
		"preview": preview,
	})
}
