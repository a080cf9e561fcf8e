package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ragchat/internal/model"
	"ragchat/internal/transport/http/response"
)

const (
	defaultDocumentsLimit = 50
	maxDocumentsLimit     = 200
)

// LedgerReader lists recorded ingestions.
type LedgerReader interface {
	ListRecent(source string, limit int) ([]model.IngestionRecord, error)
}

type DocumentsHandler struct {
	ledger LedgerReader
}

// NewDocumentsHandler accepts a nil ledger, in which case every listing is
// empty.
func NewDocumentsHandler(ledger LedgerReader) *DocumentsHandler {
	return &DocumentsHandler{ledger: ledger}
}

func (h *DocumentsHandler) List(c *gin.Context) {
	limit := defaultDocumentsLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		limit = min(parsed, maxDocumentsLimit)
	}

	documents := []model.IngestionRecord{}
	if h.ledger != nil {
		list, err := h.ledger.ListRecent(c.Query("source"), limit)
		if err != nil {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, err.Error())
			return
		}
		if list != nil {
			documents = list
		}
	}

	response.JSON(c, http.StatusOK, gin.H{
		"documents": documents,
		"limit":     limit,
	})
}
