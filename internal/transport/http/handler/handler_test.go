package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/ai"
	"ragchat/internal/app"
	"ragchat/internal/model"
	"ragchat/internal/pkg/docparse"
	"ragchat/internal/vectorstore"
)

type stubLedger struct {
	gotSource string
	gotLimit  int
	err       error
}

func (s *stubLedger) ListRecent(source string, limit int) ([]model.IngestionRecord, error) {
	s.gotSource, s.gotLimit = source, limit
	if s.err != nil {
		return nil, s.err
	}
	return []model.IngestionRecord{{ID: 1, Source: "faq.pdf", Kind: "pdf", Chunks: 12, Collection: "docs"}}, nil
}

func serve(h gin.HandlerFunc, target string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/x", h)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestDocumentsList(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		status    int
		wantLimit int
	}{
		{name: "default limit", target: "/x", status: http.StatusOK, wantLimit: 50},
		{name: "explicit limit", target: "/x?limit=5&source=faq.pdf", status: http.StatusOK, wantLimit: 5},
		{name: "capped limit", target: "/x?limit=1000", status: http.StatusOK, wantLimit: 200},
		{name: "bad limit", target: "/x?limit=abc", status: http.StatusBadRequest},
		{name: "zero limit", target: "/x?limit=0", status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &stubLedger{}
			w := serve(NewDocumentsHandler(ledger).List, tt.target)
			require.Equal(t, tt.status, w.Code)
			if tt.status != http.StatusOK {
				return
			}
			assert.Equal(t, tt.wantLimit, ledger.gotLimit)

			var body struct {
				Documents []model.IngestionRecord `json:"documents"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			require.Len(t, body.Documents, 1)
			assert.Equal(t, "faq.pdf", body.Documents[0].Source)
			assert.Equal(t, "pdf", body.Documents[0].Kind)
		})
	}
}

func TestDocumentsLedgerFailure(t *testing.T) {
	w := serve(NewDocumentsHandler(&stubLedger{err: errors.New("db down")}).List, "/x")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealthReportsFailedDependency(t *testing.T) {
	h := NewHealthHandler(HealthInfo{Backend: "remote", Model: "text-embedding-3-small", Dimension: 1536, Store: "qdrant", StartedAt: time.Now()},
		map[string]DependencyCheck{
			"vectorstore": func(context.Context) error { return nil },
			"redis":       func(context.Context) error { return errors.New("dial tcp: refused") },
		})

	w := serve(h.Check, "/x")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, float64(1536), body["dim"])
	deps := body["dependencies"].(map[string]any)
	assert.Equal(t, map[string]any{"ok": false, "message": "dial tcp: refused"}, deps["redis"])
	assert.Equal(t, map[string]any{"ok": true}, deps["vectorstore"])
}

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   float64
	}{
		{err: app.ErrEmptyQuery, status: http.StatusBadRequest, code: 40000},
		{err: fmt.Errorf("parse pdf %q failed: %w", "a.pdf", docparse.ErrUnreadable), status: http.StatusBadRequest, code: 40000},
		{err: fmt.Errorf("embed chunks failed: %w", ai.ErrContractViolation), status: http.StatusInternalServerError, code: 50000},
		{err: vectorstore.ErrDimensionMismatch, status: http.StatusInternalServerError, code: 50000},
		{err: errors.New("qdrant unavailable"), status: http.StatusBadGateway, code: 50200},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := serve(func(c *gin.Context) { writeError(c, tt.err) }, "/x")
			require.Equal(t, tt.status, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body["code"])
			assert.Equal(t, tt.err.Error(), body["message"])
		})
	}
}
