package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appsvc "ragchat/internal/app"
	"ragchat/internal/bootstrap"
	"ragchat/internal/config"
	"ragchat/internal/vectorstore"
)

const testDim = 16

// tokenEmbedder hashes query tokens into a small bag-of-words vector.
type tokenEmbedder struct {
	err error
}

func (e *tokenEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, testDim)
		v[0] = 0.1
		for _, tok := range appsvc.Tokens(text) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(tok))
			v[h.Sum32()%testDim]++
		}
		out[i] = v
	}
	return out, nil
}

func (e *tokenEmbedder) Dimension() int    { return testDim }
func (e *tokenEmbedder) ModelName() string { return "token-hash" }

func newTestApp(t *testing.T, embedder *tokenEmbedder) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	cfg.App.GinMode = gin.TestMode
	cfg.App.MaxUploadMB = 1
	cfg.Store.Driver = vectorstore.DriverMemory

	store := vectorstore.NewMemory()
	require.NoError(t, store.EnsureCollection(context.Background(), testDim))

	log := zap.NewNop()
	return &bootstrap.App{
		Config:    cfg,
		Log:       log,
		Embedder:  embedder,
		Store:     store,
		Ingest:    appsvc.NewIngestService(embedder, store, nil, cfg.Store.Collection, log),
		Query:     appsvc.NewQueryService(embedder, store, appsvc.DefaultQueryConfig(), log),
		StartedAt: time.Now(),
	}
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func upload(t *testing.T, router http.Handler, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	router := NewRouter(newTestApp(t, &tokenEmbedder{}))

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, float64(testDim), body["dim"])
	assert.Equal(t, "local", body["backend"])
	assert.Equal(t, "token-hash", body["model"])
	assert.Equal(t, "memory", body["store"])
	deps := body["dependencies"].(map[string]any)
	assert.Equal(t, map[string]any{"ok": true}, deps["vectorstore"])
}

func TestUploadThenChat(t *testing.T) {
	router := NewRouter(newTestApp(t, &tokenEmbedder{}))

	w := upload(t, router, map[string]string{
		"regulamin.txt": "Biuro jest otwarte od poniedziałku do piątku. Zwroty przyjmujemy przez 14 dni.",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"indexed":1}`, w.Body.String())

	w = doJSON(t, router, http.MethodPost, "/chat", map[string]any{"query": "Ile dni na zwroty?"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var outcome appsvc.QueryOutcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
	assert.Equal(t, "Zwroty przyjmujemy przez 14 dni.", outcome.Answer)
	require.Len(t, outcome.Sources, 1)
	assert.Equal(t, "regulamin.txt", outcome.Sources[0].Source)
	assert.Equal(t, "txt", outcome.Sources[0].Type)
	require.Len(t, outcome.Matches, 1)
	assert.Equal(t, "regulamin.txt", outcome.Matches[0].Payload["source"])
}

func TestChatWithoutDocuments(t *testing.T) {
	router := NewRouter(newTestApp(t, &tokenEmbedder{}))

	w := doJSON(t, router, http.MethodPost, "/chat", map[string]any{"query": "Jak długo trwa dostawa?", "top_k": 3})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"answer":"Nie mam na to odpowiedzi w dokumentach.","sources":[],"matches":[]}`, w.Body.String())
}

func TestChatClampsNegativeTopK(t *testing.T) {
	router := NewRouter(newTestApp(t, &tokenEmbedder{}))

	w := doJSON(t, router, http.MethodPost, "/chat", map[string]any{"query": "Jak długo trwa dostawa?", "top_k": -3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Nie mam na to odpowiedzi w dokumentach.", decode(t, w)["answer"])
}

func TestIngestCMS(t *testing.T) {
	router := NewRouter(newTestApp(t, &tokenEmbedder{}))

	w := doJSON(t, router, http.MethodPost, "/ingest_cms", map[string]any{
		"items": []map[string]any{
			{"id": "42", "title": "Dostawa.", "body": "Wysyłamy zamówienia w ciągu 2 dni roboczych."},
			{"id": "43", "title": nil, "body": "   "},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"indexed":1}`, w.Body.String())

	w = doJSON(t, router, http.MethodPost, "/chat", map[string]any{"query": "Kiedy wysyłamy zamówienia?", "source": "cms:42"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Wysyłamy zamówienia w ciągu 2 dni roboczych.", body["answer"])
}

func TestRequestErrors(t *testing.T) {
	router := NewRouter(newTestApp(t, &tokenEmbedder{}))

	tests := []struct {
		name    string
		method  string
		path    string
		body    any
		status  int
		message string
	}{
		{name: "blank query", method: http.MethodPost, path: "/chat", body: map[string]any{"query": "   "}, status: http.StatusBadRequest, message: "Puste zapytanie."},
		{name: "missing items", method: http.MethodPost, path: "/ingest_cms", body: map[string]any{}, status: http.StatusBadRequest, message: "Brak 'items'."},
		{name: "empty items", method: http.MethodPost, path: "/ingest_cms", body: map[string]any{"items": []any{}}, status: http.StatusBadRequest, message: "Brak 'items'."},
		{name: "upload without multipart", method: http.MethodPost, path: "/upload", body: map[string]any{}, status: http.StatusBadRequest, message: "Nie przesłano plików."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			body := decode(t, w)
			assert.Equal(t, float64(40000), body["code"])
			assert.Equal(t, tt.message, body["message"])
		})
	}

	w := doJSON(t, router, http.MethodPost, "/ingest_cms", map[string]any{"items": []map[string]any{{"body": "bez id"}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	router := NewRouter(newTestApp(t, &tokenEmbedder{}))

	w := upload(t, router, map[string]string{"big.txt": string(bytes.Repeat([]byte("a"), 2<<20))})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestUpstreamFailure(t *testing.T) {
	router := NewRouter(newTestApp(t, &tokenEmbedder{err: errors.New("connection refused")}))

	w := doJSON(t, router, http.MethodPost, "/chat", map[string]any{"query": "Gdzie jest biuro?"})
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, float64(50200), decode(t, w)["code"])
}

func TestTestEmbed(t *testing.T) {
	router := NewRouter(newTestApp(t, &tokenEmbedder{}))

	w := doJSON(t, router, http.MethodGet, "/test-embed?text=regulamin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(testDim), body["length"])
	assert.Len(t, body["preview"], 8)

	w = doJSON(t, router, http.MethodGet, "/test-embed", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentsWithoutLedger(t *testing.T) {
	router := NewRouter(newTestApp(t, &tokenEmbedder{}))

	w := doJSON(t, router, http.MethodGet, "/documents", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"documents":[],"limit":50}`, w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	router := NewRouter(newTestApp(t, &tokenEmbedder{}))

	req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
	req.Header.Set("Origin", "http://widget.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://widget.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "content-type", w.Header().Get("Access-Control-Allow-Headers"))

	w = doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
