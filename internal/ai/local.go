package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// LocalConfig points at an OpenAI-compatible embeddings endpoint running next
// to the service (Ollama, text-embeddings-inference, a sentence-transformers
// sidecar).
type LocalConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	Dimension int
	Timeout   time.Duration
}

// LocalEmbedder calls POST {BaseURL}/embeddings and L2-normalizes the result.
type LocalEmbedder struct {
	cfg        LocalConfig
	httpClient *http.Client
}

func NewLocalEmbedder(cfg LocalConfig, httpClient *http.Client) *LocalEmbedder {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &LocalEmbedder{cfg: cfg, httpClient: httpClient}
}

func (e *LocalEmbedder) Dimension() int    { return e.cfg.Dimension }
func (e *LocalEmbedder) ModelName() string { return e.cfg.Model }

func (e *LocalEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	reqBody := map[string]interface{}{
		"model": e.cfg.Model,
		"input": texts,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request failed: %w", err)
	}

	url := strings.TrimRight(e.cfg.BaseURL, "/") + "/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("build embedding request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embedding response status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		Data []struct {
			Index     *int      `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse embedding json failed: %w", err)
	}

	vectors := make([][]float32, len(parsed.Data))
	for i, item := range parsed.Data {
		idx := i
		if item.Index != nil && *item.Index >= 0 && *item.Index < len(vectors) {
			idx = *item.Index
		}
		Normalize(item.Embedding)
		vectors[idx] = item.Embedding
	}
	if err := CheckVectors(vectors, len(texts), e.cfg.Dimension); err != nil {
		return nil, err
	}
	return vectors, nil
}
