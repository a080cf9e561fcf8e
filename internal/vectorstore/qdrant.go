package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// QdrantConfig addresses one Qdrant collection over REST.
type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// Qdrant is a REST client for a single collection using cosine distance.
type Qdrant struct {
	baseURL    string
	apiKey     string
	collection string
	client     *http.Client
}

type qdrantStatusError struct {
	method, path string
	status       int
	body         string
}

func (e *qdrantStatusError) Error() string {
	return fmt.Sprintf("qdrant %s %s status %d: %s", e.method, e.path, e.status, e.body)
}

func NewQdrant(cfg QdrantConfig, httpClient *http.Client) *Qdrant {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Qdrant{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     httpClient,
	}
}

func (q *Qdrant) EnsureCollection(ctx context.Context, dim int) error {
	var info struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	err := q.do(ctx, http.MethodGet, q.collectionPath(), nil, &info)
	if err == nil {
		size := info.Result.Config.Params.Vectors.Size
		if size != 0 && size != dim {
			return fmt.Errorf("%w: collection %s has %d, want %d", ErrDimensionMismatch, q.collection, size, dim)
		}
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("get qdrant collection failed: %w", err)
	}
	return q.create(ctx, dim)
}

func (q *Qdrant) Recreate(ctx context.Context, dim int) error {
	if err := q.do(ctx, http.MethodDelete, q.collectionPath(), nil, nil); err != nil {
		if !isNotFound(err) {
			return fmt.Errorf("delete qdrant collection failed: %w", err)
		}
	}
	return q.create(ctx, dim)
}

func (q *Qdrant) create(ctx context.Context, dim int) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dim,
			"distance": "Cosine",
		},
	}
	if err := q.do(ctx, http.MethodPut, q.collectionPath(), body, nil); err != nil {
		return fmt.Errorf("create qdrant collection failed: %w", err)
	}
	return nil
}

func (q *Qdrant) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	items := make([]map[string]any, len(points))
	for i, p := range points {
		items[i] = map[string]any{
			"id":      p.ID,
			"vector":  p.Vector,
			"payload": p.Payload,
		}
	}
	body := map[string]any{"points": items}
	if err := q.do(ctx, http.MethodPut, q.collectionPath()+"/points?wait=true", body, nil); err != nil {
		return fmt.Errorf("upsert qdrant points failed: %w", err)
	}
	return nil
}

func (q *Qdrant) Search(ctx context.Context, vector []float32, limit int, source string) ([]Result, error) {
	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if source != "" {
		req["filter"] = map[string]any{
			"should": []any{
				map[string]any{"key": "source", "match": map[string]any{"value": source}},
			},
		}
	}

	var resp struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload Payload `json:"payload"`
		} `json:"result"`
	}
	if err := q.do(ctx, http.MethodPost, q.collectionPath()+"/points/search", req, &resp); err != nil {
		return nil, fmt.Errorf("search qdrant points failed: %w", err)
	}

	results := make([]Result, 0, len(resp.Result))
	for _, r := range resp.Result {
		payload := r.Payload
		if payload == nil {
			payload = Payload{}
		}
		results = append(results, Result{Score: r.Score, Payload: payload})
	}
	return results, nil
}

func (q *Qdrant) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := q.do(ctx, http.MethodPost, q.collectionPath()+"/points/count", map[string]any{"exact": true}, &resp); err != nil {
		return 0, fmt.Errorf("count qdrant points failed: %w", err)
	}
	return resp.Result.Count, nil
}

func (q *Qdrant) Close() error {
	q.client.CloseIdleConnections()
	return nil
}

func (q *Qdrant) collectionPath() string {
	return "/collections/" + url.PathEscape(q.collection)
}

func (q *Qdrant) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal qdrant request failed: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, q.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build qdrant request failed: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read qdrant response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return &qdrantStatusError{method: method, path: path, status: resp.StatusCode, body: string(raw)}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("parse qdrant response failed: %w", err)
		}
	}
	return nil
}

func isNotFound(err error) bool {
	var statusErr *qdrantStatusError
	return errors.As(err, &statusErr) && statusErr.status == http.StatusNotFound
}
