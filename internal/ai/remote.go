package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// RemoteConfig configures the hosted OpenAI embeddings API.
type RemoteConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Dimension int
}

// RemoteEmbedder embeds through the OpenAI SDK.
type RemoteEmbedder struct {
	client    openai.Client
	model     string
	dimension int
}

func NewRemoteEmbedder(cfg RemoteConfig) (*RemoteEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("remote embedding backend requires an api key")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &RemoteEmbedder{
		client:    openai.NewClient(opts...),
		model:     cfg.Model,
		dimension: cfg.Dimension,
	}, nil
}

func (e *RemoteEmbedder) Dimension() int    { return e.dimension }
func (e *RemoteEmbedder) ModelName() string { return e.model }

func (e *RemoteEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings failed: %w", err)
	}

	vectors := make([][]float32, len(resp.Data))
	for i, item := range resp.Data {
		idx := i
		if item.Index >= 0 && int(item.Index) < len(vectors) {
			idx = int(item.Index)
		}
		vec := make([]float32, len(item.Embedding))
		for j, x := range item.Embedding {
			vec[j] = float32(x)
		}
		vectors[idx] = vec
	}
	if err := CheckVectors(vectors, len(texts), e.dimension); err != nil {
		return nil, err
	}
	return vectors, nil
}
