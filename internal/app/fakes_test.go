package app

import (
	"context"
	"strings"
	"sync"

	"ragchat/internal/model"
	"ragchat/internal/vectorstore"
)

const fakeDim = 64

// vocabEmbedder is an exact bag-of-words embedder: every distinct word gets
// its own dimension.
type vocabEmbedder struct {
	mu    sync.Mutex
	vocab map[string]int
	calls int
}

func newVocabEmbedder() *vocabEmbedder {
	return &vocabEmbedder{vocab: make(map[string]int)}
}

func (e *vocabEmbedder) Dimension() int    { return fakeDim }
func (e *vocabEmbedder) ModelName() string { return "vocab" }

func (e *vocabEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, fakeDim)
		for _, w := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
			idx, ok := e.vocab[w]
			if !ok {
				idx = len(e.vocab) % fakeDim
				e.vocab[w] = idx
			}
			vec[idx]++
		}
		out[i] = vec
	}
	return out, nil
}

// shortEmbedder drops the last vector.
type shortEmbedder struct{ *vocabEmbedder }

func (e *shortEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out, err := e.vocabEmbedder.Embed(ctx, texts)
	if err != nil || len(out) == 0 {
		return out, err
	}
	return out[:len(out)-1], nil
}

// fixedStore returns canned results and records search arguments.
type fixedStore struct {
	vectorstore.Memory
	results    []vectorstore.Result
	lastLimit  int
	lastSource string
	searches   int
}

func (s *fixedStore) Search(_ context.Context, _ []float32, limit int, source string) ([]vectorstore.Result, error) {
	s.searches++
	s.lastLimit = limit
	s.lastSource = source
	return s.results, nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	records []model.IngestionRecord
	err     error
}

func (p *recordingPublisher) PublishIngestion(_ context.Context, rec model.IngestionRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append(p.records, rec)
	return p.err
}
