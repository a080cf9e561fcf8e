package app

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strings"

	"go.uber.org/zap"

	"ragchat/internal/ai"
	"ragchat/internal/vectorstore"
)

const (
	// NoAnswer is returned when no stored chunk is relevant enough.
	NoAnswer = "Nie mam na to odpowiedzi w dokumentach."

	defaultTopK     = 5
	singleWordTopK  = 10
	probePreviewLen = 8
)

// QueryConfig tunes retrieval. MinScore and LexicalBonus are empirical.
type QueryConfig struct {
	MinScore     float64
	LexicalBonus float64
	StrictWords  bool
	SmallTalk    bool
}

func DefaultQueryConfig() QueryConfig {
	return QueryConfig{MinScore: 0.22, LexicalBonus: 0.05, StrictWords: true, SmallTalk: true}
}

type ChatInput struct {
	Query  string
	TopK   int
	Source string
}

type SourceRef struct {
	Source string  `json:"source"`
	Type   string  `json:"type"`
	Score  float64 `json:"score"`
}

type Match struct {
	Payload vectorstore.Payload `json:"payload"`
	Score   float64             `json:"score"`
}

type QueryOutcome struct {
	Answer  string      `json:"answer"`
	Sources []SourceRef `json:"sources"`
	Matches []Match     `json:"matches"`
}

type QueryOption func(*QueryService)

// WithReplyPicker replaces the random choice of small-talk replies.
func WithReplyPicker(pick func(n int) int) QueryOption {
	return func(s *QueryService) { s.pick = pick }
}

// QueryService answers questions extractively from the best stored chunk.
type QueryService struct {
	embedder ai.Embedder
	store    vectorstore.Store
	cfg      QueryConfig
	pick     func(n int) int
	log      *zap.Logger
}

func NewQueryService(embedder ai.Embedder, store vectorstore.Store, cfg QueryConfig, log *zap.Logger, opts ...QueryOption) *QueryService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &QueryService{
		embedder: embedder,
		store:    store,
		cfg:      cfg,
		pick:     rand.IntN,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type rankedMatch struct {
	score   float64
	payload vectorstore.Payload
}

// Answer runs the query pipeline: validation, small talk, retrieval, lexical
// reranking, threshold filtering and extractive answer synthesis.
func (s *QueryService) Answer(ctx context.Context, input ChatInput) (*QueryOutcome, error) {
	q := strings.TrimSpace(input.Query)
	if q == "" {
		return nil, ErrEmptyQuery
	}

	if s.cfg.SmallTalk && IsSmallTalk(q) {
		return emptyOutcome(SmallTalkReply(s.pick)), nil
	}

	topK := max(defaultTopK, input.TopK)
	minScore := s.cfg.MinScore
	if len(strings.Fields(q)) == 1 {
		topK = max(topK, singleWordTopK)
		minScore = 0
	}

	vectors, err := s.embedder.Embed(ctx, []string{q})
	if err != nil {
		return nil, fmt.Errorf("embed query failed: %w", err)
	}
	if err := ai.CheckVectors(vectors, 1, s.embedder.Dimension()); err != nil {
		return nil, err
	}

	results, err := s.store.Search(ctx, vectors[0], topK, input.Source)
	if err != nil {
		return nil, fmt.Errorf("search chunks failed: %w", err)
	}

	keys := Tokens(q)
	ranked := make([]rankedMatch, 0, len(results))
	for _, r := range results {
		score := r.Score
		if s.cfg.StrictWords && containsAnyToken(strings.ToLower(r.Payload.Text()), keys) {
			score += s.cfg.LexicalBonus
		}
		ranked = append(ranked, rankedMatch{score: score, payload: r.Payload})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	filtered := ranked[:0]
	for _, m := range ranked {
		if m.score >= minScore && s.lexicalMatch(keys, m.payload.Text()) {
			filtered = append(filtered, m)
		}
	}
	if len(filtered) == 0 {
		s.log.Debug("no relevant chunks", zap.String("query", q), zap.Int("candidates", len(results)))
		return emptyOutcome(NoAnswer), nil
	}

	outcome := &QueryOutcome{
		Answer:  PickSentences(q, filtered[0].payload.Text()),
		Sources: []SourceRef{},
		Matches: make([]Match, 0, len(filtered)),
	}
	seen := make(map[string]bool)
	for _, m := range filtered {
		score := round4(m.score)
		outcome.Matches = append(outcome.Matches, Match{Payload: m.payload, Score: score})
		src := m.payload.Source()
		if src != "" && !seen[src] {
			seen[src] = true
			outcome.Sources = append(outcome.Sources, SourceRef{Source: src, Type: m.payload.Type(), Score: score})
		}
	}
	return outcome, nil
}

// ProbeEmbedding embeds text and returns the vector length and its first
// components.
func (s *QueryService) ProbeEmbedding(ctx context.Context, text string) (int, []float32, error) {
	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return 0, nil, fmt.Errorf("embed probe failed: %w", err)
	}
	if err := ai.CheckVectors(vectors, 1, s.embedder.Dimension()); err != nil {
		return 0, nil, err
	}
	v := vectors[0]
	return len(v), v[:min(probePreviewLen, len(v))], nil
}

// lexicalMatch is the keyword gate. It always passes when strict words are off.
func (s *QueryService) lexicalMatch(keys []string, text string) bool {
	if !s.cfg.StrictWords {
		return true
	}
	return containsAnyToken(strings.ToLower(text), keys)
}

func emptyOutcome(answer string) *QueryOutcome {
	return &QueryOutcome{Answer: answer, Sources: []SourceRef{}, Matches: []Match{}}
}

func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}
