package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ragchat/internal/ai"
	"ragchat/internal/model"
	"ragchat/internal/pkg/docparse"
	"ragchat/internal/vectorstore"
)

// EventPublisher receives one ledger record per source after a successful
// upsert.
type EventPublisher interface {
	PublishIngestion(ctx context.Context, rec model.IngestionRecord) error
}

// ContentItem is a structured content entry pushed by a CMS.
type ContentItem struct {
	ID    string  `json:"id" binding:"required"`
	Title *string `json:"title"`
	Body  string  `json:"body"`
}

type IngestResult struct {
	Indexed int `json:"indexed"`
}

// IngestService chunks, embeds and stores documents. Every call appends new
// points; identical input ingested twice is stored twice.
type IngestService struct {
	embedder   ai.Embedder
	store      vectorstore.Store
	publisher  EventPublisher
	collection string
	log        *zap.Logger
	now        func() time.Time
}

func NewIngestService(embedder ai.Embedder, store vectorstore.Store, publisher EventPublisher, collection string, log *zap.Logger) *IngestService {
	if log == nil {
		log = zap.NewNop()
	}
	return &IngestService{
		embedder:   embedder,
		store:      store,
		publisher:  publisher,
		collection: collection,
		log:        log,
		now:        time.Now,
	}
}

// Ingest chunks every record, embeds all chunks in one call and upserts them
// in one call. It returns the number of stored chunks.
func (s *IngestService) Ingest(ctx context.Context, records []docparse.Record) (int, error) {
	chunks := docparse.Chunks(records)
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks failed: %w", err)
	}
	if err := ai.CheckVectors(vectors, len(texts), s.embedder.Dimension()); err != nil {
		return 0, err
	}

	points := make([]vectorstore.Point, len(chunks))
	for i, ch := range chunks {
		payload := vectorstore.Payload(ch.Meta)
		payload["text"] = ch.Text
		points[i] = vectorstore.Point{
			ID:      uuid.NewString(),
			Vector:  vectors[i],
			Payload: payload,
		}
	}
	if err := s.store.Upsert(ctx, points); err != nil {
		return 0, fmt.Errorf("store chunks failed: %w", err)
	}

	s.publish(ctx, chunks)
	return len(chunks), nil
}

// IngestFiles parses and ingests files one after another. A failing file
// stops the batch; files before it stay stored.
func (s *IngestService) IngestFiles(ctx context.Context, files []docparse.File) (*IngestResult, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	result := &IngestResult{}
	for _, f := range files {
		records, err := docparse.Parse(f)
		if err != nil {
			return nil, err
		}
		n, err := s.Ingest(ctx, records)
		if err != nil {
			return nil, fmt.Errorf("ingest %q failed: %w", f.Name, err)
		}
		s.log.Info("file ingested", zap.String("source", f.Name), zap.Int("chunks", n))
		result.Indexed += n
	}
	return result, nil
}

// IngestItems turns each item into a "cms:<id>" record of title and body.
// Items without text are skipped.
func (s *IngestService) IngestItems(ctx context.Context, items []ContentItem) (*IngestResult, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	records := make([]docparse.Record, 0, len(items))
	for _, it := range items {
		title := ""
		if it.Title != nil {
			title = *it.Title
		}
		text := strings.TrimSpace(title + "\n" + it.Body)
		if text == "" {
			continue
		}
		records = append(records, docparse.Record{
			Text: text,
			Meta: map[string]any{
				"source": "cms:" + it.ID,
				"type":   docparse.KindCMS,
				"title":  title,
			},
		})
	}

	n, err := s.Ingest(ctx, records)
	if err != nil {
		return nil, err
	}
	s.log.Info("content items ingested", zap.Int("items", len(records)), zap.Int("chunks", n))
	return &IngestResult{Indexed: n}, nil
}

func (s *IngestService) publish(ctx context.Context, chunks []docparse.Record) {
	if s.publisher == nil {
		return
	}
	counts := make(map[string]int)
	var order []docparse.Record
	for _, ch := range chunks {
		if counts[ch.Source()] == 0 {
			order = append(order, ch)
		}
		counts[ch.Source()]++
	}

	at := s.now().UTC()
	for _, ch := range order {
		rec := model.IngestionRecord{
			Source:     ch.Source(),
			Kind:       ch.Kind(),
			Chunks:     counts[ch.Source()],
			Collection: s.collection,
			IngestedAt: at,
		}
		if err := s.publisher.PublishIngestion(ctx, rec); err != nil {
			s.log.Warn("publish ingestion event failed", zap.String("source", rec.Source), zap.Error(err))
		}
	}
}
