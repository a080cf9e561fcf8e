package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var pgIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PGVector stores points in a PostgreSQL table using the vector extension.
// The table is named "<collection>_points".
type PGVector struct {
	db    *gorm.DB
	table string
}

type pgPoint struct {
	ID        string          `gorm:"column:id;primaryKey"`
	Source    string          `gorm:"column:source"`
	Embedding pgvector.Vector `gorm:"column:embedding"`
	Payload   datatypes.JSON  `gorm:"column:payload"`
}

func NewPGVector(db *gorm.DB, collection string) (*PGVector, error) {
	table := collection + "_points"
	if !pgIdentifier.MatchString(table) {
		return nil, fmt.Errorf("invalid pgvector collection name %q", collection)
	}
	return &PGVector{db: db, table: table}, nil
}

func (s *PGVector) EnsureCollection(ctx context.Context, dim int) error {
	existing, err := s.dimension(ctx)
	if err != nil {
		return err
	}
	if existing > 0 {
		if existing != dim {
			return fmt.Errorf("%w: table %s has %d, want %d", ErrDimensionMismatch, s.table, existing, dim)
		}
		return nil
	}
	return s.create(ctx, dim)
}

func (s *PGVector) Recreate(ctx context.Context, dim int) error {
	if err := s.db.WithContext(ctx).Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", s.table)).Error; err != nil {
		return fmt.Errorf("drop pgvector table failed: %w", err)
	}
	return s.create(ctx, dim)
}

func (s *PGVector) create(ctx context.Context, dim int) error {
	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id uuid PRIMARY KEY,
			source text NOT NULL,
			embedding vector(%d) NOT NULL,
			payload jsonb NOT NULL
		)`, s.table, dim),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_source_idx ON %s (source)", s.table, s.table),
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range stmts {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("create pgvector table failed: %w", err)
			}
		}
		return nil
	})
}

// dimension reads the declared vector size of the embedding column, 0 when
// the table does not exist.
func (s *PGVector) dimension(ctx context.Context) (int, error) {
	var dims []int
	err := s.db.WithContext(ctx).Raw(
		`SELECT a.atttypmod FROM pg_attribute a
		 JOIN pg_class c ON c.oid = a.attrelid
		 WHERE c.relname = ? AND a.attname = 'embedding' AND NOT a.attisdropped`, s.table,
	).Scan(&dims).Error
	if err != nil {
		return 0, fmt.Errorf("read pgvector dimension failed: %w", err)
	}
	if len(dims) == 0 {
		return 0, nil
	}
	return dims[0], nil
}

func (s *PGVector) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	rows := make([]pgPoint, len(points))
	for i, p := range points {
		payload, err := json.Marshal(p.Payload)
		if err != nil {
			return fmt.Errorf("marshal point payload failed: %w", err)
		}
		rows[i] = pgPoint{
			ID:        p.ID,
			Source:    p.Payload.Source(),
			Embedding: pgvector.NewVector(p.Vector),
			Payload:   datatypes.JSON(payload),
		}
	}
	if err := s.db.WithContext(ctx).Table(s.table).CreateInBatches(rows, 200).Error; err != nil {
		return fmt.Errorf("upsert pgvector points failed: %w", err)
	}
	return nil
}

func (s *PGVector) Search(ctx context.Context, vector []float32, limit int, source string) ([]Result, error) {
	type scored struct {
		Payload    datatypes.JSON
		Similarity float64
	}
	var rows []scored

	queryVector := pgvector.NewVector(vector)
	q := s.db.WithContext(ctx).
		Table(s.table).
		Select("payload, 1 - (embedding <=> ?) AS similarity", queryVector)
	if source != "" {
		q = q.Where("source = ?", source)
	}
	err := q.Order(gorm.Expr("embedding <=> ?", queryVector)).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("search pgvector points failed: %w", err)
	}

	results := make([]Result, 0, len(rows))
	for _, r := range rows {
		payload := Payload{}
		if err := json.Unmarshal(r.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decode point payload failed: %w", err)
		}
		results = append(results, Result{Score: r.Similarity, Payload: payload})
	}
	return results, nil
}

func (s *PGVector) Count(ctx context.Context) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Table(s.table).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count pgvector points failed: %w", err)
	}
	return int(n), nil
}

func (s *PGVector) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
