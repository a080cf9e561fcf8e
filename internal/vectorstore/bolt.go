package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

var bucketMeta = []byte("meta")

// Bolt persists points in a single bbolt file, one bucket per collection,
// and mirrors them in memory for brute-force search.
type Bolt struct {
	db         *bbolt.DB
	collection []byte

	mu      sync.RWMutex
	dim     int
	entries map[string]entry
}

type boltPoint struct {
	Vector  []float32 `json:"v"`
	Payload Payload   `json:"p"`
}

func OpenBolt(path, collection string) (*Bolt, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create bolt dir failed: %w", err)
		}
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 3 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store failed: %w", err)
	}
	s := &Bolt{db: db, collection: []byte(collection), entries: make(map[string]entry)}
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Bolt) load() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		if meta := tx.Bucket(bucketMeta); meta != nil {
			if raw := meta.Get(s.dimKey()); raw != nil {
				dim, err := strconv.Atoi(string(raw))
				if err != nil {
					return fmt.Errorf("parse stored dimension failed: %w", err)
				}
				s.dim = dim
			}
		}
		b := tx.Bucket(s.collection)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var p boltPoint
			if err := json.Unmarshal(v, &p); err != nil {
				return fmt.Errorf("decode point %s failed: %w", k, err)
			}
			s.entries[string(k)] = entry{vector: p.Vector, payload: p.Payload}
			return nil
		})
	})
}

func (s *Bolt) EnsureCollection(_ context.Context, dim int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dim != 0 {
		if s.dim != dim {
			return fmt.Errorf("%w: collection %s has %d, want %d", ErrDimensionMismatch, s.collection, s.dim, dim)
		}
		return nil
	}
	return s.create(dim, false)
}

func (s *Bolt) Recreate(_ context.Context, dim int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.create(dim, true)
}

func (s *Bolt) create(dim int, drop bool) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if drop && tx.Bucket(s.collection) != nil {
			if err := tx.DeleteBucket(s.collection); err != nil {
				return err
			}
		}
		if _, err := tx.CreateBucketIfNotExists(s.collection); err != nil {
			return err
		}
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		return meta.Put(s.dimKey(), []byte(strconv.Itoa(dim)))
	})
	if err != nil {
		return fmt.Errorf("create bolt collection failed: %w", err)
	}
	s.dim = dim
	if drop {
		s.entries = make(map[string]entry)
	}
	return nil
}

func (s *Bolt) Upsert(_ context.Context, points []Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dim == 0 {
		return ErrNoCollection
	}
	if err := checkDims(points, s.dim); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.collection)
		if b == nil {
			return ErrNoCollection
		}
		for _, p := range points {
			data, err := json.Marshal(boltPoint{Vector: p.Vector, Payload: p.Payload})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(p.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert bolt points failed: %w", err)
	}
	for _, p := range points {
		s.entries[p.ID] = entry{vector: p.Vector, payload: clonePayload(p.Payload)}
	}
	return nil
}

func (s *Bolt) Search(_ context.Context, vector []float32, limit int, source string) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return bruteForce(s.entries, vector, limit, source), nil
}

func (s *Bolt) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func (s *Bolt) Close() error {
	return s.db.Close()
}

func (s *Bolt) dimKey() []byte {
	return append([]byte("dim:"), s.collection...)
}
