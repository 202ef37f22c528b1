package state

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"folio/internal/registry/models"
)

var (
	bucketRegistry = []byte("registry")
	keySnapshot    = []byte("snapshot")
)

// Bolt is a bbolt-backed Store. The working copy lives in memory; every
// successful Update writes a full gob snapshot inside a bbolt transaction
// before the staged state becomes current, so a crash can never surface a
// half-applied operation.
type Bolt struct {
	mu      sync.RWMutex
	db      *bbolt.DB
	current *Registry
}

// OpenBolt opens or creates the state database at dbPath. When the database
// holds no snapshot the store is seeded with initial; otherwise initial is
// ignored and the persisted state wins. The parent directory is created if
// it does not exist.
func OpenBolt(dbPath string, initial *Registry) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("state: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("state: open bolt db: %w", err)
	}

	var current *Registry
	err = db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketRegistry)
		if err != nil {
			return fmt.Errorf("state: create bucket: %w", err)
		}
		if raw := b.Get(keySnapshot); raw != nil {
			loaded, err := decodeSnapshot(raw)
			if err != nil {
				return err
			}
			current = loaded
			return nil
		}
		raw, err := encodeSnapshot(initial)
		if err != nil {
			return err
		}
		if err := b.Put(keySnapshot, raw); err != nil {
			return fmt.Errorf("state: seed snapshot: %w", err)
		}
		current = initial
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Bolt{db: db, current: current}, nil
}

func (s *Bolt) View(ctx context.Context, fn func(*Registry) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.current)
}

func (s *Bolt) Update(ctx context.Context, fn func(*Registry) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.current.Clone()
	if err := fn(staged); err != nil {
		return err
	}
	raw, err := encodeSnapshot(staged)
	if err != nil {
		return err
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRegistry).Put(keySnapshot, raw)
	})
	if err != nil {
		return fmt.Errorf("state: persist snapshot: %w", err)
	}
	s.current = staged
	return nil
}

func (s *Bolt) Close() error { return s.db.Close() }

func encodeSnapshot(r *Registry) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return nil, fmt.Errorf("state: encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeSnapshot(raw []byte) (*Registry, error) {
	var r Registry
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&r); err != nil {
		return nil, fmt.Errorf("state: decode snapshot: %w", err)
	}
	// gob drops empty maps; writers expect them allocated.
	if r.Admins == nil {
		r.Admins = make(map[models.Address]struct{})
	}
	if r.Blacklist == nil {
		r.Blacklist = make(map[models.Address]struct{})
	}
	if r.Pages == nil {
		r.Pages = make(map[models.PageID]models.Page)
	}
	if r.Sequences == nil {
		r.Sequences = make(map[models.Address]uint64)
	}
	if r.NameToPage == nil {
		r.NameToPage = make(map[string]models.PageID)
	}
	if r.PageToName == nil {
		r.PageToName = make(map[models.PageID]string)
	}
	if r.Expiries == nil {
		r.Expiries = make(map[models.PageID]time.Time)
	}
	return &r, nil
}
