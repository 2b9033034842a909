// Package memory provides an in-process document store for development and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type record struct {
	collection    entity.Collection
	partitionKey  string
	shortCode     string
	dateGenerated time.Time
	data          []byte
}

// Store keeps serialized documents keyed by id. Reads decode a fresh copy,
// so callers never share state with the store.
type Store struct {
	mu    sync.RWMutex
	items map[uuid.UUID]record
}

func New() *Store {
	return &Store{
		items: make(map[uuid.UUID]record),
	}
}

func (s *Store) Upsert(ctx context.Context, doc entity.Document) (int, error) {
	const op = "adapter.repository.memory.Store.Upsert"

	if doc == nil {
		return 0, fmt.Errorf("%s: document is nil: %w", op, entity.ErrInvalidArgument)
	}

	data, err := doc.MarshalJSON()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to marshal document: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	status := http.StatusCreated
	if _, ok := s.items[doc.ID()]; ok {
		status = http.StatusOK
	}

	s.items[doc.ID()] = record{
		collection:    doc.Collection(),
		partitionKey:  doc.PartitionKey(),
		shortCode:     doc.LookupCode(),
		dateGenerated: doc.DateGenerated(),
		data:          data,
	}

	return status, nil
}

// match returns the records accepted by keep, oldest first.
func (s *Store) match(keep func(record) bool) []record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []record
	for _, r := range s.items {
		if keep(r) {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].dateGenerated.Before(out[j].dateGenerated)
	})

	return out
}

func (s *Store) GetURLByCode(ctx context.Context, code string) (*entity.URL, error) {
	const op = "adapter.repository.memory.Store.GetURLByCode"

	if code == "" {
		return nil, fmt.Errorf("%s: short code is empty: %w", op, entity.ErrInvalidArgument)
	}

	found := s.match(func(r record) bool {
		return r.collection == entity.CollectionURL && r.shortCode == code
	})
	if len(found) == 0 {
		return nil, nil
	}

	var u entity.URL
	if err := json.Unmarshal(found[len(found)-1].data, &u); err != nil {
		return nil, fmt.Errorf("%s: failed to decode url: %w", op, err)
	}

	return &u, nil
}

func (s *Store) GetURLsByOwner(ctx context.Context, owner string) ([]*entity.URL, error) {
	const op = "adapter.repository.memory.Store.GetURLsByOwner"

	if owner == "" {
		return nil, fmt.Errorf("%s: owner is empty: %w", op, entity.ErrInvalidArgument)
	}

	found := s.match(func(r record) bool {
		return r.collection == entity.CollectionURL && r.partitionKey == owner
	})

	urls := make([]*entity.URL, 0, len(found))
	for _, r := range found {
		var u entity.URL
		if err := json.Unmarshal(r.data, &u); err != nil {
			return nil, fmt.Errorf("%s: failed to decode url: %w", op, err)
		}
		urls = append(urls, &u)
	}

	return urls, nil
}

func (s *Store) GetVisitsByCode(ctx context.Context, code string) ([]*entity.Visit, error) {
	const op = "adapter.repository.memory.Store.GetVisitsByCode"

	if code == "" {
		return nil, fmt.Errorf("%s: short code is empty: %w", op, entity.ErrInvalidArgument)
	}

	found := s.match(func(r record) bool {
		return r.collection == entity.CollectionVisit && r.shortCode == code
	})

	visits := make([]*entity.Visit, 0, len(found))
	for _, r := range found {
		var v entity.Visit
		if err := json.Unmarshal(r.data, &v); err != nil {
			return nil, fmt.Errorf("%s: failed to decode visit: %w", op, err)
		}
		visits = append(visits, &v)
	}

	return visits, nil
}
