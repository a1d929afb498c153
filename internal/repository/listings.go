package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"AgroPulse/internal/domain/models"
	"AgroPulse/internal/domain/repository"
)

// MemListingStore holds marketplace listings in memory.
type MemListingStore struct {
	mu       sync.RWMutex
	listings map[string]models.Listing
	now      func() time.Time
}

func NewMemListingStore() *MemListingStore {
	return &MemListingStore{
		listings: make(map[string]models.Listing),
		now:      time.Now,
	}
}

func (s *MemListingStore) Get(_ context.Context, id string) (models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.listings[id]
	if !ok {
		return models.Listing{}, repository.ErrNotFound
	}
	return l, nil
}

func (s *MemListingStore) List(_ context.Context) ([]models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Listing, 0, len(s.listings))
	for _, l := range s.listings {
		out = append(out, l)
	}
	// Newest first for marketplace views.
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemListingStore) Create(_ context.Context, l models.Listing) (models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = s.now()
	}
	s.listings[l.ID] = l
	return l, nil
}

// Update overwrites the mutable fields of an existing listing.
func (s *MemListingStore) Update(_ context.Context, l models.Listing) (models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.listings[l.ID]
	if !ok {
		return models.Listing{}, repository.ErrNotFound
	}
	l.CreatedAt = cur.CreatedAt
	s.listings[l.ID] = l
	return l, nil
}

func (s *MemListingStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listings[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.listings, id)
	return nil
}
