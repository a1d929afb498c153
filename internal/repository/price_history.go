package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"AgroPulse/internal/domain/models"
	"AgroPulse/internal/domain/repository"
)

// MemPriceHistory keeps per-product daily aggregates in memory,
// ordered by date ascending.
type MemPriceHistory struct {
	mu     sync.RWMutex
	series map[string][]models.PricePoint
}

func NewMemPriceHistory() *MemPriceHistory {
	return &MemPriceHistory{series: make(map[string][]models.PricePoint)}
}

func (s *MemPriceHistory) List(_ context.Context, product string, from time.Time) ([]models.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pts, ok := s.series[product]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := make([]models.PricePoint, 0, len(pts))
	for _, p := range pts {
		if !p.Date.Before(from) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemPriceHistory) Latest(_ context.Context, product string) (models.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pts := s.series[product]
	if len(pts) == 0 {
		return models.PricePoint{}, repository.ErrNotFound
	}
	return pts[len(pts)-1], nil
}

func (s *MemPriceHistory) Add(_ context.Context, p models.PricePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pts := append(s.series[p.Product], p)
	// Appends are normally in order; re-sort only when the new point
	// lands before the previous tail.
	if n := len(pts); n > 1 && pts[n-1].Date.Before(pts[n-2].Date) {
		sort.Slice(pts, func(i, j int) bool { return pts[i].Date.Before(pts[j].Date) })
	}
	s.series[p.Product] = pts
	return nil
}

func (s *MemPriceHistory) Products(_ context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.series))
	for k := range s.series {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
