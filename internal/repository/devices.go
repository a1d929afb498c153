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

// MemDeviceStore holds IoT device records in memory.
type MemDeviceStore struct {
	mu      sync.RWMutex
	devices map[string]models.IotDevice
	now     func() time.Time
}

func NewMemDeviceStore() *MemDeviceStore {
	return &MemDeviceStore{
		devices: make(map[string]models.IotDevice),
		now:     time.Now,
	}
}

func (s *MemDeviceStore) Get(_ context.Context, id string) (models.IotDevice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.devices[id]
	if !ok {
		return models.IotDevice{}, repository.ErrNotFound
	}
	return d, nil
}

func (s *MemDeviceStore) List(_ context.Context) ([]models.IotDevice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.IotDevice, 0, len(s.devices))
	for _, d := range s.devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemDeviceStore) Create(_ context.Context, d models.IotDevice) (models.IotDevice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.LastUpdate = s.now()
	s.devices[d.ID] = d
	return d, nil
}

func (s *MemDeviceStore) UpdateReading(_ context.Context, id string, r models.Reading) (models.IotDevice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.devices[id]
	if !ok {
		return models.IotDevice{}, repository.ErrNotFound
	}
	if r.Moisture != nil {
		d.CurrentReading.Moisture = r.Moisture
	}
	if r.Temp != nil {
		d.CurrentReading.Temp = r.Temp
	}
	if r.WeightKg != nil {
		d.CurrentReading.WeightKg = r.WeightKg
	}
	d.LastUpdate = s.now()
	s.devices[id] = d
	return d, nil
}
