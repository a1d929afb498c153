package usecase

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"testing"

	"AgroPulse/internal/domain/models"
)

type collectingBroadcaster struct {
	mu     sync.Mutex
	events []models.MarketEvent
}

func (b *collectingBroadcaster) Broadcast(e models.MarketEvent) {
	b.mu.Lock()
	b.events = append(b.events, e)
	b.mu.Unlock()
}

func (b *collectingBroadcaster) Clients() int { return 0 }

type memDevices struct {
	mu      sync.Mutex
	devices map[string]models.IotDevice
}

func newMemDevices() *memDevices {
	return &memDevices{devices: make(map[string]models.IotDevice)}
}

func (s *memDevices) Get(_ context.Context, id string) (models.IotDevice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.devices[id], nil
}

func (s *memDevices) List(_ context.Context) ([]models.IotDevice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.IotDevice, 0, len(s.devices))
	for _, d := range s.devices {
		out = append(out, d)
	}
	return out, nil
}

func (s *memDevices) Create(_ context.Context, d models.IotDevice) (models.IotDevice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices[d.ID] = d
	return d, nil
}

func (s *memDevices) UpdateReading(_ context.Context, id string, r models.Reading) (models.IotDevice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.devices[id]
	if r.Moisture != nil {
		d.CurrentReading.Moisture = r.Moisture
	}
	if r.Temp != nil {
		d.CurrentReading.Temp = r.Temp
	}
	if r.WeightKg != nil {
		d.CurrentReading.WeightKg = r.WeightKg
	}
	s.devices[id] = d
	return d, nil
}

var testBasePrices = map[string]float64{
	"soymeal":        42000,
	"sunflower_cake": 38500,
	"husk":           12000,
	"specialty":      55000,
}

func newTestSimulator(t *testing.T, devices *memDevices, b *collectingBroadcaster) *Simulator {
	t.Helper()
	return NewSimulator(testBasePrices, devices, b, nopMetrics{}, usecaseLogger(t),
		WithRand(rand.New(rand.NewSource(7))))
}

func TestPriceTickStaysInBand(t *testing.T) {
	b := &collectingBroadcaster{}
	s := newTestSimulator(t, newMemDevices(), b)

	for i := 0; i < 200; i++ {
		e := s.EmitPriceTick()
		if e.Type != models.EventPriceUpdate {
			t.Fatalf("unexpected event type %s", e.Type)
		}
		base, ok := testBasePrices[e.Product]
		if !ok {
			t.Fatalf("unknown product %q", e.Product)
		}
		if diff := math.Abs(e.PricePerTon - base); diff > 500 {
			t.Fatalf("price %v outside +/-500 band around %v", e.PricePerTon, base)
		}
		if e.Timestamp.IsZero() {
			t.Fatalf("timestamp missing")
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) != 200 {
		t.Fatalf("each tick must broadcast exactly once, got %d", len(b.events))
	}
}

func TestPriceTickCoversAllProducts(t *testing.T) {
	s := newTestSimulator(t, newMemDevices(), &collectingBroadcaster{})
	seen := make(map[string]bool)
	for i := 0; i < 400; i++ {
		seen[s.EmitPriceTick().Product] = true
	}
	for p := range testBasePrices {
		if !seen[p] {
			t.Fatalf("product %q never picked", p)
		}
	}
}

func TestIotTickPerturbsAndWritesBack(t *testing.T) {
	devices := newMemDevices()
	m, temp, w := 9.0, 28.0, 12000.0
	_, _ = devices.Create(context.Background(), models.IotDevice{
		ID: "dev-1", Name: "Silo A", Type: "silo",
		CurrentReading: models.Reading{Moisture: &m, Temp: &temp, WeightKg: &w},
	})

	b := &collectingBroadcaster{}
	s := newTestSimulator(t, devices, b)

	e, ok := s.EmitIotTick(context.Background())
	if !ok {
		t.Fatalf("expected a tick with one device registered")
	}
	if e.Type != models.EventIotUpdate || e.DeviceID != "dev-1" {
		t.Fatalf("unexpected event %+v", e)
	}
	if math.Abs(*e.Moisture-9.0) > 0.15 {
		t.Fatalf("moisture perturbation too large: %v", *e.Moisture)
	}
	if math.Abs(*e.Temp-28.0) > 0.4 {
		t.Fatalf("temp perturbation too large: %v", *e.Temp)
	}
	if math.Abs(*e.WeightKg-12000.0) > 25 {
		t.Fatalf("weight perturbation too large: %v", *e.WeightKg)
	}

	// The store must hold the broadcast values.
	d, _ := devices.Get(context.Background(), "dev-1")
	if *d.CurrentReading.Moisture != *e.Moisture || *d.CurrentReading.WeightKg != *e.WeightKg {
		t.Fatalf("reading not written back: store %+v event %+v", d.CurrentReading, e)
	}
}

func TestIotTickDefaultsWhenReadingAbsent(t *testing.T) {
	devices := newMemDevices()
	_, _ = devices.Create(context.Background(), models.IotDevice{ID: "bare", Name: "Bare", Type: "probe"})

	s := newTestSimulator(t, devices, &collectingBroadcaster{})
	e, ok := s.EmitIotTick(context.Background())
	if !ok {
		t.Fatalf("expected a tick")
	}
	if math.Abs(*e.Moisture-9.0) > 0.15 || math.Abs(*e.Temp-28.0) > 0.4 || math.Abs(*e.WeightKg-12000.0) > 25 {
		t.Fatalf("defaults not applied: %+v", e)
	}
}

func TestIotTickNoDevices(t *testing.T) {
	s := newTestSimulator(t, newMemDevices(), &collectingBroadcaster{})
	if _, ok := s.EmitIotTick(context.Background()); ok {
		t.Fatalf("no devices must mean no event")
	}
}
