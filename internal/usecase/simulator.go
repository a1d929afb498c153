package usecase

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"AgroPulse/internal/domain/models"
	domrepo "AgroPulse/internal/domain/repository"
	"AgroPulse/pkg/logger"
)

const (
	defaultPriceTickPeriod = 5 * time.Second
	defaultIotTickPeriod   = 4 * time.Second

	priceJitter = 500.0

	defaultMoisture = 9.0
	defaultTemp     = 28.0
	defaultWeightKg = 12000.0
)

// Simulator drives the two synthetic market generators: a price tick
// that broadcasts a random quote around each product's base price, and
// an IoT tick that perturbs one device's reading and broadcasts the
// delta. Ticks are periodic with no jitter; prices are never written
// into history.
type Simulator struct {
	products    []string
	basePrices  map[string]float64
	devices     domrepo.DeviceStore
	broadcaster domrepo.Broadcaster
	metrics     domrepo.Metrics
	log         *logger.Logger

	pricePeriod time.Duration
	iotPeriod   time.Duration

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

type SimulatorOption func(*Simulator)

// WithTickPeriods overrides the generator periods.
func WithTickPeriods(price, iot time.Duration) SimulatorOption {
	return func(s *Simulator) {
		if price > 0 {
			s.pricePeriod = price
		}
		if iot > 0 {
			s.iotPeriod = iot
		}
	}
}

// WithRand injects a seeded random source.
func WithRand(rng *rand.Rand) SimulatorOption {
	return func(s *Simulator) {
		s.rng = rng
	}
}

func NewSimulator(basePrices map[string]float64, devices domrepo.DeviceStore, broadcaster domrepo.Broadcaster, metrics domrepo.Metrics, log *logger.Logger, opts ...SimulatorOption) *Simulator {
	products := make([]string, 0, len(basePrices))
	for p := range basePrices {
		products = append(products, p)
	}
	s := &Simulator{
		products:    products,
		basePrices:  basePrices,
		devices:     devices,
		broadcaster: broadcaster,
		metrics:     metrics,
		log:         log,
		pricePeriod: defaultPriceTickPeriod,
		iotPeriod:   defaultIotTickPeriod,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs both generators until ctx is cancelled.
func (s *Simulator) Start(ctx context.Context) {
	go s.runPriceTicks(ctx)
	go s.runIotTicks(ctx)
	s.log.Info("simulator started",
		logger.Duration("price_period", s.pricePeriod),
		logger.Duration("iot_period", s.iotPeriod),
		logger.Int("products", len(s.products)))
}

func (s *Simulator) runPriceTicks(ctx context.Context) {
	ticker := time.NewTicker(s.pricePeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EmitPriceTick()
		}
	}
}

func (s *Simulator) runIotTicks(ctx context.Context) {
	ticker := time.NewTicker(s.iotPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EmitIotTick(ctx)
		}
	}
}

// EmitPriceTick broadcasts one synthetic quote: a uniformly chosen
// product at its base price plus uniform noise in [-500, +500].
func (s *Simulator) EmitPriceTick() models.MarketEvent {
	s.mu.Lock()
	product := s.products[s.rng.Intn(len(s.products))]
	noise := (s.rng.Float64() - 0.5) * 2 * priceJitter
	s.mu.Unlock()

	price := s.basePrices[product] + noise
	e := models.NewPriceUpdate(product, price, s.now())
	s.broadcaster.Broadcast(e)
	s.metrics.RecordLastPrice(product, price)
	return e
}

// EmitIotTick perturbs one randomly chosen device's reading, persists
// it, and broadcasts the new values. Devices with no prior reading
// start from the fleet defaults.
func (s *Simulator) EmitIotTick(ctx context.Context) (models.MarketEvent, bool) {
	devices, err := s.devices.List(ctx)
	if err != nil || len(devices) == 0 {
		return models.MarketEvent{}, false
	}

	s.mu.Lock()
	d := devices[s.rng.Intn(len(devices))]
	moisture := valueOr(d.CurrentReading.Moisture, defaultMoisture) + (s.rng.Float64()-0.5)*0.3
	temp := valueOr(d.CurrentReading.Temp, defaultTemp) + (s.rng.Float64()-0.5)*0.8
	weight := valueOr(d.CurrentReading.WeightKg, defaultWeightKg) + (s.rng.Float64()-0.5)*50
	s.mu.Unlock()

	reading := models.Reading{Moisture: &moisture, Temp: &temp, WeightKg: &weight}
	updated, err := s.devices.UpdateReading(ctx, d.ID, reading)
	if err != nil {
		s.metrics.RecordError("iot_tick_update")
		s.log.Warn("iot tick update", logger.Error(err), logger.String("device", d.ID))
		return models.MarketEvent{}, false
	}

	e := models.NewIotUpdate(updated.ID, updated.CurrentReading, s.now())
	s.broadcaster.Broadcast(e)
	return e, true
}

func valueOr(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}
