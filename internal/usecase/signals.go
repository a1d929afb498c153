package usecase

import (
	"context"
	"time"

	"AgroPulse/internal/domain/models"
	domrepo "AgroPulse/internal/domain/repository"
	"AgroPulse/internal/service/analytics"
	"AgroPulse/pkg/cache"
	"AgroPulse/pkg/logger"
	"AgroPulse/pkg/util"
)

const (
	defaultSignalsTTL  = 30 * time.Second
	defaultForecastLen = 30
)

// MarketSignals serves the analytics surface: history windows,
// forecasts, volatility scores, and combined trading signals. Derived
// results are cached briefly since history only changes daily while
// the UI polls much more often.
type MarketSignals struct {
	history domrepo.PriceHistory
	engine  *analytics.Engine
	cache   cache.Service
	ttl     time.Duration
	days    int
	export  float64
	metrics domrepo.Metrics
	log     *logger.Logger
	now     func() time.Time
}

type SignalsOption func(*MarketSignals)

// WithCacheTTL overrides the derived-result cache TTL.
func WithCacheTTL(ttl time.Duration) SignalsOption {
	return func(u *MarketSignals) {
		if ttl > 0 {
			u.ttl = ttl
		}
	}
}

// WithDefaultForecastDays sets the horizon used when a request leaves
// days unset.
func WithDefaultForecastDays(n int) SignalsOption {
	return func(u *MarketSignals) {
		if n > 0 {
			u.days = n
		}
	}
}

// WithExportThreshold overrides the price above which the Export
// recommendation applies.
func WithExportThreshold(v float64) SignalsOption {
	return func(u *MarketSignals) {
		if v > 0 {
			u.export = v
		}
	}
}

func NewMarketSignals(history domrepo.PriceHistory, engine *analytics.Engine, c cache.Service, metrics domrepo.Metrics, log *logger.Logger, opts ...SignalsOption) *MarketSignals {
	u := &MarketSignals{
		history: history,
		engine:  engine,
		cache:   c,
		ttl:     defaultSignalsTTL,
		days:    defaultForecastLen,
		export:  analytics.ExportPriceThreshold,
		metrics: metrics,
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// PriceHistory returns the product's daily aggregates inside the
// trailing range, e.g. "90d".
func (u *MarketSignals) PriceHistory(ctx context.Context, product, rng string) ([]models.PricePoint, error) {
	days := util.ParseRangeDays(rng, 90)
	from := util.Midnight(u.now()).AddDate(0, 0, -days)
	return u.history.List(ctx, product, from)
}

// Forecast projects the product's price for the requested horizon. A
// non-positive horizon falls back to the configured default.
func (u *MarketSignals) Forecast(ctx context.Context, product string, days int) ([]models.ForecastPoint, error) {
	if days <= 0 {
		days = u.days
	}
	key := cache.Key("forecast", product, days)
	var cached []models.ForecastPoint
	if err := u.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	start := time.Now()
	pts, err := u.history.List(ctx, product, time.Time{})
	if err != nil {
		return nil, err
	}
	fc := u.engine.Forecast(pts, days)
	u.metrics.RecordLatency("forecast", time.Since(start).Seconds())

	if err := u.cache.Set(ctx, key, fc, u.ttl); err != nil {
		u.log.Warn("cache forecast", logger.Error(err))
	}
	return fc, nil
}

// Volatility scores the product's price movement over the trailing range.
func (u *MarketSignals) Volatility(ctx context.Context, product, rng string) (models.VolatilityScore, error) {
	days := util.ParseRangeDays(rng, 30)
	from := util.Midnight(u.now()).AddDate(0, 0, -days)
	pts, err := u.history.List(ctx, product, from)
	if err != nil {
		return models.VolatilityScore{}, err
	}
	prices := make([]float64, len(pts))
	for i, p := range pts {
		prices[i] = p.AvgPrice
	}
	return analytics.CalculateVolatility(prices), nil
}

// Signals bundles forecast, volatility, and a recommendation for the
// product into one cached response.
func (u *MarketSignals) Signals(ctx context.Context, product string, days int, rng string) (models.MarketSignals, error) {
	key := cache.Key("signals", product, days, rng)
	var cached models.MarketSignals
	if err := u.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	latest, err := u.history.Latest(ctx, product)
	if err != nil {
		return models.MarketSignals{}, err
	}

	fc, err := u.Forecast(ctx, product, days)
	if err != nil {
		return models.MarketSignals{}, err
	}
	vol, err := u.Volatility(ctx, product, rng)
	if err != nil {
		return models.MarketSignals{}, err
	}

	out := models.MarketSignals{
		Product:        product,
		CurrentPrice:   latest.AvgPrice,
		Forecast:       fc,
		Volatility:     vol,
		Recommendation: analytics.RecommendWithThreshold(fc, latest.AvgPrice, u.export),
		GeneratedAt:    u.now(),
	}
	u.metrics.RecordLastPrice(product, latest.AvgPrice)

	if err := u.cache.Set(ctx, key, out, u.ttl); err != nil {
		u.log.Warn("cache signals", logger.Error(err))
	}
	return out, nil
}
