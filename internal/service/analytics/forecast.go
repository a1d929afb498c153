package analytics

import (
	"math"
	"sort"

	"AgroPulse/internal/domain/models"
)

const (
	defaultAlpha  = 0.3
	defaultBeta   = 0.1
	defaultWindow = 30
)

// Engine produces price projections with Holt's linear trend method
// (double exponential smoothing) over a bounded trailing window.
type Engine struct {
	alpha  float64
	beta   float64
	window int
}

// EngineOption configures Engine.
type EngineOption func(*Engine)

func WithAlpha(a float64) EngineOption {
	return func(e *Engine) {
		if a > 0 && a < 1 {
			e.alpha = a
		}
	}
}

func WithBeta(b float64) EngineOption {
	return func(e *Engine) {
		if b > 0 && b < 1 {
			e.beta = b
		}
	}
}

func WithWindow(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.window = n
		}
	}
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{alpha: defaultAlpha, beta: defaultBeta, window: defaultWindow}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Forecast projects one point per day from +1 to +days after the last
// observed date. History may arrive in any order; it is sorted by date
// before smoothing. Empty history yields an empty forecast.
func (e *Engine) Forecast(history []models.PricePoint, days int) []models.ForecastPoint {
	if len(history) == 0 || days <= 0 {
		return []models.ForecastPoint{}
	}

	pts := make([]models.PricePoint, len(history))
	copy(pts, history)
	sort.Slice(pts, func(i, j int) bool { return pts[i].Date.Before(pts[j].Date) })

	if len(pts) > e.window {
		pts = pts[len(pts)-e.window:]
	}

	level := pts[0].AvgPrice
	trend := 0.0
	for _, p := range pts[1:] {
		prevLevel := level
		level = e.alpha*p.AvgPrice + (1-e.alpha)*(level+trend)
		trend = e.beta*(level-prevLevel) + (1-e.beta)*trend
	}

	prices := make([]float64, len(pts))
	for i, p := range pts {
		prices[i] = p.AvgPrice
	}
	volPct := CalculateVolatility(prices).Percentage

	lastDate := pts[len(pts)-1].Date
	out := make([]models.ForecastPoint, 0, days)
	for i := 1; i <= days; i++ {
		f := level + trend*float64(i)
		// Keep lower <= predicted <= upper even when a steep downtrend
		// extrapolates past zero.
		halfWidth := math.Abs(1.96 * (volPct / 100) * f)
		out = append(out, models.ForecastPoint{
			Date:      lastDate.AddDate(0, 0, i),
			Predicted: int(math.Round(f)),
			Lower:     int(math.Round(f - halfWidth)),
			Upper:     int(math.Round(f + halfWidth)),
		})
	}
	return out
}
