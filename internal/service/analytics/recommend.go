package analytics

import (
	"math"

	"AgroPulse/internal/domain/models"
)

// ExportPriceThreshold marks the price above which export markets
// become attractive regardless of the short-term trend.
const ExportPriceThreshold = 45000

// Recommend derives a trading action from the near-term forecast and
// the latest known price, using the default export threshold. The
// 7-day forecast average intentionally keeps a fixed divisor of 7 even
// when fewer entries exist, so a short forecast reads as a sharp
// expected decline.
func Recommend(forecast []models.ForecastPoint, currentPrice float64) models.Recommendation {
	return RecommendWithThreshold(forecast, currentPrice, ExportPriceThreshold)
}

// RecommendWithThreshold is Recommend with a configurable export
// threshold.
func RecommendWithThreshold(forecast []models.ForecastPoint, currentPrice, exportThreshold float64) models.Recommendation {
	if len(forecast) == 0 {
		return models.Recommendation{
			Action:     models.ActionHold,
			Confidence: 50,
			Reason:     "insufficient data",
		}
	}

	n := len(forecast)
	if n > 7 {
		n = 7
	}
	var sum float64
	for _, f := range forecast[:n] {
		sum += float64(f.Predicted)
	}
	avgForecast7 := sum / 7

	pct := (avgForecast7 - currentPrice) / currentPrice * 100

	switch {
	case pct > 5:
		return models.Recommendation{
			Action:     models.ActionHold,
			Confidence: clampConfidence(70 + pct),
			Reason:     "prices are rising, hold for better returns",
		}
	case pct > 2:
		return models.Recommendation{
			Action:     models.ActionStore,
			Confidence: 75,
			Reason:     "moderate increase expected, short-term storage should pay off",
		}
	case pct < -3:
		return models.Recommendation{
			Action:     models.ActionSell,
			Confidence: clampConfidence(80 + math.Abs(pct)),
			Reason:     "a decline is expected, consider selling soon",
		}
	case currentPrice > exportThreshold:
		return models.Recommendation{
			Action:     models.ActionExport,
			Confidence: 85,
			Reason:     "premium pricing, explore export markets",
		}
	default:
		return models.Recommendation{
			Action:     models.ActionHold,
			Confidence: 60,
			Reason:     "stable conditions",
		}
	}
}

func clampConfidence(v float64) int {
	if v > 95 {
		v = 95
	}
	return int(math.Round(v))
}
