package analytics

import (
	"math"

	"AgroPulse/internal/domain/models"
)

// CalculateVolatility scores a chronological price sequence by the
// population standard deviation of its simple period returns,
// expressed as a percentage and bucketed into three levels.
func CalculateVolatility(prices []float64) models.VolatilityScore {
	if len(prices) < 2 {
		return models.VolatilityScore{
			Level:       models.VolatilityLow,
			Percentage:  0,
			Explanation: "insufficient data",
		}
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))

	pct := math.Round(math.Sqrt(variance)*100*10) / 10

	switch {
	case pct < 5:
		return models.VolatilityScore{
			Level:       models.VolatilityLow,
			Percentage:  pct,
			Explanation: "prices are stable with minor day-to-day movement",
		}
	case pct < 10:
		return models.VolatilityScore{
			Level:       models.VolatilityMedium,
			Percentage:  pct,
			Explanation: "moderate price swings, monitor the market closely",
		}
	default:
		return models.VolatilityScore{
			Level:       models.VolatilityHigh,
			Percentage:  pct,
			Explanation: "large price swings, high risk for open positions",
		}
	}
}
