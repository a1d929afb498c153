package models

import "time"

// PricePoint is one trading day's aggregate for a product. Immutable
// once recorded; series are ordered by date ascending.
type PricePoint struct {
	Product  string    `json:"product"`
	Date     time.Time `json:"date"`
	AvgPrice float64   `json:"avgPrice"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Volume   float64   `json:"volume"`
}

// ForecastPoint is one projected future day. Lower <= Predicted <= Upper.
type ForecastPoint struct {
	Date      time.Time `json:"date"`
	Predicted int       `json:"predicted"`
	Lower     int       `json:"lower"`
	Upper     int       `json:"upper"`
}

// Volatility levels.
const (
	VolatilityLow    = "low"
	VolatilityMedium = "medium"
	VolatilityHigh   = "high"
)

// VolatilityScore classifies recent price movement.
type VolatilityScore struct {
	Level       string  `json:"level"`
	Percentage  float64 `json:"percentage"`
	Explanation string  `json:"explanation"`
}

// Recommendation actions.
const (
	ActionHold   = "Hold"
	ActionSell   = "Sell"
	ActionStore  = "Store"
	ActionExport = "Export"
)

// Recommendation is a trading suggestion derived from a forecast and
// the current price. Confidence is clamped to [0,100].
type Recommendation struct {
	Action     string  `json:"action"`
	Confidence int     `json:"confidence"`
	Reason     string  `json:"reason"`
}

// MarketSignals bundles the derived analytics for one product.
type MarketSignals struct {
	Product        string          `json:"product"`
	CurrentPrice   float64         `json:"currentPrice"`
	Forecast       []ForecastPoint `json:"forecast"`
	Volatility     VolatilityScore `json:"volatility"`
	Recommendation Recommendation  `json:"recommendation"`
	GeneratedAt    time.Time       `json:"generatedAt"`
}
