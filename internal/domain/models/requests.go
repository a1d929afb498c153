package models

// Requests for market HTTP endpoints. Defined in domain for consistency and reuse.

type PriceHistoryRequest struct {
	Product string `query:"product" json:"product" validate:"required"`
	Range   string `query:"range" json:"range" default:"90d"`
}

type ForecastRequest struct {
	Product string `query:"product" json:"product" validate:"required"`
	Days    int    `query:"days" json:"days" validate:"omitempty,gte=1,lte=365"`
}

type VolatilityRequest struct {
	Product string `query:"product" json:"product" validate:"required"`
	Range   string `query:"range" json:"range" default:"30d"`
}

type SignalsRequest struct {
	Product string `query:"product" json:"product" validate:"required"`
	Days    int    `query:"days" json:"days" default:"7" validate:"gte=1,lte=365"`
	Range   string `query:"range" json:"range" default:"30d"`
}

type CreateListingRequest struct {
	Product      string  `json:"product" validate:"required"`
	Seller       string  `json:"seller" validate:"required"`
	QuantityTons float64 `json:"quantityTons" validate:"gt=0"`
	PricePerTon  float64 `json:"pricePerTon" validate:"gt=0"`
	Region       string  `json:"region" validate:"required"`
	Province     string  `json:"province"`
	Grade        string  `json:"grade" default:"standard" validate:"oneof=premium standard feed"`
	Moisture     float64 `json:"moisture" validate:"gte=0,lte=100"`
	Protein      float64 `json:"protein" validate:"gte=0,lte=100"`
}

type CreateDeviceRequest struct {
	Name string `json:"name" validate:"required"`
	Type string `json:"type" default:"silo" validate:"oneof=silo dryer scale probe"`
}

type UpdateReadingRequest struct {
	Moisture *float64 `json:"moisture" validate:"omitempty,gte=0,lte=100"`
	Temp     *float64 `json:"temp" validate:"omitempty,gte=-50,lte=120"`
	WeightKg *float64 `json:"weightKg" validate:"omitempty,gte=0"`
}
