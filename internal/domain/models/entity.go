package models

import "time"

// Reading is an IoT device's current sensor snapshot. Fields are
// pointers because a device may report any subset.
type Reading struct {
	Moisture *float64 `json:"moisture,omitempty"`
	Temp     *float64 `json:"temp,omitempty"`
	WeightKg *float64 `json:"weightKg,omitempty"`
}

// IotDevice is a registered sensor unit. The store owns the
// authoritative copy; the IoT tick generator mutates CurrentReading
// through the store on a timer.
type IotDevice struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	CurrentReading Reading   `json:"currentReading"`
	LastUpdate     time.Time `json:"lastUpdate"`
}

// Location is a structured listing location.
type Location struct {
	Region   string `json:"region"`
	Province string `json:"province,omitempty"`
}

// Quality describes the graded quality of a listed lot.
type Quality struct {
	Grade    string  `json:"grade"`
	Moisture float64 `json:"moisture,omitempty"`
	Protein  float64 `json:"protein,omitempty"`
}

// Listing is a marketplace offer for a product lot.
type Listing struct {
	ID           string    `json:"id"`
	Product      string    `json:"product"`
	Seller       string    `json:"seller"`
	QuantityTons float64   `json:"quantityTons"`
	PricePerTon  float64   `json:"pricePerTon"`
	Location     Location  `json:"location"`
	Quality      Quality   `json:"quality"`
	CreatedAt    time.Time `json:"createdAt"`
}
