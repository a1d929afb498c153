package models

import "time"

// EventType discriminates MarketEvent frames on the wire.
type EventType string

const (
	EventPriceUpdate EventType = "price_update"
	EventNewListing  EventType = "new_listing"
	EventIotUpdate   EventType = "iot_update"
)

// MarketEvent is the tagged union broadcast over the realtime channel.
// Exactly one variant's fields are set, selected by Type. Events are
// ephemeral; they exist only in transit and are never persisted.
type MarketEvent struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// price_update
	Product     string  `json:"product,omitempty"`
	PricePerTon float64 `json:"pricePerTon,omitempty"`

	// new_listing
	Listing *Listing `json:"listing,omitempty"`

	// iot_update
	DeviceID string   `json:"deviceId,omitempty"`
	Moisture *float64 `json:"moisture,omitempty"`
	Temp     *float64 `json:"temp,omitempty"`
	WeightKg *float64 `json:"weightKg,omitempty"`
}

// NewPriceUpdate builds a price_update event.
func NewPriceUpdate(product string, pricePerTon float64, ts time.Time) MarketEvent {
	return MarketEvent{
		Type:        EventPriceUpdate,
		Timestamp:   ts,
		Product:     product,
		PricePerTon: pricePerTon,
	}
}

// NewListingEvent builds a new_listing event.
func NewListingEvent(l *Listing, ts time.Time) MarketEvent {
	return MarketEvent{
		Type:      EventNewListing,
		Timestamp: ts,
		Listing:   l,
	}
}

// NewIotUpdate builds an iot_update event carrying the updated reading.
func NewIotUpdate(deviceID string, r Reading, ts time.Time) MarketEvent {
	return MarketEvent{
		Type:      EventIotUpdate,
		Timestamp: ts,
		DeviceID:  deviceID,
		Moisture:  r.Moisture,
		Temp:      r.Temp,
		WeightKg:  r.WeightKg,
	}
}

// Valid reports whether the event carries a known type tag.
func (e MarketEvent) Valid() bool {
	switch e.Type {
	case EventPriceUpdate, EventNewListing, EventIotUpdate:
		return true
	}
	return false
}

// Key returns the partitioning key for the event: the product for price
// updates, the device for IoT updates, the listing product otherwise.
func (e MarketEvent) Key() string {
	switch e.Type {
	case EventIotUpdate:
		return e.DeviceID
	case EventNewListing:
		if e.Listing != nil {
			return e.Listing.Product
		}
	}
	return e.Product
}
