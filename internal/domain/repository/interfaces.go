package repository

import (
	"context"
	"errors"
	"time"

	"AgroPulse/internal/domain/models"
)

// ErrNotFound is returned by stores when the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// PriceHistory provides ordered daily price aggregates per product.
type PriceHistory interface {
	// List returns points for product with date >= from, ascending by date.
	List(ctx context.Context, product string, from time.Time) ([]models.PricePoint, error)
	// Latest returns the most recent point for product.
	Latest(ctx context.Context, product string) (models.PricePoint, error)
	Add(ctx context.Context, p models.PricePoint) error
	Products(ctx context.Context) []string
}

// DeviceStore owns the authoritative IoT device records.
type DeviceStore interface {
	Get(ctx context.Context, id string) (models.IotDevice, error)
	List(ctx context.Context) ([]models.IotDevice, error)
	Create(ctx context.Context, d models.IotDevice) (models.IotDevice, error)
	// UpdateReading merges the non-nil fields of r into the device's
	// current reading, bumps LastUpdate, and returns the updated device.
	UpdateReading(ctx context.Context, id string, r models.Reading) (models.IotDevice, error)
}

// ListingStore owns marketplace listings.
type ListingStore interface {
	Get(ctx context.Context, id string) (models.Listing, error)
	List(ctx context.Context) ([]models.Listing, error)
	Create(ctx context.Context, l models.Listing) (models.Listing, error)
	Update(ctx context.Context, l models.Listing) (models.Listing, error)
	Delete(ctx context.Context, id string) error
}

// Broadcaster fans a market event out to all connected subscribers.
type Broadcaster interface {
	Broadcast(e models.MarketEvent)
	Clients() int
}

// EventSink receives a copy of every broadcast event, e.g. for
// mirroring onto a message bus.
type EventSink interface {
	Process(ctx context.Context, e models.MarketEvent) error
}

// Metrics records operational counters and gauges.
type Metrics interface {
	RecordEventBroadcast(eventType string)
	RecordDroppedSend()
	RecordClients(n int)
	RecordError(kind string)
	RecordLastPrice(product string, price float64)
	RecordLatency(op string, seconds float64)
}
