//go:build wireinject
// +build wireinject

package di

import (
	"AgroPulse/pkg/config"
	"AgroPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideCache,

		// Stores (seeded)
		ProvidePriceHistory,
		ProvideDeviceStore,
		ProvideListingStore,

		// Realtime
		ProvideEventPipeline,
		ProvideHub,
		ProvideStreamMonitor,

		// Analytics
		ProvideForecastEngine,
		ProvideMarketSignals,
		ProvideSimulator,

		// HTTP
		ProvideRouter,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
