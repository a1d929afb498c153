package repository

import (
	"context"
	"math"
	"math/rand"
	"time"

	"AgroPulse/internal/domain/models"
	"AgroPulse/internal/domain/repository"
	"AgroPulse/pkg/util"
)

func ptr(v float64) *float64 { return &v }

// SeedHistory fills the price store with synthetic daily aggregates for
// each product: a slow sine swing around the base price plus noise.
func SeedHistory(ctx context.Context, store repository.PriceHistory, basePrices map[string]float64, days int, rng *rand.Rand) error {
	end := util.Midnight(time.Now())
	for product, base := range basePrices {
		for i := days; i > 0; i-- {
			date := end.AddDate(0, 0, -i)
			swing := math.Sin(float64(days-i)/15.0) * 0.1
			noise := (rng.Float64() - 0.5) * 0.05
			avg := base * (1 + swing + noise)
			p := models.PricePoint{
				Product:  product,
				Date:     date,
				AvgPrice: math.Round(avg),
				High:     math.Round(avg * 1.02),
				Low:      math.Round(avg * 0.98),
				Volume:   math.Round(50 + rng.Float64()*450),
			}
			if err := store.Add(ctx, p); err != nil {
				return err
			}
		}
	}
	return nil
}

// SeedDevices registers a small fleet of sensor units so the IoT tick
// generator has something to perturb from the start.
func SeedDevices(ctx context.Context, store repository.DeviceStore) error {
	fleet := []models.IotDevice{
		{Name: "Silo A - Long An", Type: "silo", CurrentReading: models.Reading{Moisture: ptr(9.0), Temp: ptr(28.0), WeightKg: ptr(12000)}},
		{Name: "Silo B - Dong Thap", Type: "silo", CurrentReading: models.Reading{Moisture: ptr(8.5), Temp: ptr(27.2), WeightKg: ptr(9500)}},
		{Name: "Dryer 1 - An Giang", Type: "dryer", CurrentReading: models.Reading{Moisture: ptr(11.3), Temp: ptr(41.0)}},
		{Name: "Scale Dock 2", Type: "scale", CurrentReading: models.Reading{WeightKg: ptr(0)}},
	}
	for _, d := range fleet {
		if _, err := store.Create(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

// SeedListings creates a few starter marketplace offers.
func SeedListings(ctx context.Context, store repository.ListingStore, basePrices map[string]float64) error {
	sellers := []string{"Mekong Agri Co", "Delta Feed JSC", "Tan Long Group"}
	i := 0
	for product, base := range basePrices {
		l := models.Listing{
			Product:      product,
			Seller:       sellers[i%len(sellers)],
			QuantityTons: float64(20 + 10*i),
			PricePerTon:  base,
			Location:     models.Location{Region: "Mekong Delta", Province: "Long An"},
			Quality:      models.Quality{Grade: "standard", Moisture: 9.0},
		}
		if _, err := store.Create(ctx, l); err != nil {
			return err
		}
		i++
	}
	return nil
}
