package repository

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"AgroPulse/internal/domain/models"
	domrepo "AgroPulse/internal/domain/repository"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPriceHistoryListAscending(t *testing.T) {
	ctx := context.Background()
	s := NewMemPriceHistory()

	// Insert out of order; List must come back sorted by date.
	dates := []time.Time{day(2026, 3, 5), day(2026, 3, 3), day(2026, 3, 4)}
	for i, d := range dates {
		err := s.Add(ctx, models.PricePoint{Product: "husk", Date: d, AvgPrice: float64(12000 + i)})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	pts, err := s.List(ctx, "husk", time.Time{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pts) != 3 {
		t.Fatalf("expected 3 points, got %d", len(pts))
	}
	for i := 1; i < len(pts); i++ {
		if pts[i].Date.Before(pts[i-1].Date) {
			t.Fatalf("points out of order: %v before %v", pts[i].Date, pts[i-1].Date)
		}
	}
}

func TestPriceHistoryListFrom(t *testing.T) {
	ctx := context.Background()
	s := NewMemPriceHistory()
	for i := 1; i <= 5; i++ {
		_ = s.Add(ctx, models.PricePoint{Product: "soymeal", Date: day(2026, 3, i), AvgPrice: 42000})
	}

	pts, err := s.List(ctx, "soymeal", day(2026, 3, 3))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pts) != 3 {
		t.Fatalf("expected 3 points from cutoff, got %d", len(pts))
	}
}

func TestPriceHistoryLatest(t *testing.T) {
	ctx := context.Background()
	s := NewMemPriceHistory()
	_ = s.Add(ctx, models.PricePoint{Product: "soymeal", Date: day(2026, 3, 1), AvgPrice: 41000})
	_ = s.Add(ctx, models.PricePoint{Product: "soymeal", Date: day(2026, 3, 2), AvgPrice: 42500})

	p, err := s.Latest(ctx, "soymeal")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if p.AvgPrice != 42500 {
		t.Fatalf("unexpected latest %v", p.AvgPrice)
	}

	if _, err := s.Latest(ctx, "unknown"); !errors.Is(err, domrepo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeviceUpdateReadingMergesFields(t *testing.T) {
	ctx := context.Background()
	s := NewMemDeviceStore()

	d, err := s.Create(ctx, models.IotDevice{
		Name: "Silo A", Type: "silo",
		CurrentReading: models.Reading{Moisture: ptr(9.0), Temp: ptr(28.0), WeightKg: ptr(12000)},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if d.ID == "" {
		t.Fatalf("expected generated id")
	}
	before := d.LastUpdate

	time.Sleep(time.Millisecond)
	got, err := s.UpdateReading(ctx, d.ID, models.Reading{Temp: ptr(29.5)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if *got.CurrentReading.Temp != 29.5 {
		t.Fatalf("temp not updated: %v", *got.CurrentReading.Temp)
	}
	if *got.CurrentReading.Moisture != 9.0 || *got.CurrentReading.WeightKg != 12000 {
		t.Fatalf("unset fields must be preserved")
	}
	if !got.LastUpdate.After(before) {
		t.Fatalf("LastUpdate not bumped")
	}
}

func TestDeviceUpdateReadingNotFound(t *testing.T) {
	s := NewMemDeviceStore()
	_, err := s.UpdateReading(context.Background(), "missing", models.Reading{Temp: ptr(1)})
	if !errors.Is(err, domrepo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListingCreateAndList(t *testing.T) {
	ctx := context.Background()
	s := NewMemListingStore()

	l1, err := s.Create(ctx, models.Listing{Product: "husk", Seller: "a", QuantityTons: 10, PricePerTon: 12000, CreatedAt: day(2026, 3, 1)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	l2, _ := s.Create(ctx, models.Listing{Product: "soymeal", Seller: "b", QuantityTons: 5, PricePerTon: 42000, CreatedAt: day(2026, 3, 2)})

	if l1.ID == "" || l1.ID == l2.ID {
		t.Fatalf("expected distinct generated ids")
	}

	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].ID != l2.ID {
		t.Fatalf("expected newest first")
	}
}

func TestListingUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemListingStore()

	l, _ := s.Create(ctx, models.Listing{Product: "husk", Seller: "a", QuantityTons: 10, PricePerTon: 12000})
	l.PricePerTon = 12500
	got, err := s.Update(ctx, l)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.PricePerTon != 12500 {
		t.Fatalf("price not updated: %v", got.PricePerTon)
	}
	if got.CreatedAt != l.CreatedAt {
		t.Fatalf("CreatedAt must be preserved")
	}

	if _, err := s.Update(ctx, models.Listing{ID: "missing"}); !errors.Is(err, domrepo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.Delete(ctx, l.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, l.ID); !errors.Is(err, domrepo.ErrNotFound) {
		t.Fatalf("deleted listing must be gone")
	}
	if err := s.Delete(ctx, l.ID); !errors.Is(err, domrepo.ErrNotFound) {
		t.Fatalf("double delete must be ErrNotFound")
	}
}

func TestSeedHistoryShape(t *testing.T) {
	ctx := context.Background()
	s := NewMemPriceHistory()
	rng := rand.New(rand.NewSource(1))

	base := map[string]float64{"soymeal": 42000, "husk": 12000}
	if err := SeedHistory(ctx, s, base, 90, rng); err != nil {
		t.Fatalf("seed: %v", err)
	}

	for product, b := range base {
		pts, err := s.List(ctx, product, time.Time{})
		if err != nil {
			t.Fatalf("list %s: %v", product, err)
		}
		if len(pts) != 90 {
			t.Fatalf("expected 90 points for %s, got %d", product, len(pts))
		}
		for _, p := range pts {
			if p.AvgPrice < b*0.8 || p.AvgPrice > b*1.2 {
				t.Fatalf("%s price %v outside band around %v", product, p.AvgPrice, b)
			}
			if p.Low > p.AvgPrice || p.High < p.AvgPrice {
				t.Fatalf("low/high inconsistent: %+v", p)
			}
		}
	}
}
