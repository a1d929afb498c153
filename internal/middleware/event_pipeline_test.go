package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"AgroPulse/internal/domain/models"
)

type fakeSink struct {
	mu     sync.Mutex
	events []models.MarketEvent
	fail   bool
}

func (s *fakeSink) Process(_ context.Context, e models.MarketEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("downstream unavailable")
	}
	s.events = append(s.events, e)
	return nil
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func (s *fakeSink) setFail(v bool) {
	s.mu.Lock()
	s.fail = v
	s.mu.Unlock()
}

type nopMetrics struct{}

func (nopMetrics) RecordEventBroadcast(string)      {}
func (nopMetrics) RecordDroppedSend()               {}
func (nopMetrics) RecordClients(int)                {}
func (nopMetrics) RecordError(string)               {}
func (nopMetrics) RecordLastPrice(string, float64)  {}
func (nopMetrics) RecordLatency(string, float64)    {}

func priceEvent(product string) models.MarketEvent {
	return models.NewPriceUpdate(product, 42000, time.Now())
}

func TestPipelineForwardsValidEvents(t *testing.T) {
	sink := &fakeSink{}
	p := NewEventPipeline(sink, nopMetrics{})

	if err := p.Process(context.Background(), priceEvent("soymeal")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if sink.count() != 1 {
		t.Fatalf("expected 1 forwarded event, got %d", sink.count())
	}
}

func TestPipelineRejectsInvalidEvents(t *testing.T) {
	sink := &fakeSink{}
	p := NewEventPipeline(sink, nopMetrics{})
	ctx := context.Background()

	cases := []models.MarketEvent{
		{},
		{Type: "bogus", Timestamp: time.Now()},
		{Type: models.EventPriceUpdate, Timestamp: time.Now()},                 // missing product
		{Type: models.EventNewListing, Timestamp: time.Now()},                  // missing listing
		{Type: models.EventIotUpdate, Timestamp: time.Now()},                   // missing device
		models.NewPriceUpdate("soymeal", 42000, time.Time{}),                   // missing timestamp
	}
	for i, e := range cases {
		if err := p.Process(ctx, e); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
	if sink.count() != 0 {
		t.Fatalf("invalid events must not reach the sink")
	}
}

func TestPipelineThrottlesPerKey(t *testing.T) {
	sink := &fakeSink{}
	p := NewEventPipeline(sink, nopMetrics{}, WithMaxRPS(1))
	ctx := context.Background()

	// Two rapid events on the same key: second is throttled (dropped,
	// no error). A different key passes.
	if err := p.Process(ctx, priceEvent("soymeal")); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := p.Process(ctx, priceEvent("soymeal")); err != nil {
		t.Fatalf("throttled event must not error: %v", err)
	}
	if err := p.Process(ctx, priceEvent("husk")); err != nil {
		t.Fatalf("other key: %v", err)
	}
	if sink.count() != 2 {
		t.Fatalf("expected 2 delivered events, got %d", sink.count())
	}
}

func TestPipelineBuffersAndFlushesOnRecovery(t *testing.T) {
	sink := &fakeSink{fail: true}
	p := NewEventPipeline(sink, nopMetrics{}, WithBufferSize(10))
	ctx := context.Background()

	if err := p.Process(ctx, priceEvent("soymeal")); err == nil {
		t.Fatalf("expected downstream error")
	}
	if sink.count() != 0 {
		t.Fatalf("nothing should be delivered while failing")
	}

	sink.setFail(false)
	p.Start(ctx)
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for sink.count() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("buffered event never flushed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestPipelineStartIdempotent(t *testing.T) {
	p := NewEventPipeline(&fakeSink{}, nopMetrics{})
	ctx := context.Background()
	p.Start(ctx)
	p.Start(ctx)
	p.Stop()
	p.Stop()
}
