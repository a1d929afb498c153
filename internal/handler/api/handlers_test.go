package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"AgroPulse/internal/domain/models"
	"AgroPulse/internal/realtime"
	"AgroPulse/internal/repository"
	"AgroPulse/internal/service/analytics"
	"AgroPulse/internal/usecase"
	"AgroPulse/pkg/cache"
	xlogger "AgroPulse/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordEventBroadcast(string)     {}
func (nopMetrics) RecordDroppedSend()              {}
func (nopMetrics) RecordClients(int)               {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) RecordLatency(string, float64)   {}

type captureBroadcaster struct {
	mu     sync.Mutex
	events []models.MarketEvent
}

func (b *captureBroadcaster) Broadcast(e models.MarketEvent) {
	b.mu.Lock()
	b.events = append(b.events, e)
	b.mu.Unlock()
}

func (b *captureBroadcaster) Clients() int { return 0 }

type fixture struct {
	echo      *echo.Echo
	broadcast *captureBroadcaster
	devices   *repository.MemDeviceStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	ctx := context.Background()
	history := repository.NewMemPriceHistory()
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		_ = history.Add(ctx, models.PricePoint{
			Product: "soymeal", Date: start.AddDate(0, 0, i), AvgPrice: 42000,
		})
	}

	devices := repository.NewMemDeviceStore()
	listings := repository.NewMemListingStore()
	signals := usecase.NewMarketSignals(history, analytics.NewEngine(), cache.NewMemoryCache(), nopMetrics{}, log)

	b := &captureBroadcaster{}
	hub := realtime.NewHub(log, nopMetrics{})

	e := echo.New()
	g := e.Group("/api")
	NewMarketHandler(log, signals).Register(g)
	// listing/device handlers broadcast through the capturing fake
	lh := &ListingHandler{logger: log, store: listings, broadcaster: b}
	lh.Register(g)
	dh := &DeviceHandler{logger: log, store: devices, broadcaster: b}
	dh.Register(g)
	e.GET("/ws", hub.ServeWS)

	return &fixture{echo: e, broadcast: b, devices: devices}
}

// envelope mirrors the standard API response; Status is carried inside
// the body, the HTTP status is always 200.
type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (f *fixture) request(t *testing.T, method, path, body string) envelope {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("transport status %d: %s", rec.Code, rec.Body.String())
	}
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	return env
}

func TestSignalsEndpoint(t *testing.T) {
	f := newFixture(t)
	env := f.request(t, http.MethodGet, "/api/market/signals?product=soymeal", "")
	if env.Status != http.StatusOK {
		t.Fatalf("status %d: %s", env.Status, env.Data)
	}

	var out models.MarketSignals
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.CurrentPrice != 42000 {
		t.Fatalf("unexpected current price %v", out.CurrentPrice)
	}
	if len(out.Forecast) != 7 {
		t.Fatalf("expected default 7-day forecast, got %d", len(out.Forecast))
	}
	if out.Recommendation.Action != models.ActionHold {
		t.Fatalf("flat series must recommend Hold, got %+v", out.Recommendation)
	}
}

func TestSignalsUnknownProduct(t *testing.T) {
	f := newFixture(t)
	env := f.request(t, http.MethodGet, "/api/market/signals?product=nothing", "")
	if env.Status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", env.Status, env.Data)
	}
}

func TestSignalsMissingProduct(t *testing.T) {
	f := newFixture(t)
	env := f.request(t, http.MethodGet, "/api/market/signals", "")
	if env.Status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", env.Status)
	}
}

func TestForecastEndpointHonorsDays(t *testing.T) {
	f := newFixture(t)
	env := f.request(t, http.MethodGet, "/api/market/forecast?product=soymeal&days=12", "")
	if env.Status != http.StatusOK {
		t.Fatalf("status %d: %s", env.Status, env.Data)
	}

	var list struct {
		Rows []models.ForecastPoint `json:"rows"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Rows) != 12 {
		t.Fatalf("expected 12 forecast points, got %d", len(list.Rows))
	}
}

func TestCreateListingBroadcasts(t *testing.T) {
	f := newFixture(t)
	body := `{"product":"husk","seller":"Delta Feed JSC","quantityTons":30,"pricePerTon":12100,"region":"Mekong Delta"}`
	env := f.request(t, http.MethodPost, "/api/listings", body)
	if env.Status != http.StatusCreated {
		t.Fatalf("status %d: %s", env.Status, env.Data)
	}

	f.broadcast.mu.Lock()
	defer f.broadcast.mu.Unlock()
	if len(f.broadcast.events) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(f.broadcast.events))
	}
	e := f.broadcast.events[0]
	if e.Type != models.EventNewListing || e.Listing == nil || e.Listing.Product != "husk" {
		t.Fatalf("unexpected event %+v", e)
	}
	if e.Listing.ID == "" {
		t.Fatalf("listing must have a generated id before broadcast")
	}
}

func TestCreateListingValidation(t *testing.T) {
	f := newFixture(t)
	env := f.request(t, http.MethodPost, "/api/listings", `{"product":"husk"}`)
	if env.Status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", env.Status, env.Data)
	}
	f.broadcast.mu.Lock()
	defer f.broadcast.mu.Unlock()
	if len(f.broadcast.events) != 0 {
		t.Fatalf("invalid create must not broadcast")
	}
}

func TestUpdateReadingBroadcasts(t *testing.T) {
	f := newFixture(t)
	d, err := f.devices.Create(context.Background(), models.IotDevice{Name: "Silo A", Type: "silo"})
	if err != nil {
		t.Fatalf("create device: %v", err)
	}

	env := f.request(t, http.MethodPut, "/api/devices/"+d.ID+"/reading", `{"moisture":9.4,"temp":28.3}`)
	if env.Status != http.StatusOK {
		t.Fatalf("status %d: %s", env.Status, env.Data)
	}

	f.broadcast.mu.Lock()
	defer f.broadcast.mu.Unlock()
	if len(f.broadcast.events) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(f.broadcast.events))
	}
	e := f.broadcast.events[0]
	if e.Type != models.EventIotUpdate || e.DeviceID != d.ID {
		t.Fatalf("unexpected event %+v", e)
	}
	if e.Moisture == nil || *e.Moisture != 9.4 {
		t.Fatalf("moisture not carried: %+v", e)
	}
}

func TestUpdateReadingRequiresAField(t *testing.T) {
	f := newFixture(t)
	d, _ := f.devices.Create(context.Background(), models.IotDevice{Name: "Silo A", Type: "silo"})
	env := f.request(t, http.MethodPut, "/api/devices/"+d.ID+"/reading", `{}`)
	if env.Status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", env.Status)
	}
}

func TestUpdateReadingUnknownDevice(t *testing.T) {
	f := newFixture(t)
	env := f.request(t, http.MethodPut, "/api/devices/none/reading", `{"temp":30}`)
	if env.Status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", env.Status)
	}
}
