package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"AgroPulse/internal/domain/models"
	"AgroPulse/internal/middleware"
	"AgroPulse/internal/realtime"
	"AgroPulse/internal/service/stream"
	"AgroPulse/internal/usecase"
	"AgroPulse/pkg/config"
	xhttp "AgroPulse/pkg/http"
	applogger "AgroPulse/pkg/logger"
)

// App encapsulates the application lifecycle: the HTTP/WebSocket
// server, the synthetic tick generators, the optional Kafka mirror
// pipeline, and the optional upstream stream monitor.
type App struct {
	cfg       *config.Config
	log       *applogger.Logger
	handler   xhttp.Handler
	hub       *realtime.Hub
	simulator *usecase.Simulator
	pipeline  *middleware.EventPipeline
	publisher io.Closer
	monitor   *stream.Subscriber

	httpServer *xhttp.Server
}

// New creates a new App instance. pipeline, publisher, and monitor may
// be nil when the corresponding feature is disabled.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	hub *realtime.Hub,
	simulator *usecase.Simulator,
	pipeline *middleware.EventPipeline,
	publisher io.Closer,
	monitor *stream.Subscriber,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		handler:   handler,
		hub:       hub,
		simulator: simulator,
		pipeline:  pipeline,
		publisher: publisher,
		monitor:   monitor,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.pipeline != nil {
		a.pipeline.Start(ctx)
		a.log.Info("event mirror pipeline started", applogger.String("topic", a.cfg.Kafka.Topic))
	}

	a.simulator.Start(ctx)

	if a.monitor != nil {
		a.monitor.Subscribe(func(e models.MarketEvent) {
			a.log.Debug("upstream event",
				applogger.String("type", string(e.Type)),
				applogger.String("key", e.Key()))
		})
		if err := a.monitor.Connect(ctx); err != nil {
			a.log.Warn("stream monitor connect", applogger.Error(err))
		}
	}

	serverOpts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	}
	if a.cfg.Metrics.Enabled {
		serverOpts = append(serverOpts, xhttp.WithMetricsPath(a.cfg.Metrics.Path))
	}
	a.httpServer = xhttp.NewServer(a.handler, a.log, serverOpts...)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

func (a *App) shutdown(ctx context.Context) error {
	if a.monitor != nil {
		a.monitor.Disconnect()
	}
	if a.pipeline != nil {
		a.pipeline.Stop()
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		return err
	}
	a.log.Info("shutdown complete")
	return nil
}
