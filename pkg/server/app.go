package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"AgentDesk/internal/service/realtime"
	"AgentDesk/pkg/config"
	xhttp "AgentDesk/pkg/http"
	pkgkafka "AgentDesk/pkg/kafka"
	applogger "AgentDesk/pkg/logger"
)

const sweepInterval = time.Minute

// Sweeper drops expired in-memory state and returns how much it removed.
type Sweeper func() int

type closer struct {
	name string
	fn   func() error
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	hub        *realtime.Hub
	consumer   *pkgkafka.Consumer
	handlers   []pkgkafka.MessageHandler
	digest     *applogger.Digest
	sweepers   map[string]Sweeper
	closers    []closer
}

// New creates a new App instance with its always-on dependencies. Optional
// infrastructure is attached with the With/Add methods.
func New(cfg *config.Config, log *applogger.Logger, httpServer *xhttp.Server, hub *realtime.Hub) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		httpServer: httpServer,
		hub:        hub,
		sweepers:   make(map[string]Sweeper),
	}
}

// WithConsumer runs consumer with handlers while the app is up.
func (a *App) WithConsumer(consumer *pkgkafka.Consumer, handlers ...pkgkafka.MessageHandler) {
	a.consumer = consumer
	a.handlers = handlers
}

// WithDigest attaches an error digest to the app logger.
func (a *App) WithDigest(d *applogger.Digest) {
	a.digest = d
	a.log.AttachDigest(d)
}

func (a *App) AddSweeper(name string, s Sweeper) { a.sweepers[name] = s }

// AddCloser registers a resource closed on shutdown, in reverse order.
func (a *App) AddCloser(name string, fn func() error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go a.hub.Run(hubCtx)
	go a.sweep(ctx)

	if a.consumer != nil {
		for _, h := range a.handlers {
			a.consumer.RegisterHandler(h)
		}
		if err := a.consumer.Start(); err != nil {
			a.log.Error("kafka consumer start error", applogger.Error(err))
			return err
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("agentdesk started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
		applogger.Bool("kafka", a.consumer != nil))

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown(stopHub)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(stopHub context.CancelFunc) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	stopHub()

	if a.digest != nil {
		a.log.DetachDigest()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(); err != nil {
			a.log.Warn("close error", applogger.String("resource", c.name), applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}

func (a *App) sweep(ctx context.Context) {
	if len(a.sweepers) == 0 {
		return
	}
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for name, s := range a.sweepers {
				if n := s(); n > 0 {
					a.log.Debug("swept expired entries", applogger.String("sweeper", name), applogger.Int("removed", n))
				}
			}
		}
	}
}
