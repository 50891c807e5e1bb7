package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/kirinyoku/stow/internal/config"
	"github.com/kirinyoku/stow/internal/postgres"
	"github.com/kirinyoku/stow/internal/pricing"
	"github.com/kirinyoku/stow/internal/redis"
	postgresrepo "github.com/kirinyoku/stow/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/stow/internal/repository/redis"
	"github.com/kirinyoku/stow/internal/service"
	"github.com/kirinyoku/stow/internal/service/booking"
	"github.com/kirinyoku/stow/internal/service/custody"
	httpgin "github.com/kirinyoku/stow/internal/transport/http/gin"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	rdb        *goredis.Client
	cache      *redisrepo.Cache
	pubsub     *redisrepo.EventsPubSub
	services   *service.Services
	httpServer *http.Server
}

// PricingEngine builds the pricing engine from cfg; unset fields keep their
// defaults.
func PricingEngine(cfg config.PricingConfig) *pricing.Engine {
	pc := pricing.DefaultConfig()
	pc.StorageBaseRate = cfg.StorageBaseRate
	pc.DecayConstant = cfg.DecayConstant
	pc.StorageMinPrice = cfg.StorageMinPrice
	pc.ParkingMinPrice = cfg.ParkingMinPrice
	return pricing.New(pc)
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	pgxPool, err := postgres.New(ctx, postgres.Config{
		DSN:      cfg.Postgres.DSN(),
		MaxConns: cfg.Postgres.MaxConns,
		MinConns: cfg.Postgres.MinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	rdb, err := redis.New(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		pgxPool.Close()
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	// Initialize repositories
	store := postgresrepo.NewStore(pgxPool)
	cache := redisrepo.NewCache(rdb)
	pubsub := redisrepo.NewEventsPubSub(rdb)
	scanLimiter := redisrepo.NewSlidingWindowLimiter(rdb, "scan", cfg.RateLimit.ScanPerMinute, time.Minute)
	previewLimiter := redisrepo.NewSlidingWindowLimiter(rdb, "preview", cfg.RateLimit.PreviewPerMinute, time.Minute)
	idempotencyStore := redisrepo.NewIdempotencyStore(rdb, 24*time.Hour)

	// Initialize services
	services := service.NewServices(
		store,
		PricingEngine(cfg.Pricing),
		cache,
		pubsub,
		scanLimiter,
		logger,
		service.Config{
			Booking: booking.Config{RefundCutoff: cfg.Booking.RefundCutoff},
			Custody: custody.Config{EscalateAfter: cfg.Custody.EscalateAfter},
		},
	)

	// Initialize Gin router
	router := httpgin.NewRouter(services, httpgin.Options{
		JWTSecret:      []byte(cfg.Auth.JWTSecret),
		Idempotency:    idempotencyStore,
		PreviewLimiter: previewLimiter,
	}, logger)

	return &App{
		cfg:      cfg,
		logger:   logger,
		pool:     pgxPool,
		rdb:      rdb,
		cache:    cache,
		pubsub:   pubsub,
		services: services,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Run serves HTTP, listens for booking events and runs the custody sweep
// until ctx is cancelled or the process receives SIGINT/SIGTERM.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defer a.close()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Booking events from every instance
	g.Go(func() error {
		err := a.pubsub.Subscribe(gCtx, a.onBookingEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("events subscriber: %w", err)
		}
		return nil
	})

	// Custody sweep
	g.Go(func() error {
		return a.runSweep(gCtx)
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}

// onBookingEvent drops cached slots for changed bookings. Custody overdue
// events are for external consumers and are ignored here.
func (a *App) onBookingEvent(ctx context.Context, ev redisrepo.BookingEvent) {
	if ev.Type != redisrepo.EventBookingChanged {
		return
	}

	if err := a.cache.InvalidateSlots(ctx, ev.ListingID, ev.SubSlotID, ev.Start, ev.End); err != nil {
		a.logger.Warn("slots invalidation failed", "listing_id", ev.ListingID, "error", err)
	}
}

func (a *App) runSweep(ctx context.Context) error {
	if a.cfg.Custody.EscalateAfter <= 0 {
		a.logger.Info("custody sweep disabled")
		return nil
	}

	c := cron.New()

	_, err := c.AddFunc(a.cfg.Custody.SweepSchedule, func() {
		n, err := a.services.Custody.EscalateOverdue(ctx)
		if err != nil {
			a.logger.Error("custody sweep failed", "error", err)
			return
		}
		if n > 0 {
			a.logger.Info("custody sweep", "escalated", n)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid CUSTODY_SWEEP_SCHEDULE %q: %w", a.cfg.Custody.SweepSchedule, err)
	}

	c.Start()
	a.logger.Info("custody sweep scheduled", "schedule", a.cfg.Custody.SweepSchedule)

	<-ctx.Done()
	<-c.Stop().Done()

	return nil
}

func (a *App) close() {
	if err := a.rdb.Close(); err != nil {
		a.logger.Warn("failed to close redis", "error", err)
	}
	a.pool.Close()
}
