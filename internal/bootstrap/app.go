package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/visitbooking/config"
	"github.com/Domenick1991/visitbooking/internal/cache"
	"github.com/Domenick1991/visitbooking/internal/kafka"
	"github.com/Domenick1991/visitbooking/internal/notify"
	"github.com/Domenick1991/visitbooking/internal/repository"
	"github.com/Domenick1991/visitbooking/internal/scheduler"
	"github.com/Domenick1991/visitbooking/internal/service/availability"
	"github.com/Domenick1991/visitbooking/internal/service/booking"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// HealthCheck reports whether one backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// App is the dependency graph shared by the API and worker binaries.
type App struct {
	Config       *config.Config
	Log          *zap.Logger
	Availability *availability.AvailabilityService
	Bookings     *booking.BookingService
	Scheduler    *scheduler.TransitionScheduler
	Checks       map[string]HealthCheck

	closers []func(context.Context) error
}

// NewApp connects storage, cache and event publishing as configured and
// builds the services on top of them. Store settings from the config file
// are seeded when none are stored yet.
func NewApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	app := &App{Config: cfg, Log: log, Checks: make(map[string]HealthCheck)}
	if err := app.build(ctx); err != nil {
		_ = app.Close(context.Background())
		return nil, err
	}
	return app, nil
}

func (a *App) build(ctx context.Context) error {
	cfg := a.Config

	var (
		bookingRepo      repository.BookingRepository
		availabilityRepo repository.AvailabilityRepository
		settingsRepo     repository.StoreSettingsRepository
	)
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		a.onClose(func(context.Context) error { pool.Close(); return nil })
		a.Checks["postgres"] = pool.Ping

		if cfg.Storage.Migrate {
			if err := repository.Migrate(ctx, pool); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		bookingRepo = repository.NewBookingRepository(pool)
		availabilityRepo = repository.NewAvailabilityRepository(pool)
		settingsRepo = repository.NewStoreSettingsRepository(pool)
	default:
		store := repository.NewMemoryStore()
		bookingRepo = store.Bookings()
		availabilityRepo = store.Availability()
		settingsRepo = store.StoreSettings()
	}

	availabilityOpts := []availability.AvailabilityServiceOption{availability.WithLogger(a.Log)}
	bookingOpts := []booking.BookingServiceOption{
		booking.WithLogger(a.Log),
		booking.WithDoubleBookingPolicy(booking.DoubleBookingPolicy(cfg.Booking.DoubleBooking)),
		booking.WithWindows(booking.Windows{
			CheckIn:      cfg.Booking.CheckInWindow(),
			AutoComplete: cfg.Booking.AutoCompleteAfter(),
		}),
		booking.WithSweepConcurrency(cfg.Scheduler.Concurrency),
	}

	loc, err := cfg.Booking.Location()
	if err != nil {
		return fmt.Errorf("booking timezone: %w", err)
	}
	bookingOpts = append(bookingOpts, booking.WithLocation(loc))

	if cfg.Redis.Enabled {
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.SettingsCacheTTL())
		a.onClose(func(context.Context) error { return redisCache.Close() })
		a.Checks["redis"] = redisCache.Ping

		availabilityOpts = append(availabilityOpts, availability.WithSettingsCache(redisCache))
		bookingOpts = append(bookingOpts, booking.WithSlotLocker(redisCache, cfg.Booking.SlotLockTTL()))
	}

	var publisher notify.Publisher = notify.NewLogPublisher(a.Log)
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, a.Log)
		a.onClose(func(context.Context) error { return producer.Close() })
		a.Checks["kafka"] = producer.CheckConnection
		publisher = kafka.NewEventPublisher(producer, cfg.Kafka.EventsTopic, cfg.Kafka.NotificationsTopic)
	}
	sink := notify.NewSink(publisher, cfg.Kafka.QueueSize, a.Log)
	a.onClose(sink.Close)
	bookingOpts = append(bookingOpts, booking.WithNotifier(sink))

	a.Availability = availability.NewAvailabilityService(settingsRepo, availabilityRepo, availabilityOpts...)
	if len(cfg.StoreSettings) > 0 {
		seed, err := availability.StoreSettingsFromConfig(cfg.StoreSettings)
		if err != nil {
			return fmt.Errorf("store settings: %w", err)
		}
		if _, err := a.Availability.SeedStoreSettings(ctx, seed); err != nil {
			return fmt.Errorf("seed store settings: %w", err)
		}
	}

	a.Bookings = booking.NewBookingService(bookingRepo, a.Availability, bookingOpts...)
	a.Scheduler = scheduler.NewTransitionScheduler(a.Bookings, cfg.Scheduler.Interval(), a.Log)
	return nil
}

func (a *App) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition, so the event
// sink drains before the producer behind it closes.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
