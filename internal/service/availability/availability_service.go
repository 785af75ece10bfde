package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/visitbooking/config"
	"github.com/Domenick1991/visitbooking/internal/domain"
	"github.com/Domenick1991/visitbooking/internal/repository"
	"go.uber.org/zap"
)

// MaxDateSpan bounds AvailableDates queries, inclusive of both ends.
const MaxDateSpan = 93

type AvailabilityUseCase interface {
	GetStoreSettings(ctx context.Context) (*domain.StoreSettings, error)
	GetAvailableSlots(ctx context.Context, sellerID string, date domain.Date) ([]domain.TimeLabel, error)
	AvailableDates(ctx context.Context, sellerID string, from, to domain.Date) ([]domain.Date, error)
	GetAvailability(ctx context.Context, sellerID string) (*domain.AvailabilityConfig, error)
	SetAvailability(ctx context.Context, sellerID string, cfg *domain.AvailabilityConfig) (*domain.AvailabilityConfig, error)
	ResetAvailability(ctx context.Context, sellerID string) (*domain.AvailabilityConfig, error)
}

type SettingsCache interface {
	GetStoreSettings(ctx context.Context) (*domain.StoreSettings, error)
	SetStoreSettings(ctx context.Context, settings *domain.StoreSettings) error
	InvalidateStoreSettings(ctx context.Context) error
}

type AvailabilityService struct {
	settings     repository.StoreSettingsRepository
	availability repository.AvailabilityRepository
	cache        SettingsCache
	log          *zap.Logger
	now          func() time.Time
}

type AvailabilityServiceOption func(*AvailabilityService)

func WithSettingsCache(cache SettingsCache) AvailabilityServiceOption {
	return func(s *AvailabilityService) {
		s.cache = cache
	}
}

func WithLogger(log *zap.Logger) AvailabilityServiceOption {
	return func(s *AvailabilityService) {
		if log != nil {
			s.log = log
		}
	}
}

func WithClock(now func() time.Time) AvailabilityServiceOption {
	return func(s *AvailabilityService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewAvailabilityService(
	settings repository.StoreSettingsRepository,
	availability repository.AvailabilityRepository,
	opts ...AvailabilityServiceOption,
) *AvailabilityService {
	service := &AvailabilityService{
		settings:     settings,
		availability: availability,
		log:          zap.NewNop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *AvailabilityService) GetStoreSettings(ctx context.Context) (*domain.StoreSettings, error) {
	if s.cache != nil {
		cached, err := s.cache.GetStoreSettings(ctx)
		if err == nil && cached != nil {
			return cached, nil
		}
		if err != nil {
			s.log.Warn("store settings cache read failed", zap.Error(err))
		}
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetStoreSettings(ctx, settings); err != nil {
			s.log.Warn("store settings cache write failed", zap.Error(err))
		}
	}
	return settings, nil
}

// SaveStoreSettings replaces the opening table. Slot lists are deduplicated
// and sorted before they are stored.
func (s *AvailabilityService) SaveStoreSettings(ctx context.Context, settings *domain.StoreSettings) (*domain.StoreSettings, error) {
	if settings.WeekDays == nil {
		settings.WeekDays = map[domain.Weekday]domain.DaySlots{}
	}
	if err := settings.Normalize(); err != nil {
		return nil, err
	}
	settings.UpdatedAt = s.now().UTC()

	if err := s.settings.Save(ctx, settings); err != nil {
		return nil, fmt.Errorf("save store settings: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.InvalidateStoreSettings(ctx); err != nil {
			s.log.Warn("store settings cache invalidation failed", zap.Error(err))
		}
	}
	return settings, nil
}

// SeedStoreSettings stores seed only when no settings exist yet.
func (s *AvailabilityService) SeedStoreSettings(ctx context.Context, seed *domain.StoreSettings) (bool, error) {
	_, err := s.settings.Get(ctx)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, domain.ErrNotFound):
		return false, err
	}
	if _, err := s.SaveStoreSettings(ctx, seed); err != nil {
		return false, err
	}
	s.log.Info("store settings seeded", zap.Int("weekdays", len(seed.WeekDays)))
	return true, nil
}

func (s *AvailabilityService) GetAvailableSlots(ctx context.Context, sellerID string, date domain.Date) ([]domain.TimeLabel, error) {
	settings, cfg, err := s.load(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	return ResolveSlots(settings, cfg, date), nil
}

// AvailableDates lists the days in [from, to] that have at least one
// bookable slot.
func (s *AvailabilityService) AvailableDates(ctx context.Context, sellerID string, from, to domain.Date) ([]domain.Date, error) {
	if to.Before(from) {
		return nil, domain.NewValidationError("to", "must not be before from")
	}
	if from.AddDays(MaxDateSpan - 1).Before(to) {
		return nil, domain.NewValidationError("to", fmt.Sprintf("range must not exceed %d days", MaxDateSpan))
	}

	settings, cfg, err := s.load(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	dates := make([]domain.Date, 0)
	for d := from; !d.After(to); d = d.AddDays(1) {
		if HasSlots(settings, cfg, d) {
			dates = append(dates, d)
		}
	}
	return dates, nil
}

func (s *AvailabilityService) GetAvailability(ctx context.Context, sellerID string) (*domain.AvailabilityConfig, error) {
	return s.availability.Get(ctx, sellerID)
}

// SetAvailability fully replaces the seller's configuration. Labels are
// checked for shape only; the store table is applied at read time.
func (s *AvailabilityService) SetAvailability(ctx context.Context, sellerID string, cfg *domain.AvailabilityConfig) (*domain.AvailabilityConfig, error) {
	if sellerID == "" {
		return nil, domain.NewValidationError("seller_id", "is required")
	}
	if cfg == nil {
		return nil, domain.NewValidationError("mode", "is required")
	}

	cfg.SellerID = sellerID
	fillMaps(cfg)
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	cfg.UpdatedAt = s.now().UTC()

	if err := s.availability.Save(ctx, cfg); err != nil {
		return nil, fmt.Errorf("save availability: %w", err)
	}
	return cfg, nil
}

// ResetAvailability empties every mode of an existing configuration.
func (s *AvailabilityService) ResetAvailability(ctx context.Context, sellerID string) (*domain.AvailabilityConfig, error) {
	cfg, err := s.availability.Get(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	cfg.Reset()
	cfg.UpdatedAt = s.now().UTC()

	if err := s.availability.Save(ctx, cfg); err != nil {
		return nil, fmt.Errorf("save availability: %w", err)
	}
	return cfg, nil
}

// load fetches both sides of the intersection. Missing settings or a seller
// without configuration are not errors, they just resolve to no slots.
func (s *AvailabilityService) load(ctx context.Context, sellerID string) (*domain.StoreSettings, *domain.AvailabilityConfig, error) {
	settings, err := s.GetStoreSettings(ctx)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, nil, err
	}
	cfg, err := s.availability.Get(ctx, sellerID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, nil, err
	}
	return settings, cfg, nil
}

func fillMaps(cfg *domain.AvailabilityConfig) {
	if cfg.Weekly == nil {
		cfg.Weekly = map[domain.Weekday]domain.DaySlots{}
	}
	if cfg.SingleDates == nil {
		cfg.SingleDates = map[domain.Date][]domain.TimeLabel{}
	}
	if cfg.DateRange.Slots == nil {
		cfg.DateRange.Slots = map[domain.Date][]domain.TimeLabel{}
	}
}

// StoreSettingsFromConfig converts the seed table of the config file.
func StoreSettingsFromConfig(days map[string]config.DayConfig) (*domain.StoreSettings, error) {
	settings := &domain.StoreSettings{WeekDays: make(map[domain.Weekday]domain.DaySlots, len(days))}
	for name, day := range days {
		w, err := domain.ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		slots := make([]domain.TimeLabel, 0, len(day.Slots))
		for _, raw := range day.Slots {
			l, err := domain.ParseTimeLabel(raw)
			if err != nil {
				return nil, fmt.Errorf("store_settings.%s: %w", name, err)
			}
			slots = append(slots, l)
		}
		settings.WeekDays[w] = domain.DaySlots{Active: day.Active, Slots: slots}
	}
	return settings, nil
}

var _ AvailabilityUseCase = (*AvailabilityService)(nil)
