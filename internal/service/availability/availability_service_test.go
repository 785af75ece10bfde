package availability

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/Domenick1991/visitbooking/config"
	"github.com/Domenick1991/visitbooking/internal/domain"
	"github.com/Domenick1991/visitbooking/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStoreSettingsRepository struct {
	mock.Mock
}

func (m *MockStoreSettingsRepository) Get(ctx context.Context) (*domain.StoreSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StoreSettings), args.Error(1)
}

func (m *MockStoreSettingsRepository) Save(ctx context.Context, settings *domain.StoreSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

type MockSettingsCache struct {
	mock.Mock
}

func (m *MockSettingsCache) GetStoreSettings(ctx context.Context) (*domain.StoreSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StoreSettings), args.Error(1)
}

func (m *MockSettingsCache) SetStoreSettings(ctx context.Context, settings *domain.StoreSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

func (m *MockSettingsCache) InvalidateStoreSettings(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

var (
	monday = domain.NewDate(2030, time.January, 7)
	fixed  = time.Date(2030, time.January, 1, 8, 0, 0, 0, time.UTC)
)

func labels(ls ...string) []domain.TimeLabel {
	out := make([]domain.TimeLabel, len(ls))
	for i, l := range ls {
		out[i] = domain.TimeLabel(l)
	}
	return out
}

func newMemoryService(t *testing.T, settings *domain.StoreSettings) (*AvailabilityService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	service := NewAvailabilityService(store.StoreSettings(), store.Availability(), WithClock(func() time.Time { return fixed }))
	if settings != nil {
		_, err := service.SaveStoreSettings(context.Background(), settings)
		require.NoError(t, err)
	}
	return service, store
}

func mondayStore(slots ...string) *domain.StoreSettings {
	return &domain.StoreSettings{WeekDays: map[domain.Weekday]domain.DaySlots{
		domain.Monday: {Active: true, Slots: labels(slots...)},
	}}
}

func TestAvailabilityService_GetAvailableSlots_Intersection(t *testing.T) {
	service, _ := newMemoryService(t, mondayStore("09:00"))
	ctx := context.Background()

	_, err := service.SetAvailability(ctx, "seller-1", &domain.AvailabilityConfig{
		Mode: domain.ModeWeekly,
		Weekly: map[domain.Weekday]domain.DaySlots{
			domain.Monday: {Active: true, Slots: labels("10:00", "09:00")},
		},
	})
	require.NoError(t, err)

	slots, err := service.GetAvailableSlots(ctx, "seller-1", monday)

	assert.NoError(t, err)
	assert.Equal(t, labels("09:00"), slots)
}

func TestAvailabilityService_GetAvailableSlots_UnknownSeller(t *testing.T) {
	service, _ := newMemoryService(t, mondayStore("09:00"))

	slots, err := service.GetAvailableSlots(context.Background(), "nobody", monday)

	assert.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAvailabilityService_GetAvailableSlots_NoStoreSettings(t *testing.T) {
	service, _ := newMemoryService(t, nil)
	ctx := context.Background()

	_, err := service.SetAvailability(ctx, "seller-1", &domain.AvailabilityConfig{
		Mode:        domain.ModeSingleDates,
		SingleDates: map[domain.Date][]domain.TimeLabel{monday: labels("09:00")},
	})
	require.NoError(t, err)

	slots, err := service.GetAvailableSlots(ctx, "seller-1", monday)

	assert.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAvailabilityService_GetAvailableSlots_ClosedStoreDay(t *testing.T) {
	settings := mondayStore("09:00", "10:00")
	day := settings.WeekDays[domain.Monday]
	day.Active = false
	settings.WeekDays[domain.Monday] = day
	service, _ := newMemoryService(t, settings)
	ctx := context.Background()

	_, err := service.SetAvailability(ctx, "seller-1", &domain.AvailabilityConfig{
		Mode:        domain.ModeSingleDates,
		SingleDates: map[domain.Date][]domain.TimeLabel{monday: labels("09:00")},
	})
	require.NoError(t, err)

	slots, err := service.GetAvailableSlots(ctx, "seller-1", monday)

	assert.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAvailabilityService_GetAvailableSlots_Modes(t *testing.T) {
	tuesday := monday.AddDays(1)
	settings := &domain.StoreSettings{WeekDays: map[domain.Weekday]domain.DaySlots{
		domain.Monday:  {Active: true, Slots: labels("09:00", "10:00", "11:00")},
		domain.Tuesday: {Active: true, Slots: labels("09:00", "10:00", "11:00")},
	}}

	testCases := []struct {
		name string
		cfg  *domain.AvailabilityConfig
		date domain.Date
		want []domain.TimeLabel
	}{
		{
			name: "weekly inactive day",
			cfg: &domain.AvailabilityConfig{Mode: domain.ModeWeekly, Weekly: map[domain.Weekday]domain.DaySlots{
				domain.Monday: {Active: false, Slots: labels("09:00")},
			}},
			date: monday,
			want: labels(),
		},
		{
			name: "single dates",
			cfg: &domain.AvailabilityConfig{Mode: domain.ModeSingleDates, SingleDates: map[domain.Date][]domain.TimeLabel{
				tuesday: labels("11:00", "10:00"),
			}},
			date: tuesday,
			want: labels("10:00", "11:00"),
		},
		{
			name: "date range inside",
			cfg: &domain.AvailabilityConfig{Mode: domain.ModeDateRange, DateRange: domain.DateRange{
				Start: monday, End: tuesday,
				Slots: map[domain.Date][]domain.TimeLabel{tuesday: labels("09:00")},
			}},
			date: tuesday,
			want: labels("09:00"),
		},
		{
			name: "date range outside",
			cfg: &domain.AvailabilityConfig{Mode: domain.ModeDateRange, DateRange: domain.DateRange{
				Start: monday, End: monday,
				Slots: map[domain.Date][]domain.TimeLabel{monday: labels("09:00")},
			}},
			date: tuesday,
			want: labels(),
		},
		{
			name: "inactive mode input is inert",
			cfg: &domain.AvailabilityConfig{
				Mode:        domain.ModeSingleDates,
				Weekly:      map[domain.Weekday]domain.DaySlots{domain.Monday: {Active: true, Slots: labels("09:00")}},
				SingleDates: map[domain.Date][]domain.TimeLabel{},
			},
			date: monday,
			want: labels(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			service, _ := newMemoryService(t, settings)
			ctx := context.Background()

			_, err := service.SetAvailability(ctx, "seller-1", tc.cfg)
			require.NoError(t, err)

			slots, err := service.GetAvailableSlots(ctx, "seller-1", tc.date)

			assert.NoError(t, err)
			assert.Equal(t, tc.want, slots)
		})
	}
}

func TestResolveSlots_NeverLeavesStoreTable(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	pool := labels("08:00", "09:00", "09:30", "10:00", "11:00", "14:00", "15:30", "17:00")
	pick := func() []domain.TimeLabel {
		var out []domain.TimeLabel
		for _, l := range pool {
			if rng.Intn(2) == 0 {
				out = append(out, l)
			}
		}
		return out
	}

	for i := 0; i < 500; i++ {
		date := monday.AddDays(rng.Intn(14))
		settings := &domain.StoreSettings{WeekDays: map[domain.Weekday]domain.DaySlots{}}
		for w := domain.Sunday; w <= domain.Saturday; w++ {
			settings.WeekDays[w] = domain.DaySlots{Active: rng.Intn(4) != 0, Slots: pick()}
		}
		cfg := &domain.AvailabilityConfig{
			Mode:        []domain.AvailabilityMode{domain.ModeWeekly, domain.ModeSingleDates, domain.ModeDateRange}[rng.Intn(3)],
			Weekly:      map[domain.Weekday]domain.DaySlots{date.Weekday(): {Active: true, Slots: pick()}},
			SingleDates: map[domain.Date][]domain.TimeLabel{date: pick()},
			DateRange: domain.DateRange{
				Start: monday, End: monday.AddDays(13),
				Slots: map[domain.Date][]domain.TimeLabel{date: pick()},
			},
		}

		got := ResolveSlots(settings, cfg, date)
		day := settings.Day(date.Weekday())
		for _, l := range got {
			assert.True(t, day.Active)
			assert.True(t, domain.ContainsLabel(day.Slots, l), "label %s not opened by store", l)
		}
	}
}

func TestAvailabilityService_AvailableDates(t *testing.T) {
	service, _ := newMemoryService(t, mondayStore("09:00"))
	ctx := context.Background()

	_, err := service.SetAvailability(ctx, "seller-1", &domain.AvailabilityConfig{
		Mode:   domain.ModeWeekly,
		Weekly: map[domain.Weekday]domain.DaySlots{domain.Monday: {Active: true, Slots: labels("09:00")}},
	})
	require.NoError(t, err)

	dates, err := service.AvailableDates(ctx, "seller-1", monday, monday.AddDays(14))

	assert.NoError(t, err)
	assert.Equal(t, []domain.Date{monday, monday.AddDays(7), monday.AddDays(14)}, dates)
}

func TestAvailabilityService_AvailableDates_InvalidRange(t *testing.T) {
	service, _ := newMemoryService(t, mondayStore("09:00"))
	ctx := context.Background()

	_, err := service.AvailableDates(ctx, "seller-1", monday, monday.AddDays(-1))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = service.AvailableDates(ctx, "seller-1", monday, monday.AddDays(MaxDateSpan))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = service.AvailableDates(ctx, "seller-1", monday, monday.AddDays(MaxDateSpan-1))
	assert.NoError(t, err)
}

func TestAvailabilityService_SetAvailability_Invalid(t *testing.T) {
	service, _ := newMemoryService(t, mondayStore("09:00"))
	ctx := context.Background()

	_, err := service.SetAvailability(ctx, "seller-1", &domain.AvailabilityConfig{
		Mode:      domain.ModeDateRange,
		DateRange: domain.DateRange{Start: monday, End: monday.AddDays(-3)},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = service.SetAvailability(ctx, "seller-1", &domain.AvailabilityConfig{
		Mode:        domain.ModeSingleDates,
		SingleDates: map[domain.Date][]domain.TimeLabel{monday: labels("9am")},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = service.SetAvailability(ctx, "", &domain.AvailabilityConfig{Mode: domain.ModeWeekly})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = service.GetAvailability(ctx, "seller-1")
	assert.ErrorIs(t, err, domain.ErrAvailabilityNotFound)
}

func TestAvailabilityService_SetAvailability_LastWriteWins(t *testing.T) {
	service, _ := newMemoryService(t, mondayStore("09:00", "10:00"))
	ctx := context.Background()

	for _, slot := range []string{"09:00", "10:00"} {
		_, err := service.SetAvailability(ctx, "seller-1", &domain.AvailabilityConfig{
			Mode:   domain.ModeWeekly,
			Weekly: map[domain.Weekday]domain.DaySlots{domain.Monday: {Active: true, Slots: labels(slot)}},
		})
		require.NoError(t, err)
	}

	cfg, err := service.GetAvailability(ctx, "seller-1")
	require.NoError(t, err)
	assert.Equal(t, "seller-1", cfg.SellerID)
	assert.Equal(t, labels("10:00"), cfg.Weekly[domain.Monday].Slots)
	assert.Equal(t, fixed, cfg.UpdatedAt)
}

func TestAvailabilityService_ResetAvailability(t *testing.T) {
	service, _ := newMemoryService(t, mondayStore("09:00"))
	ctx := context.Background()

	_, err := service.ResetAvailability(ctx, "seller-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = service.SetAvailability(ctx, "seller-1", &domain.AvailabilityConfig{
		Mode:   domain.ModeWeekly,
		Weekly: map[domain.Weekday]domain.DaySlots{domain.Monday: {Active: true, Slots: labels("09:00")}},
	})
	require.NoError(t, err)

	cfg, err := service.ResetAvailability(ctx, "seller-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ModeWeekly, cfg.Mode)
	assert.Empty(t, cfg.Weekly)

	slots, err := service.GetAvailableSlots(ctx, "seller-1", monday)
	assert.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAvailabilityService_GetStoreSettings_CacheMiss(t *testing.T) {
	mockRepo := &MockStoreSettingsRepository{}
	mockCache := &MockSettingsCache{}
	service := NewAvailabilityService(mockRepo, nil, WithSettingsCache(mockCache))
	ctx := context.Background()

	settings := mondayStore("09:00")

	mockCache.On("GetStoreSettings", ctx).Return(nil, nil).Once()
	mockRepo.On("Get", ctx).Return(settings, nil).Once()
	mockCache.On("SetStoreSettings", ctx, settings).Return(nil).Once()

	result, err := service.GetStoreSettings(ctx)

	assert.NoError(t, err)
	assert.Equal(t, settings, result)
	mockCache.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
}

func TestAvailabilityService_GetStoreSettings_CacheHit(t *testing.T) {
	mockRepo := &MockStoreSettingsRepository{}
	mockCache := &MockSettingsCache{}
	service := NewAvailabilityService(mockRepo, nil, WithSettingsCache(mockCache))
	ctx := context.Background()

	settings := mondayStore("09:00")
	mockCache.On("GetStoreSettings", ctx).Return(settings, nil).Once()

	result, err := service.GetStoreSettings(ctx)

	assert.NoError(t, err)
	assert.Equal(t, settings, result)
	mockCache.AssertExpectations(t)
	mockRepo.AssertNotCalled(t, "Get", mock.Anything)
}

func TestAvailabilityService_GetStoreSettings_CacheErrorFallsBack(t *testing.T) {
	mockRepo := &MockStoreSettingsRepository{}
	mockCache := &MockSettingsCache{}
	service := NewAvailabilityService(mockRepo, nil, WithSettingsCache(mockCache))
	ctx := context.Background()

	settings := mondayStore("09:00")
	mockCache.On("GetStoreSettings", ctx).Return(nil, errors.New("redis down")).Once()
	mockRepo.On("Get", ctx).Return(settings, nil).Once()
	mockCache.On("SetStoreSettings", ctx, settings).Return(errors.New("redis down")).Once()

	result, err := service.GetStoreSettings(ctx)

	assert.NoError(t, err)
	assert.Equal(t, settings, result)
	mockRepo.AssertExpectations(t)
}

func TestAvailabilityService_SaveStoreSettings_InvalidatesCache(t *testing.T) {
	mockRepo := &MockStoreSettingsRepository{}
	mockCache := &MockSettingsCache{}
	service := NewAvailabilityService(mockRepo, nil, WithSettingsCache(mockCache), WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	settings := mondayStore("10:00", "09:00", "10:00")
	mockRepo.On("Save", ctx, settings).Return(nil).Once()
	mockCache.On("InvalidateStoreSettings", ctx).Return(nil).Once()

	saved, err := service.SaveStoreSettings(ctx, settings)

	assert.NoError(t, err)
	assert.Equal(t, labels("09:00", "10:00"), saved.WeekDays[domain.Monday].Slots)
	assert.Equal(t, fixed, saved.UpdatedAt)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestAvailabilityService_SeedStoreSettings(t *testing.T) {
	service, _ := newMemoryService(t, nil)
	ctx := context.Background()

	seeded, err := service.SeedStoreSettings(ctx, mondayStore("09:00"))
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = service.SeedStoreSettings(ctx, mondayStore("10:00"))
	require.NoError(t, err)
	assert.False(t, seeded)

	settings, err := service.GetStoreSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, labels("09:00"), settings.WeekDays[domain.Monday].Slots)
}

func TestStoreSettingsFromConfig(t *testing.T) {
	settings, err := StoreSettingsFromConfig(map[string]config.DayConfig{
		"seg": {Active: true, Slots: []string{"09:00"}},
		"sun": {Active: false},
	})
	require.NoError(t, err)
	assert.True(t, settings.Day(domain.Monday).Active)
	assert.False(t, settings.Day(domain.Sunday).Active)

	_, err = StoreSettingsFromConfig(map[string]config.DayConfig{"funday": {Active: true}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = StoreSettingsFromConfig(map[string]config.DayConfig{"mon": {Active: true, Slots: []string{"25:00"}}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
