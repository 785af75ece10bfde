package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Domenick1991/visitbooking/internal/domain"
)

// MemoryStore is a process-local record store implementing every repository
// interface. It hands out copies, never its own records.
type MemoryStore struct {
	mu           sync.RWMutex
	bookings     map[string]*domain.Booking
	availability map[string][]byte
	settings     []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bookings:     make(map[string]*domain.Booking),
		availability: make(map[string][]byte),
	}
}

func (s *MemoryStore) Bookings() BookingRepository          { return memoryBookings{s} }
func (s *MemoryStore) Availability() AvailabilityRepository { return memoryAvailability{s} }
func (s *MemoryStore) StoreSettings() StoreSettingsRepository {
	return memorySettings{s}
}

type memoryBookings struct{ s *MemoryStore }

func (m memoryBookings) Create(_ context.Context, b *domain.Booking) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.bookings[b.ID]; ok {
		return fmt.Errorf("%w: booking %s already exists", domain.ErrConflict, b.ID)
	}
	b.Version = 1
	m.s.bookings[b.ID] = b.Clone()
	return nil
}

func (m memoryBookings) GetByID(_ context.Context, id string) (*domain.Booking, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	b, ok := m.s.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	return b.Clone(), nil
}

func (m memoryBookings) Update(_ context.Context, b *domain.Booking) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	current, ok := m.s.bookings[b.ID]
	if !ok {
		return domain.ErrBookingNotFound
	}
	if current.Version != b.Version {
		return domain.ErrStaleBooking
	}
	b.Version++
	m.s.bookings[b.ID] = b.Clone()
	return nil
}

func (m memoryBookings) List(_ context.Context, filter BookingFilter) ([]domain.Booking, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	out := make([]domain.Booking, 0)
	for _, b := range m.s.bookings {
		if filter.BuyerID != "" && b.BuyerID != filter.BuyerID {
			continue
		}
		if filter.SellerID != "" && b.SellerID != filter.SellerID {
			continue
		}
		if len(filter.Statuses) > 0 && !hasStatus(filter.Statuses, b.Status) {
			continue
		}
		out = append(out, *b.Clone())
	}
	sortBookings(out)
	return out, nil
}

func (m memoryBookings) ListOpenIDs(ctx context.Context) ([]string, error) {
	open, err := m.List(ctx, BookingFilter{Statuses: domain.OpenStatuses})
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(open))
	for i, b := range open {
		ids[i] = b.ID
	}
	return ids, nil
}

func (m memoryBookings) ExistsActiveAt(_ context.Context, sellerID string, at time.Time) (bool, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	for _, b := range m.s.bookings {
		if b.SellerID == sellerID && b.ScheduledAt.Equal(at) && b.Status != domain.BookingStatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

// Availability and settings are stored encoded so callers can never alias the
// maps inside a stored configuration.
type memoryAvailability struct{ s *MemoryStore }

func (m memoryAvailability) Get(_ context.Context, sellerID string) (*domain.AvailabilityConfig, error) {
	m.s.mu.RLock()
	payload, ok := m.s.availability[sellerID]
	m.s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrAvailabilityNotFound
	}

	var cfg domain.AvailabilityConfig
	if err := json.Unmarshal(payload, &cfg); err != nil {
		return nil, fmt.Errorf("decode availability: %w", err)
	}
	return &cfg, nil
}

func (m memoryAvailability) Save(_ context.Context, cfg *domain.AvailabilityConfig) error {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode availability: %w", err)
	}
	m.s.mu.Lock()
	m.s.availability[cfg.SellerID] = payload
	m.s.mu.Unlock()
	return nil
}

type memorySettings struct{ s *MemoryStore }

func (m memorySettings) Get(_ context.Context) (*domain.StoreSettings, error) {
	m.s.mu.RLock()
	payload := m.s.settings
	m.s.mu.RUnlock()
	if payload == nil {
		return nil, domain.ErrStoreSettingsNotFound
	}

	var settings domain.StoreSettings
	if err := json.Unmarshal(payload, &settings); err != nil {
		return nil, fmt.Errorf("decode store settings: %w", err)
	}
	return &settings, nil
}

func (m memorySettings) Save(_ context.Context, settings *domain.StoreSettings) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode store settings: %w", err)
	}
	m.s.mu.Lock()
	m.s.settings = payload
	m.s.mu.Unlock()
	return nil
}

func hasStatus(statuses []domain.BookingStatus, s domain.BookingStatus) bool {
	for _, x := range statuses {
		if x == s {
			return true
		}
	}
	return false
}

func sortBookings(bookings []domain.Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		if !bookings[i].ScheduledAt.Equal(bookings[j].ScheduledAt) {
			return bookings[i].ScheduledAt.Before(bookings[j].ScheduledAt)
		}
		return bookings[i].ID < bookings[j].ID
	})
}

var (
	_ BookingRepository       = memoryBookings{}
	_ AvailabilityRepository  = memoryAvailability{}
	_ StoreSettingsRepository = memorySettings{}
)
