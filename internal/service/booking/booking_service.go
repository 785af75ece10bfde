package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/visitbooking/internal/domain"
	"github.com/Domenick1991/visitbooking/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	PerformAction(ctx context.Context, bookingID, actorID string, action domain.Action, payload ActionPayload) (*domain.Booking, error)
	GetBooking(ctx context.Context, id string) (*domain.Booking, error)
	ListBookings(ctx context.Context, filter ListFilter) ([]domain.Booking, error)
}

// SlotSource resolves the bookable labels of a seller for one day.
type SlotSource interface {
	GetAvailableSlots(ctx context.Context, sellerID string, date domain.Date) ([]domain.TimeLabel, error)
}

// Notifier receives one event per applied transition. It must not block.
type Notifier interface {
	Notify(ctx context.Context, event domain.LifecycleEvent)
}

// SlotLocker serializes booking creation for one seller slot across
// instances.
type SlotLocker interface {
	AcquireSlotLock(ctx context.Context, sellerID string, at time.Time, ttl time.Duration) (token string, ok bool, err error)
	ReleaseSlotLock(ctx context.Context, sellerID string, at time.Time, token string) error
}

type DoubleBookingPolicy string

const (
	// DoubleBookingAllow lets several buyers book the same slot; the seller
	// picks by confirming one of them.
	DoubleBookingAllow     DoubleBookingPolicy = "allow"
	DoubleBookingExclusive DoubleBookingPolicy = "exclusive"
)

type CreateBookingInput struct {
	BuyerID   string `json:"buyer_id" validate:"required,max=64"`
	SellerID  string `json:"seller_id" validate:"required,max=64,nefield=BuyerID"`
	VehicleID string `json:"vehicle_id" validate:"required,max=64"`
	Date      string `json:"date" validate:"required,datefmt"`
	Time      string `json:"time" validate:"required,timelabel"`
}

type ActionPayload struct {
	Reason string `json:"reason"`
}

type ListFilter struct {
	ActorID string               `validate:"required"`
	Role    domain.Role          `validate:"required,oneof=buyer seller"`
	Status  domain.BookingStatus `validate:"omitempty,oneof=SCHEDULED CONFIRMED CHECKIN VISIT_CONFIRMED IN_PROGRESS COMPLETED CANCELLED"`
}

type BookingService struct {
	bookings    repository.BookingRepository
	slots       SlotSource
	notifier    Notifier
	slotLocker  SlotLocker
	slotLockTTL time.Duration
	policy      DoubleBookingPolicy
	windows     Windows
	location    *time.Location
	concurrency int
	locks       *keyedMutex
	log         *zap.Logger
	now         func() time.Time
}

type BookingServiceOption func(*BookingService)

func WithNotifier(n Notifier) BookingServiceOption {
	return func(s *BookingService) {
		s.notifier = n
	}
}

func WithSlotLocker(locker SlotLocker, ttl time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.slotLocker = locker
		s.slotLockTTL = ttl
	}
}

func WithDoubleBookingPolicy(policy DoubleBookingPolicy) BookingServiceOption {
	return func(s *BookingService) {
		s.policy = policy
	}
}

func WithWindows(w Windows) BookingServiceOption {
	return func(s *BookingService) {
		s.windows = w
	}
}

func WithLocation(loc *time.Location) BookingServiceOption {
	return func(s *BookingService) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithSweepConcurrency(n int) BookingServiceOption {
	return func(s *BookingService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithLogger(log *zap.Logger) BookingServiceOption {
	return func(s *BookingService) {
		if log != nil {
			s.log = log
		}
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewBookingService(bookings repository.BookingRepository, slots SlotSource, opts ...BookingServiceOption) *BookingService {
	service := &BookingService{
		bookings:    bookings,
		slots:       slots,
		slotLockTTL: 10 * time.Second,
		policy:      DoubleBookingAllow,
		windows:     DefaultWindows(),
		location:    time.UTC,
		concurrency: 8,
		locks:       newKeyedMutex(),
		log:         zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Windows returns the lifecycle windows the service enforces.
func (s *BookingService) Windows() Windows {
	return s.windows
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if err := domain.Validate(input); err != nil {
		return nil, err
	}
	date, err := domain.ParseDate(input.Date)
	if err != nil {
		return nil, err
	}
	label, err := domain.ParseTimeLabel(input.Time)
	if err != nil {
		return nil, err
	}

	now := s.now()
	scheduledAt := domain.At(date, label, s.location)
	if !scheduledAt.After(now) {
		return nil, domain.ErrSlotInPast
	}

	available, err := s.slots.GetAvailableSlots(ctx, input.SellerID, date)
	if err != nil {
		return nil, fmt.Errorf("resolve slots: %w", err)
	}
	if !domain.ContainsLabel(available, label) {
		return nil, domain.ErrSlotUnavailable
	}

	if s.policy == DoubleBookingExclusive {
		release, err := s.lockSlot(ctx, input.SellerID, scheduledAt)
		if err != nil {
			return nil, err
		}
		defer release()

		taken, err := s.bookings.ExistsActiveAt(ctx, input.SellerID, scheduledAt)
		if err != nil {
			return nil, fmt.Errorf("check slot: %w", err)
		}
		if taken {
			return nil, domain.ErrSlotTaken
		}
	}

	booking := &domain.Booking{
		ID:          uuid.NewString(),
		VehicleID:   input.VehicleID,
		SellerID:    input.SellerID,
		BuyerID:     input.BuyerID,
		ScheduledAt: scheduledAt,
		Status:      domain.BookingStatusScheduled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	booking.Observations = fmt.Sprintf("%s: scheduled by buyer %s", now.UTC().Format(time.RFC3339), input.BuyerID)

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.log.Info("booking scheduled",
		zap.String("booking_id", booking.ID),
		zap.String("seller_id", booking.SellerID),
		zap.Time("scheduled_at", booking.ScheduledAt),
	)
	s.emit(ctx, booking, []transition{{
		to:    domain.BookingStatusScheduled,
		event: domain.EventScheduled,
		actor: input.BuyerID,
		role:  domain.RoleBuyer,
	}}, now)
	return booking, nil
}

// lockSlot prefers the shared redis lock and falls back to an in-process
// one when no locker is configured.
func (s *BookingService) lockSlot(ctx context.Context, sellerID string, at time.Time) (func(), error) {
	if s.slotLocker == nil {
		return s.locks.Lock(fmt.Sprintf("slot:%s:%d", sellerID, at.Unix())), nil
	}

	token, ok, err := s.slotLocker.AcquireSlotLock(ctx, sellerID, at, s.slotLockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire slot lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrSlotTaken
	}
	return func() {
		if err := s.slotLocker.ReleaseSlotLock(context.WithoutCancel(ctx), sellerID, at, token); err != nil {
			s.log.Warn("release slot lock", zap.String("seller_id", sellerID), zap.Error(err))
		}
	}, nil
}

// PerformAction runs a participant action inside the booking's critical
// section. Automatic edges that are already due are applied first, so the
// action is judged against the current status.
func (s *BookingService) PerformAction(ctx context.Context, bookingID, actorID string, action domain.Action, payload ActionPayload) (*domain.Booking, error) {
	unlock := s.locks.Lock(bookingID)
	defer unlock()

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	role, ok := booking.RoleOf(actorID)
	if !ok {
		return nil, domain.ErrNotParticipant
	}
	if err := authorize(action, role, payload.Reason); err != nil {
		return nil, err
	}

	now := s.now()
	applied := advance(booking, now, s.windows)

	t, guardErr := manual(booking, action, actorID, role, payload.Reason, now, s.windows)
	if guardErr != nil {
		if len(applied) > 0 {
			// The action failed but the catch-up still happened.
			if err := s.persist(ctx, booking, applied, now); err != nil {
				s.log.Error("persist catch-up", zap.String("booking_id", bookingID), zap.Error(err))
			}
		}
		return nil, guardErr
	}

	apply(booking, t, now)
	applied = append(applied, t)
	applied = append(applied, advance(booking, now, s.windows)...)

	if err := s.persist(ctx, booking, applied, now); err != nil {
		return nil, err
	}

	s.log.Info("booking action applied",
		zap.String("booking_id", booking.ID),
		zap.String("action", string(action)),
		zap.String("role", string(role)),
		zap.String("status", string(booking.Status)),
	)
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *BookingService) ListBookings(ctx context.Context, filter ListFilter) ([]domain.Booking, error) {
	if err := domain.Validate(filter); err != nil {
		return nil, err
	}

	repoFilter := repository.BookingFilter{}
	if filter.Role == domain.RoleSeller {
		repoFilter.SellerID = filter.ActorID
	} else {
		repoFilter.BuyerID = filter.ActorID
	}
	if filter.Status != "" {
		repoFilter.Statuses = []domain.BookingStatus{filter.Status}
	}
	return s.bookings.List(ctx, repoFilter)
}

func (s *BookingService) persist(ctx context.Context, booking *domain.Booking, applied []transition, now time.Time) error {
	if err := s.bookings.Update(ctx, booking); err != nil {
		if errors.Is(err, domain.ErrStaleBooking) {
			return err
		}
		return fmt.Errorf("update booking %s: %w", booking.ID, err)
	}
	s.emit(ctx, booking, applied, now)
	return nil
}

func (s *BookingService) emit(ctx context.Context, booking *domain.Booking, applied []transition, now time.Time) {
	if s.notifier == nil {
		return
	}
	for _, t := range applied {
		s.notifier.Notify(ctx, domain.LifecycleEvent{
			ID:          uuid.NewString(),
			Type:        t.event,
			BookingID:   booking.ID,
			VehicleID:   booking.VehicleID,
			BuyerID:     booking.BuyerID,
			SellerID:    booking.SellerID,
			From:        t.from,
			To:          t.to,
			Actor:       t.actor,
			ActorRole:   t.role,
			Reason:      t.reason,
			ScheduledAt: booking.ScheduledAt,
			OccurredAt:  now,
		})
	}
}

var _ BookingUseCase = (*BookingService)(nil)
