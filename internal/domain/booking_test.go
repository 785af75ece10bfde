package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(BookingStatusScheduled, BookingStatusConfirmed))
	assert.True(t, CanTransition(BookingStatusCheckIn, BookingStatusCheckIn))
	assert.True(t, CanTransition(BookingStatusVisitConfirmed, BookingStatusCancelled))
	assert.True(t, CanTransition(BookingStatusInProgress, BookingStatusCompleted))

	assert.False(t, CanTransition(BookingStatusScheduled, BookingStatusCheckIn))
	assert.False(t, CanTransition(BookingStatusConfirmed, BookingStatusInProgress))
	assert.False(t, CanTransition(BookingStatusInProgress, BookingStatusCancelled))

	for _, terminal := range []BookingStatus{BookingStatusCompleted, BookingStatusCancelled} {
		for _, to := range append(OpenStatuses, BookingStatusCompleted, BookingStatusCancelled) {
			assert.False(t, CanTransition(terminal, to), "%s -> %s", terminal, to)
		}
	}
}

func TestParseBookingStatus(t *testing.T) {
	s, ok := ParseBookingStatus("checkin")
	assert.True(t, ok)
	assert.Equal(t, BookingStatusCheckIn, s)

	s, ok = ParseBookingStatus("COMPLETED")
	assert.True(t, ok)
	assert.Equal(t, BookingStatusCompleted, s)

	_, ok = ParseBookingStatus("EXPIRED")
	assert.False(t, ok)
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("checkIn")
	assert.NoError(t, err)
	assert.Equal(t, ActionCheckIn, a)

	_, err = ParseAction("approve")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestBooking_RoleOf(t *testing.T) {
	b := &Booking{BuyerID: "buyer-1", SellerID: "seller-1"}

	role, ok := b.RoleOf("buyer-1")
	assert.True(t, ok)
	assert.Equal(t, RoleBuyer, role)

	role, ok = b.RoleOf("seller-1")
	assert.True(t, ok)
	assert.Equal(t, RoleSeller, role)

	_, ok = b.RoleOf("stranger")
	assert.False(t, ok)
	_, ok = b.RoleOf("")
	assert.False(t, ok)
}

func TestBooking_CloneDetachesResult(t *testing.T) {
	res := ResultCompleted
	b := &Booking{ID: "b1", Result: &res}
	c := b.Clone()

	*c.Result = ResultCancelled
	assert.Equal(t, ResultCompleted, *b.Result)
}

func TestDisplayLabel(t *testing.T) {
	at := time.Date(2026, time.October, 20, 15, 0, 0, 0, time.UTC)
	window := 4 * time.Hour

	assert.Equal(t, "confirmed", DisplayLabel(BookingStatusConfirmed, at.Add(-5*time.Hour), at, window))
	assert.Equal(t, "check-in open", DisplayLabel(BookingStatusConfirmed, at.Add(-4*time.Hour), at, window))
	assert.Equal(t, "check-in open", DisplayLabel(BookingStatusCheckIn, at.Add(-time.Hour), at, window))
	assert.Equal(t, "visit confirmed", DisplayLabel(BookingStatusVisitConfirmed, at.Add(-time.Minute), at, window))
	assert.Equal(t, "starting", DisplayLabel(BookingStatusVisitConfirmed, at, at, window))
	assert.Equal(t, "cancelled", DisplayLabel(BookingStatusCancelled, at, at, window))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, CodeGuard, KindOf(ErrCheckInTooEarly))
	assert.Equal(t, CodeRole, KindOf(ErrSellerOnly))
	assert.Equal(t, CodeValidation, KindOf(NewValidationError("reason", "required")))
	assert.Equal(t, CodeNotFound, KindOf(ErrBookingNotFound))
	assert.Equal(t, CodeConflict, KindOf(ErrSlotUnavailable))
	assert.Equal(t, CodeInternal, KindOf(errors.New("boom")))
	assert.Equal(t, "", KindOf(nil))
}
