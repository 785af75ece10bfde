package domain

import (
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingStatusScheduled      BookingStatus = "SCHEDULED"
	BookingStatusConfirmed      BookingStatus = "CONFIRMED"
	BookingStatusCheckIn        BookingStatus = "CHECKIN"
	BookingStatusVisitConfirmed BookingStatus = "VISIT_CONFIRMED"
	BookingStatusInProgress     BookingStatus = "IN_PROGRESS"
	BookingStatusCompleted      BookingStatus = "COMPLETED"
	BookingStatusCancelled      BookingStatus = "CANCELLED"
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	status := BookingStatus(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := AllowedTransitions[status]
	if !ok && !status.IsTerminal() {
		return "", false
	}
	return status, true
}

func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

type BookingResult string

const (
	ResultCompleted BookingResult = "COMPLETED"
	ResultCancelled BookingResult = "CANCELLED"
)

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionCheckIn  Action = "check_in"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
)

func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "confirm":
		return ActionConfirm, nil
	case "check_in", "checkin", "check-in":
		return ActionCheckIn, nil
	case "complete":
		return ActionComplete, nil
	case "cancel":
		return ActionCancel, nil
	default:
		return "", ErrUnknownAction
	}
}

// Booking is a scheduled vehicle viewing between one buyer and one seller.
type Booking struct {
	ID                 string
	VehicleID          string
	SellerID           string
	BuyerID            string
	ScheduledAt        time.Time
	Status             BookingStatus
	CheckInBuyer       bool
	CheckInSeller      bool
	Result             *BookingResult
	CancellationReason string
	Observations       string
	Version            int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// RoleOf returns the role actorID plays in the booking.
func (b *Booking) RoleOf(actorID string) (Role, bool) {
	switch actorID {
	case "":
		return "", false
	case b.SellerID:
		return RoleSeller, true
	case b.BuyerID:
		return RoleBuyer, true
	default:
		return "", false
	}
}

func (b *Booking) CheckedIn(role Role) bool {
	if role == RoleSeller {
		return b.CheckInSeller
	}
	return b.CheckInBuyer
}

func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	c := *b
	if b.Result != nil {
		r := *b.Result
		c.Result = &r
	}
	return &c
}

// DisplayLabel renders the participant-facing label for a booking. A
// CONFIRMED booking whose check-in window has opened reads as check-in open
// even before the scheduler flips its status.
func DisplayLabel(status BookingStatus, now, scheduledAt time.Time, checkInWindow time.Duration) string {
	switch status {
	case BookingStatusScheduled:
		return "awaiting seller confirmation"
	case BookingStatusConfirmed:
		if !now.Before(scheduledAt.Add(-checkInWindow)) {
			return "check-in open"
		}
		return "confirmed"
	case BookingStatusCheckIn:
		return "check-in open"
	case BookingStatusVisitConfirmed:
		if !now.Before(scheduledAt) {
			return "starting"
		}
		return "visit confirmed"
	case BookingStatusInProgress:
		return "in progress"
	case BookingStatusCompleted:
		return "completed"
	case BookingStatusCancelled:
		return "cancelled"
	default:
		return strings.ToLower(string(status))
	}
}
