package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/visitbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingFilter struct {
	BuyerID  string
	SellerID string
	Statuses []domain.BookingStatus
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	// Update persists booking if its Version still matches the stored one and
	// bumps booking.Version. A mismatch yields domain.ErrStaleBooking.
	Update(ctx context.Context, booking *domain.Booking) error
	List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error)
	ListOpenIDs(ctx context.Context) ([]string, error)
	ExistsActiveAt(ctx context.Context, sellerID string, at time.Time) (bool, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, vehicle_id, seller_id, buyer_id, scheduled_at, status, check_in_buyer, check_in_seller,
	result, cancellation_reason, observations, version, created_at, updated_at`

func (r *PGBookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	b.Version = 1
	_, err := r.db.Exec(ctx, `INSERT INTO visit_bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		b.ID, b.VehicleID, b.SellerID, b.BuyerID, b.ScheduledAt, b.Status, b.CheckInBuyer, b.CheckInSeller,
		resultValue(b.Result), b.CancellationReason, b.Observations, b.Version, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM visit_bookings WHERE id=$1`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func (r *PGBookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	var version int64
	err := r.db.QueryRow(ctx, `UPDATE visit_bookings
		SET status=$1, check_in_buyer=$2, check_in_seller=$3, result=$4, cancellation_reason=$5,
			observations=$6, updated_at=$7, version = version + 1
		WHERE id=$8 AND version=$9
		RETURNING version`,
		b.Status, b.CheckInBuyer, b.CheckInSeller, resultValue(b.Result), b.CancellationReason,
		b.Observations, b.UpdatedAt, b.ID, b.Version).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, b.ID); getErr != nil {
				return getErr
			}
			return domain.ErrStaleBooking
		}
		return fmt.Errorf("update booking: %w", err)
	}
	b.Version = version
	return nil
}

func (r *PGBookingRepository) List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.BuyerID != "" {
		args = append(args, filter.BuyerID)
		where = append(where, fmt.Sprintf("buyer_id=$%d", len(args)))
	}
	if filter.SellerID != "" {
		args = append(args, filter.SellerID)
		where = append(where, fmt.Sprintf("seller_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		args = append(args, statusStrings(filter.Statuses))
		where = append(where, fmt.Sprintf("status = ANY($%d)", len(args)))
	}

	query := `SELECT ` + bookingColumns + ` FROM visit_bookings`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY scheduled_at, id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *PGBookingRepository) ListOpenIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM visit_bookings WHERE status = ANY($1) ORDER BY scheduled_at`,
		statusStrings(domain.OpenStatuses))
	if err != nil {
		return nil, fmt.Errorf("list open bookings: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PGBookingRepository) ExistsActiveAt(ctx context.Context, sellerID string, at time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM visit_bookings WHERE seller_id=$1 AND scheduled_at=$2 AND status <> $3)`,
		sellerID, at, domain.BookingStatusCancelled).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slot occupancy: %w", err)
	}
	return exists, nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b      domain.Booking
		result *string
	)
	if err := row.Scan(&b.ID, &b.VehicleID, &b.SellerID, &b.BuyerID, &b.ScheduledAt, &b.Status,
		&b.CheckInBuyer, &b.CheckInSeller, &result, &b.CancellationReason, &b.Observations,
		&b.Version, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	if result != nil {
		res := domain.BookingResult(*result)
		b.Result = &res
	}
	return &b, nil
}

func resultValue(r *domain.BookingResult) *string {
	if r == nil {
		return nil
	}
	s := string(*r)
	return &s
}

func statusStrings(statuses []domain.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

var _ BookingRepository = (*PGBookingRepository)(nil)
