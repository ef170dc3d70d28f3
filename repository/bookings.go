package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"

	"yellowair/models"
)

const bookingColumns = `b.id, b.booking_number, b.user_id, b.flight_id, b.passenger_name, b.passenger_email,
		b.status, b.total_price, b.created_at, b.updated_at`

func bookingDest(b *models.Booking) []any {
	return []any{
		&b.ID, &b.BookingNumber, &b.UserID, &b.FlightID, &b.PassengerName, &b.PassengerEmail,
		&b.Status, &b.TotalPrice, &b.CreatedAt, &b.UpdatedAt,
	}
}

const (
	bookingLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	bookingDigits  = "0123456789"

	bookingNumberAttempts = 3
)

// newBookingNumber returns "YA" followed by two letters and six digits,
// e.g. YAKD402913.
func newBookingNumber() (string, error) {
	var b strings.Builder
	b.WriteString("YA")
	for i := 0; i < 8; i++ {
		alphabet := bookingDigits
		if i < 2 {
			alphabet = bookingLetters
		}
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String(), nil
}

// GetBookingByID returns the booking with its flight and a projection of its
// owner. Password and token fields are never selected.
func (r *Repository) GetBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	return r.getBooking(ctx, "b.id", id)
}

// GetBookingByNumber looks a booking up by its booking number, ignoring case.
func (r *Repository) GetBookingByNumber(ctx context.Context, number string) (*models.Booking, error) {
	return r.getBooking(ctx, "b.booking_number", strings.ToUpper(strings.TrimSpace(number)))
}

func (r *Repository) getBooking(ctx context.Context, column, value string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + `,
		u.id, u.name, u.email, u.membership_level,
		` + flightColumns + `
		FROM bookings b
		JOIN users u ON u.id = b.user_id
		JOIN flights f ON f.id = b.flight_id
		WHERE ` + column + ` = $1`

	b := models.Booking{Flight: &models.Flight{}, User: &models.BookingUser{}}
	dest := bookingDest(&b)
	dest = append(dest, &b.User.ID, &b.User.Name, &b.User.Email, &b.User.MembershipLevel)
	dest = append(dest, flightDest(b.Flight)...)

	if err := r.q.QueryRowContext(ctx, query, value).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &b, nil
}

// CreateBooking books b.FlightID for b.UserID and returns it with its flight.
// ID, booking number and timestamps are filled in; a booking number that is
// already taken is regenerated. ErrNotFound means the flight does not exist.
func (r *Repository) CreateBooking(ctx context.Context, b *models.Booking) (*models.Booking, error) {
	flight, err := r.GetFlightByID(ctx, b.FlightID)
	if err != nil {
		return nil, err
	}

	b.ID = uuid.NewString()
	if b.Status == "" {
		b.Status = models.BookingConfirmed
	}
	b.CreatedAt = r.now()
	b.UpdatedAt = b.CreatedAt

	for attempt := 1; ; attempt++ {
		b.BookingNumber, err = r.bookingNumber()
		if err != nil {
			return nil, fmt.Errorf("booking number: %w", err)
		}

		_, err = r.q.ExecContext(ctx, `INSERT INTO bookings
			(id, booking_number, user_id, flight_id, passenger_name, passenger_email, status, total_price, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			b.ID, b.BookingNumber, b.UserID, b.FlightID, b.PassengerName, b.PassengerEmail,
			b.Status, b.TotalPrice, b.CreatedAt, b.UpdatedAt)
		if err == nil {
			break
		}
		if !isUniqueViolation(err) || attempt == bookingNumberAttempts {
			return nil, fmt.Errorf("db error: %w", err)
		}
	}

	b.Flight = flight
	return b, nil
}

// ListBookings returns the newest bookings with their flights, optionally
// filtered by a substring of the booking number, passenger name or email.
func (r *Repository) ListBookings(ctx context.Context, search string, limit int) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + `,
		` + flightColumns + `
		FROM bookings b
		JOIN flights f ON f.id = b.flight_id
		WHERE ($1 = '' OR b.booking_number LIKE $2 OR b.passenger_name LIKE $2 OR b.passenger_email LIKE $2)
		ORDER BY b.created_at DESC
		LIMIT $3`

	rows, err := r.q.QueryContext(ctx, query, search, containsPattern(search), limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	bookings := []models.Booking{}
	for rows.Next() {
		b := models.Booking{Flight: &models.Flight{}}
		dest := append(bookingDest(&b), flightDest(b.Flight)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return bookings, nil
}

func (r *Repository) UpdateBookingStatus(ctx context.Context, id, status string) (*models.Booking, error) {
	query := `UPDATE bookings b
		SET status = $1, updated_at = $2
		WHERE b.id = $3
		RETURNING ` + bookingColumns

	var b models.Booking
	if err := r.q.QueryRowContext(ctx, query, status, r.now(), id).Scan(bookingDest(&b)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &b, nil
}
