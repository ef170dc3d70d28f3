// Package repository provides request-scoped access to users, flights,
// flight instances and bookings stored in Postgres.
package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"

	"yellowair/db"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrEmailTaken   = errors.New("email already registered")
	ErrEmptyMatch   = errors.New("branding match has no conditions")
)

type Repository struct {
	conn          *sql.DB
	q             db.DBTX
	now           func() time.Time
	bookingNumber func() (string, error)
}

func New(conn *sql.DB) *Repository {
	return &Repository{conn: conn, q: conn, now: time.Now, bookingNumber: newBookingNumber}
}

// containsPattern turns s into a LIKE pattern matching any value containing s.
func containsPattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
