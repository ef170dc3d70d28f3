package handlers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"yellowair/auth"
	"yellowair/config"
	"yellowair/models"
	"yellowair/services"
)

// Store is the persistence the handlers need. *repository.Repository
// implements it.
type Store interface {
	GetFlightByID(ctx context.Context, id string) (*models.Flight, error)
	GetFlightInstanceByID(ctx context.Context, id string) (*models.FlightInstance, error)
	ListFlightInstances(ctx context.Context, date time.Time) ([]models.FlightInstance, error)
	SearchFlights(ctx context.Context, from, to string) ([]models.Flight, error)
	ListFlights(ctx context.Context, search string, page, pageSize int) ([]models.Flight, int, error)
	BulkUpdateAirlineBranding(ctx context.Context, match models.BrandingMatch, values models.Branding) (int64, error)

	GetBookingByID(ctx context.Context, id string) (*models.Booking, error)
	GetBookingByNumber(ctx context.Context, number string) (*models.Booking, error)
	CreateBooking(ctx context.Context, b *models.Booking) (*models.Booking, error)
	ListBookings(ctx context.Context, search string, limit int) ([]models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id, status string) (*models.Booking, error)

	ListUsers(ctx context.Context) ([]models.UserSummary, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) (*models.User, error)
	SetEmailVerificationToken(ctx context.Context, userID, token string) error
	SetPasswordResetToken(ctx context.Context, userID, token string, expires time.Time) error
	VerifyEmail(ctx context.Context, token string) error
	VerifyResetToken(ctx context.Context, token string) error
	ResetPassword(ctx context.Context, token, passwordHash string) error

	GetStats(ctx context.Context) (*models.Stats, error)
}

type Deps struct {
	Store    Store
	Codec    *auth.Codec
	Guard    auth.Guard
	Mailer   services.Mailer
	Notifier services.Notifier
	Log      *logrus.Logger
	Features config.Features
	Auth     config.Auth
	AppURL   string
	// DataVersion is mixed into every ETag so bumping it invalidates
	// client caches after a bulk data change.
	DataVersion string
}

type Handler struct {
	store       Store
	codec       *auth.Codec
	guard       auth.Guard
	mailer      services.Mailer
	notifier    services.Notifier
	log         *logrus.Logger
	features    config.Features
	auth        config.Auth
	appURL      string
	dataVersion string
	now         func() time.Time
}

func New(d Deps) *Handler {
	return &Handler{
		store:       d.Store,
		codec:       d.Codec,
		guard:       d.Guard,
		mailer:      d.Mailer,
		notifier:    d.Notifier,
		log:         d.Log,
		features:    d.Features,
		auth:        d.Auth,
		appURL:      d.AppURL,
		dataVersion: d.DataVersion,
		now:         time.Now,
	}
}
