package models

import (
	"time"
)

const (
	MembershipSilver = "SILVER"

	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	FlightScheduled = "SCHEDULED"
	FlightBoarding  = "BOARDING"
)

// BookableFlightStatuses are the flight statuses returned by search.
var BookableFlightStatuses = []string{FlightScheduled, FlightBoarding}

const (
	BookingPending   = "PENDING"
	BookingConfirmed = "CONFIRMED"
	BookingCheckedIn = "CHECKED_IN"
	BookingCompleted = "COMPLETED"
	BookingCancelled = "CANCELLED"
)

func ValidBookingStatus(status string) bool {
	switch status {
	case BookingPending, BookingConfirmed, BookingCheckedIn, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

type User struct {
	ID                     string     `json:"id"`
	Email                  string     `json:"email"`
	Name                   string     `json:"name"`
	PasswordHash           string     `json:"-"`
	MembershipLevel        string     `json:"membershipLevel"`
	Role                   string     `json:"role"`
	PasswordResetToken     *string    `json:"-"`
	PasswordResetExpires   *time.Time `json:"-"`
	EmailVerificationToken *string    `json:"-"`
	EmailVerified          *time.Time `json:"emailVerified"`
	CreatedAt              time.Time  `json:"createdAt"`
}

// UserSummary is the admin listing projection. It never carries secrets.
type UserSummary struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	MembershipLevel string    `json:"membershipLevel"`
	CreatedAt       time.Time `json:"createdAt"`
}

// BookingUser is the owner projection embedded in a booking.
type BookingUser struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	MembershipLevel string `json:"membershipLevel"`
}

type Flight struct {
	ID              string  `json:"id"`
	FlightNumber    string  `json:"flightNumber"`
	Airline         string  `json:"airline"`
	AirlineCode     string  `json:"airlineCode"`
	AirlineLogo     *string `json:"airlineLogo"`
	From            string  `json:"from"`
	FromCity        string  `json:"fromCity"`
	FromAirport     string  `json:"fromAirport"`
	To              string  `json:"to"`
	ToCity          string  `json:"toCity"`
	ToAirport       string  `json:"toAirport"`
	DepartureTime   string  `json:"departureTime"`
	ArrivalTime     string  `json:"arrivalTime"`
	Duration        string  `json:"duration"`
	Aircraft        string  `json:"aircraft"`
	Status          string  `json:"status"`
	EconomyPrice    float64 `json:"economyPrice"`
	BusinessPrice   float64 `json:"businessPrice"`
	FirstClassPrice float64 `json:"firstClassPrice"`
}

type FlightInstance struct {
	ID                   string     `json:"id"`
	FlightID             string     `json:"flightId"`
	Date                 time.Time  `json:"date"`
	Status               string     `json:"status"`
	ScheduledDeparture   time.Time  `json:"scheduledDeparture"`
	ScheduledArrival     time.Time  `json:"scheduledArrival"`
	ActualDeparture      *time.Time `json:"actualDeparture"`
	ActualArrival        *time.Time `json:"actualArrival"`
	AircraftType         *string    `json:"aircraftType"`
	AircraftRegistration *string    `json:"aircraftRegistration"`
	Gate                 *string    `json:"gate"`
	Terminal             *string    `json:"terminal"`
	WeatherOrigin        *string    `json:"weatherOrigin"`
	WeatherDestination   *string    `json:"weatherDestination"`
	Flight               Flight     `json:"flight"`
}

type Booking struct {
	ID             string       `json:"id"`
	BookingNumber  string       `json:"bookingNumber"`
	UserID         string       `json:"userId"`
	FlightID       string       `json:"flightId"`
	PassengerName  string       `json:"passengerName"`
	PassengerEmail string       `json:"passengerEmail"`
	Status         string       `json:"status"`
	TotalPrice     float64      `json:"totalPrice"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
	Flight         *Flight      `json:"flight,omitempty"`
	User           *BookingUser `json:"user,omitempty"`
}

type Stats struct {
	TotalUsers    int     `json:"totalUsers"`
	TotalFlights  int     `json:"totalFlights"`
	TotalBookings int     `json:"totalBookings"`
	Revenue       float64 `json:"revenue"`
}

// BrandingMatch selects flights by exact airline name, exact airline code,
// or a substring of the airline name. A flight matching any condition is updated.
type BrandingMatch struct {
	Names        []string `json:"names"`
	Codes        []string `json:"codes"`
	NameContains []string `json:"nameContains"`
}

func (m BrandingMatch) Empty() bool {
	return len(m.Names) == 0 && len(m.Codes) == 0 && len(m.NameContains) == 0
}

type Branding struct {
	Airline     string `json:"airline"`
	AirlineCode string `json:"airlineCode"`
	AirlineLogo string `json:"airlineLogo"`
}

type Pagination struct {
	Total       int `json:"total"`
	Pages       int `json:"pages"`
	CurrentPage int `json:"currentPage"`
}
