package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"yellowair/models"
)

const flightColumns = `f.id, f.flight_number, f.airline, f.airline_code, f.airline_logo,
		f.origin, f.origin_city, f.origin_airport,
		f.destination, f.destination_city, f.destination_airport,
		f.departure_time, f.arrival_time, f.duration, f.aircraft, f.status,
		f.economy_price, f.business_price, f.first_class_price`

func flightDest(f *models.Flight) []any {
	return []any{
		&f.ID, &f.FlightNumber, &f.Airline, &f.AirlineCode, &f.AirlineLogo,
		&f.From, &f.FromCity, &f.FromAirport,
		&f.To, &f.ToCity, &f.ToAirport,
		&f.DepartureTime, &f.ArrivalTime, &f.Duration, &f.Aircraft, &f.Status,
		&f.EconomyPrice, &f.BusinessPrice, &f.FirstClassPrice,
	}
}

func (r *Repository) GetFlightByID(ctx context.Context, id string) (*models.Flight, error) {
	query := `SELECT ` + flightColumns + `
		FROM flights f
		WHERE f.id = $1`

	var f models.Flight
	if err := r.q.QueryRowContext(ctx, query, id).Scan(flightDest(&f)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &f, nil
}

const instanceColumns = `fi.id, fi.flight_id, fi.date, fi.status,
		fi.scheduled_departure, fi.scheduled_arrival, fi.actual_departure, fi.actual_arrival,
		fi.aircraft_type, fi.aircraft_registration, fi.gate, fi.terminal,
		fi.weather_origin, fi.weather_destination,
		` + flightColumns

func instanceDest(fi *models.FlightInstance) []any {
	dest := []any{
		&fi.ID, &fi.FlightID, &fi.Date, &fi.Status,
		&fi.ScheduledDeparture, &fi.ScheduledArrival, &fi.ActualDeparture, &fi.ActualArrival,
		&fi.AircraftType, &fi.AircraftRegistration, &fi.Gate, &fi.Terminal,
		&fi.WeatherOrigin, &fi.WeatherDestination,
	}
	return append(dest, flightDest(&fi.Flight)...)
}

func (r *Repository) GetFlightInstanceByID(ctx context.Context, id string) (*models.FlightInstance, error) {
	query := `SELECT ` + instanceColumns + `
		FROM flight_instances fi
		JOIN flights f ON f.id = fi.flight_id
		WHERE fi.id = $1`

	var fi models.FlightInstance
	if err := r.q.QueryRowContext(ctx, query, id).Scan(instanceDest(&fi)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &fi, nil
}

// ListFlightInstances returns the instances operating on date, earliest
// scheduled departure first.
func (r *Repository) ListFlightInstances(ctx context.Context, date time.Time) ([]models.FlightInstance, error) {
	query := `SELECT ` + instanceColumns + `
		FROM flight_instances fi
		JOIN flights f ON f.id = fi.flight_id
		WHERE fi.date = $1
		ORDER BY fi.scheduled_departure ASC`

	rows, err := r.q.QueryContext(ctx, query, date.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	instances := []models.FlightInstance{}
	for rows.Next() {
		var fi models.FlightInstance
		if err := rows.Scan(instanceDest(&fi)...); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		instances = append(instances, fi)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return instances, nil
}

// SearchFlights returns the bookable flights between two airport codes,
// ordered by departure time. Codes are matched case-insensitively.
func (r *Repository) SearchFlights(ctx context.Context, from, to string) ([]models.Flight, error) {
	query := `SELECT ` + flightColumns + `
		FROM flights f
		WHERE f.origin = $1 AND f.destination = $2 AND f.status = ANY($3)
		ORDER BY f.departure_time ASC`

	rows, err := r.q.QueryContext(ctx, query,
		strings.ToUpper(from), strings.ToUpper(to), pq.Array(models.BookableFlightStatuses))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	flights := []models.Flight{}
	for rows.Next() {
		var f models.Flight
		if err := rows.Scan(flightDest(&f)...); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		flights = append(flights, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return flights, nil
}

// ListFlights returns one page of flights ordered by flight number, with the
// total number of matches. An empty search matches every flight.
func (r *Repository) ListFlights(ctx context.Context, search string, page, pageSize int) ([]models.Flight, int, error) {
	if page < 1 {
		page = 1
	}
	where := `WHERE ($1 = '' OR f.flight_number LIKE $2 OR f.origin LIKE $2 OR f.destination LIKE $2
		OR f.origin_city LIKE $2 OR f.destination_city LIKE $2)`
	pattern := containsPattern(search)

	var total int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM flights f `+where, search, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	rows, err := r.q.QueryContext(ctx, `SELECT `+flightColumns+`
		FROM flights f `+where+`
		ORDER BY f.flight_number ASC
		LIMIT $3 OFFSET $4`, search, pattern, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	flights := []models.Flight{}
	for rows.Next() {
		var f models.Flight
		if err := rows.Scan(flightDest(&f)...); err != nil {
			return nil, 0, fmt.Errorf("db error: %w", err)
		}
		flights = append(flights, f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	return flights, total, nil
}
