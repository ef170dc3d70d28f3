package repository

import (
	"context"
	"fmt"

	"yellowair/models"
)

func (r *Repository) GetStats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats

	// 1. Counts
	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM users", &stats.TotalUsers},
		{"SELECT COUNT(*) FROM flights", &stats.TotalFlights},
		{"SELECT COUNT(*) FROM bookings", &stats.TotalBookings},
	}
	for _, c := range counts {
		if err := r.q.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
	}

	// 2. Revenue (SUM is NULL when there are no bookings)
	var revenue *float64
	if err := r.q.QueryRowContext(ctx, "SELECT SUM(total_price) FROM bookings").Scan(&revenue); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if revenue != nil {
		stats.Revenue = *revenue
	}

	return &stats, nil
}
