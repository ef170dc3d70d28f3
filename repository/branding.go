package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"yellowair/models"
)

// BulkUpdateAirlineBranding sets the airline name, code and logo on every
// flight matching any of the conditions and returns the number of rows changed.
func (r *Repository) BulkUpdateAirlineBranding(ctx context.Context, match models.BrandingMatch, values models.Branding) (int64, error) {
	if match.Empty() {
		return 0, ErrEmptyMatch
	}

	patterns := make([]string, 0, len(match.NameContains))
	for _, s := range match.NameContains {
		patterns = append(patterns, containsPattern(s))
	}

	var logo *string
	if values.AirlineLogo != "" {
		logo = &values.AirlineLogo
	}

	res, err := r.q.ExecContext(ctx, `UPDATE flights
		SET airline = $1, airline_code = $2, airline_logo = $3
		WHERE airline = ANY($4) OR airline_code = ANY($5) OR airline LIKE ANY($6)`,
		values.Airline, values.AirlineCode, logo,
		pq.Array(nonNil(match.Names)), pq.Array(nonNil(match.Codes)), pq.Array(patterns))
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
