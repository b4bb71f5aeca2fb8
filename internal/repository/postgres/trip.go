package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"cabshare/internal/codec"
	"cabshare/internal/domain"
	"cabshare/internal/lib/sl"
	"cabshare/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB, log *slog.Logger) *TripRepository {
	return &TripRepository{db: db, log: log}
}

// LoadTrips retrieves all trips with their passenger entries.
// Rows with a location outside the service area are skipped.
func (r *TripRepository) LoadTrips(ctx context.Context) ([]codec.TripRecord, error) {
	const op = "postgres.LoadTrips"

	query := `
		SELECT id, host_username, origin, destination, departure_at, arrival_at, max_passengers, price_per_passenger, is_started
		FROM trips ORDER BY departure_at, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var trips []codec.TripRecord
	index := make(map[string]int)
	for rows.Next() {
		var rec codec.TripRecord
		var origin, destination string
		var departure, arrival time.Time

		if err := rows.Scan(
			&rec.ID,
			&rec.HostUsername,
			&origin,
			&destination,
			&departure,
			&arrival,
			&rec.MaxPassengers,
			&rec.PricePerPassenger,
			&rec.Started,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if rec.Origin, err = domain.ParseLocation(origin); err != nil {
			r.log.Warn("skipping trip row", slog.String("op", op), slog.String("trip_id", rec.ID), sl.Err(err))
			continue
		}
		if rec.Destination, err = domain.ParseLocation(destination); err != nil {
			r.log.Warn("skipping trip row", slog.String("op", op), slog.String("trip_id", rec.ID), sl.Err(err))
			continue
		}
		rec.Departure = departure
		rec.Arrival = arrival

		index[rec.ID] = len(trips)
		trips = append(trips, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := r.loadPassengers(ctx, trips, index); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return trips, nil
}

func (r *TripRepository) loadPassengers(ctx context.Context, trips []codec.TripRecord, index map[string]int) error {
	query := `SELECT trip_id, username, seats FROM trip_passengers ORDER BY trip_id, username`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var tripID string
		var seat codec.SeatRecord
		if err := rows.Scan(&tripID, &seat.Username, &seat.Seats); err != nil {
			return err
		}

		i, ok := index[tripID]
		if !ok {
			continue
		}
		trips[i].Passengers = append(trips[i].Passengers, seat)
	}
	return rows.Err()
}

// SaveTrips replaces the trips and trip_passengers tables in one transaction.
func (r *TripRepository) SaveTrips(ctx context.Context, trips []codec.TripRecord) error {
	const op = "postgres.SaveTrips"

	err := rewrite(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM trip_passengers`); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM trips`); err != nil {
			return err
		}

		tripQuery := `
			INSERT INTO trips (id, host_username, origin, destination, departure_at, arrival_at, max_passengers, price_per_passenger, is_started)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		seatQuery := `INSERT INTO trip_passengers (trip_id, username, seats) VALUES ($1, $2, $3)`

		for _, rec := range trips {
			if _, err := tx.ExecContext(ctx, tripQuery,
				rec.ID,
				rec.HostUsername,
				string(rec.Origin),
				string(rec.Destination),
				rec.Departure,
				rec.Arrival,
				rec.MaxPassengers,
				rec.PricePerPassenger,
				rec.Started,
			); err != nil {
				return err
			}

			for _, p := range rec.Passengers {
				if _, err := tx.ExecContext(ctx, seatQuery, rec.ID, p.Username, p.Seats); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
