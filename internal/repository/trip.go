package repository

import (
	"context"

	"cabshare/internal/codec"
)

// TripRepository defines the persistence operations for the trip table.
// Trips are exchanged as records; resolving usernames is the caller's job.
type TripRepository interface {
	// LoadTrips reads every stored trip. A missing table yields no trips.
	LoadTrips(ctx context.Context) ([]codec.TripRecord, error)

	// SaveTrips replaces the stored table with trips.
	SaveTrips(ctx context.Context, trips []codec.TripRecord) error
}

// TableLocker serializes table rewrites across processes sharing the same storage.
type TableLocker interface {
	// Lock blocks until the named table lock is held or ctx is done.
	// The returned function releases the lock.
	Lock(ctx context.Context, table string) (func(), error)
}
