package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"cabshare/internal/codec"
	"cabshare/internal/directory"
	"cabshare/internal/domain"
	"cabshare/internal/lib/sl"
	"cabshare/internal/metrics"
	"cabshare/internal/registry"
	"cabshare/internal/repository"
)

const (
	tableUsers = "users"
	tableTrips = "trips"
)

// Persister flushes the in-memory directory and registry to storage and
// loads them back. Every flush rewrites a whole table; flushes of the same
// table never overlap so a later snapshot cannot be overwritten by an
// earlier one.
type Persister struct {
	directory *directory.Directory
	registry  *registry.Registry
	users     repository.UserRepository
	trips     repository.TripRepository
	metrics   *metrics.Metrics
	log       *slog.Logger

	// state is held shared by mutations and exclusively by Load.
	state   sync.RWMutex
	usersMu sync.Mutex
	tripsMu sync.Mutex
}

// NewPersister creates a new Persister.
func NewPersister(
	dir *directory.Directory,
	reg *registry.Registry,
	users repository.UserRepository,
	trips repository.TripRepository,
	m *metrics.Metrics,
	log *slog.Logger,
) *Persister {
	return &Persister{
		directory: dir,
		registry:  reg,
		users:     users,
		trips:     trips,
		metrics:   m,
		log:       log,
	}
}

// hold keeps Load from swapping the tables while a mutation and its flush
// are in progress. Call the returned function when done.
func (p *Persister) hold() func() {
	p.state.RLock()
	return p.state.RUnlock
}

// FlushUsers writes every registered user.
func (p *Persister) FlushUsers(ctx context.Context) error {
	const op = "service.Persister.FlushUsers"

	p.usersMu.Lock()
	defer p.usersMu.Unlock()

	if err := p.users.SaveUsers(ctx, p.directory.All()); err != nil {
		return p.failed(op, tableUsers, err)
	}
	return nil
}

// FlushTrips writes every trip with its passenger ledger.
func (p *Persister) FlushTrips(ctx context.Context) error {
	const op = "service.Persister.FlushTrips"

	p.tripsMu.Lock()
	defer p.tripsMu.Unlock()

	trips := p.registry.All()
	records := make([]codec.TripRecord, 0, len(trips))
	for _, trip := range trips {
		records = append(records, codec.RecordFromTrip(trip))
	}

	if err := p.trips.SaveTrips(ctx, records); err != nil {
		return p.failed(op, tableTrips, err)
	}
	return nil
}

func (p *Persister) failed(op, table string, err error) error {
	p.metrics.PersistenceFailures.WithLabelValues(table).Inc()
	p.log.Error("failed to flush table", slog.String("op", op), slog.String("table", table), sl.Err(err))
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

// Load replaces the directory and registry with the stored tables. Users
// are loaded first so trips can resolve their host and passengers. Nothing
// is replaced when either table fails to load.
func (p *Persister) Load(ctx context.Context) error {
	const op = "service.Persister.Load"

	p.state.Lock()
	defer p.state.Unlock()
	p.usersMu.Lock()
	defer p.usersMu.Unlock()
	p.tripsMu.Lock()
	defer p.tripsMu.Unlock()

	users, err := p.users.LoadUsers(ctx)
	if err != nil {
		p.metrics.Reloads.WithLabelValues("error").Inc()
		return fmt.Errorf("%s: load users: %w", op, err)
	}
	records, err := p.trips.LoadTrips(ctx)
	if err != nil {
		p.metrics.Reloads.WithLabelValues("error").Inc()
		return fmt.Errorf("%s: load trips: %w", op, err)
	}

	byName := make(map[string]*domain.User, len(users))
	for _, u := range users {
		if _, ok := byName[u.Username]; !ok {
			byName[u.Username] = u
		}
	}

	trips := make([]*domain.Trip, 0, len(records))
	for _, rec := range records {
		trip, ok := p.restore(op, rec, byName)
		if ok {
			trips = append(trips, trip)
		}
	}

	p.directory.Replace(users)
	p.registry.Replace(trips)
	p.metrics.Reloads.WithLabelValues("ok").Inc()

	p.log.Debug("state loaded",
		slog.String("op", op),
		slog.Int("users", p.directory.Len()),
		slog.Int("trips", len(trips)),
	)
	return nil
}

// restore rebuilds one trip. Passengers are booked through the normal
// capacity check before the started flag is applied, so a stored ledger
// that overflows loses its trailing entries instead of the trip.
func (p *Persister) restore(op string, rec codec.TripRecord, users map[string]*domain.User) (*domain.Trip, bool) {
	log := p.log.With(slog.String("op", op), slog.String("trip_id", rec.ID))

	host, ok := users[rec.HostUsername]
	if !ok {
		log.Warn("skipping trip with unknown host", slog.String("host", rec.HostUsername))
		return nil, false
	}

	trip, err := domain.RestoreTrip(rec.ID, host, rec.Origin, rec.Destination,
		rec.Departure, rec.Arrival, rec.MaxPassengers, rec.PricePerPassenger)
	if err != nil {
		log.Warn("skipping invalid trip", sl.Err(err))
		return nil, false
	}

	for _, seat := range rec.Passengers {
		user, ok := users[seat.Username]
		if !ok {
			log.Warn("skipping passenger with unknown username", slog.String("username", seat.Username))
			continue
		}
		if err := trip.Book(seat.Seats, user); err != nil {
			log.Warn("skipping passenger booking",
				slog.String("username", seat.Username),
				slog.Int("seats", seat.Seats),
				sl.Err(err),
			)
		}
	}

	if rec.Started {
		trip.StartRide()
	}
	return trip, true
}
