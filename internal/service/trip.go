package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"cabshare/internal/directory"
	"cabshare/internal/domain"
	"cabshare/internal/lib/sl"
	"cabshare/internal/metrics"
	"cabshare/internal/redis"
	"cabshare/internal/registry"
)

// TripService handles posting, booking and starting trips.
type TripService struct {
	registry  *registry.Registry
	directory *directory.Directory
	matching  *MatchingService
	persister *Persister
	publisher redis.StatusPublisherInterface
	metrics   *metrics.Metrics
	log       *slog.Logger
	validate  *validator.Validate
}

// NewTripService creates a new TripService. publisher may be nil when no
// status cache is configured.
func NewTripService(
	reg *registry.Registry,
	dir *directory.Directory,
	matching *MatchingService,
	persister *Persister,
	publisher redis.StatusPublisherInterface,
	m *metrics.Metrics,
	log *slog.Logger,
) *TripService {
	return &TripService{
		registry:  reg,
		directory: dir,
		matching:  matching,
		persister: persister,
		publisher: publisher,
		metrics:   m,
		log:       log,
		validate:  newValidator(),
	}
}

// PostTripRequest contains the parameters for offering a trip.
type PostTripRequest struct {
	HostUsername      string          `validate:"required"`
	Origin            domain.Location `validate:"required,oneof=A B C"`
	Destination       domain.Location `validate:"required,oneof=A B C"`
	Departure         time.Time
	Arrival           time.Time
	MaxPassengers     int     `validate:"min=1,max=10"`
	PricePerPassenger float64 `validate:"gte=0"`
}

// PostTrip creates an open trip hosted by a registered user.
func (s *TripService) PostTrip(ctx context.Context, req PostTripRequest) (*domain.Trip, error) {
	const op = "service.TripService.PostTrip"

	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidRequest, err)
	}

	host, ok := s.directory.Lookup(req.HostUsername)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	trip, err := domain.NewTrip(host, req.Origin, req.Destination, req.Departure, req.Arrival,
		req.MaxPassengers, req.PricePerPassenger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidRequest, err)
	}

	defer s.persister.hold()()

	s.registry.Insert(trip)
	s.metrics.TripsPosted.Inc()

	s.log.Info("trip posted",
		slog.String("op", op),
		slog.String("trip_id", trip.ID),
		slog.String("host", host.Username),
		slog.String("route", redis.RouteKey(trip.Origin, trip.Destination)),
	)

	return trip, s.commit(ctx, op, trip)
}

// SearchTrips returns open trips on a route, earliest departure first.
func (s *TripService) SearchTrips(ctx context.Context, origin, destination domain.Location) ([]*domain.Trip, error) {
	const op = "service.TripService.SearchTrips"

	if _, err := domain.ParseLocation(string(origin)); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidRequest, err)
	}
	if _, err := domain.ParseLocation(string(destination)); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidRequest, err)
	}

	return s.matching.FindOpenTrips(origin, destination), nil
}

// BookTrip reserves seats on a trip for a registered user. A rejected
// booking leaves the trip untouched.
func (s *TripService) BookTrip(ctx context.Context, tripID, username string, seats int) (*domain.Trip, error) {
	const op = "service.TripService.BookTrip"

	defer s.persister.hold()()

	trip, err := s.lookupTrip(tripID)
	if err != nil {
		s.metrics.Bookings.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, ok := s.directory.Lookup(username)
	if !ok {
		s.metrics.Bookings.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	// Riders cannot join a ride that is already under way, even with seats free.
	if err := trip.BookBeforeStart(seats, user); err != nil {
		s.metrics.Bookings.WithLabelValues(bookingResult(err)).Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.Bookings.WithLabelValues("accepted").Inc()

	s.log.Info("seats booked",
		slog.String("op", op),
		slog.String("trip_id", trip.ID),
		slog.String("username", username),
		slog.Int("seats", seats),
	)

	return trip, s.commit(ctx, op, trip)
}

// BeginHostRide starts the host's earliest full trip that has not started.
func (s *TripService) BeginHostRide(ctx context.Context, hostUsername string) (*domain.Trip, error) {
	const op = "service.TripService.BeginHostRide"

	defer s.persister.hold()()

	trip, ok := s.matching.FindHostableTrip(hostUsername)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrNoEligibleTrip)
	}

	return s.start(ctx, op, trip)
}

// BeginRide starts a specific trip at the host's discretion, full or not.
func (s *TripService) BeginRide(ctx context.Context, tripID, hostUsername string) (*domain.Trip, error) {
	const op = "service.TripService.BeginRide"

	defer s.persister.hold()()

	trip, err := s.lookupTrip(tripID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if trip.Host.Username != hostUsername {
		return nil, fmt.Errorf("%s: %w", op, ErrNotTripHost)
	}

	return s.start(ctx, op, trip)
}

func (s *TripService) start(ctx context.Context, op string, trip *domain.Trip) (*domain.Trip, error) {
	if !trip.StartRide() {
		return nil, fmt.Errorf("%s: %w", op, ErrTripStarted)
	}
	s.metrics.RidesStarted.Inc()

	s.log.Info("ride started",
		slog.String("op", op),
		slog.String("trip_id", trip.ID),
		slog.Int("booked_seats", trip.BookedSeats()),
		slog.Float64("total_fare", trip.TotalFare()),
	)

	return trip, s.commit(ctx, op, trip)
}

// TripStatus returns a snapshot of a trip for polling displays.
func (s *TripService) TripStatus(ctx context.Context, tripID string) (domain.TripStatus, error) {
	const op = "service.TripService.TripStatus"

	trip, err := s.lookupTrip(tripID)
	if err != nil {
		return domain.TripStatus{}, fmt.Errorf("%s: %w", op, err)
	}
	return trip.Status(), nil
}

// GetTrip retrieves a trip by ID.
func (s *TripService) GetTrip(ctx context.Context, tripID string) (*domain.Trip, error) {
	const op = "service.TripService.GetTrip"

	trip, err := s.lookupTrip(tripID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return trip, nil
}

// Reload replaces users and trips with what storage holds.
func (s *TripService) Reload(ctx context.Context) error {
	const op = "service.TripService.Reload"

	if err := s.persister.Load(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// PublishAll pushes every trip's status and the open trip index to the
// status cache. It is a no-op without a publisher.
func (s *TripService) PublishAll(ctx context.Context) error {
	const op = "service.TripService.PublishAll"

	open := s.matching.OpenTripsByRoute()
	count := 0
	for _, ids := range open {
		count += len(ids)
	}
	s.metrics.OpenTrips.Set(float64(count))

	if s.publisher == nil {
		return nil
	}

	trips := s.registry.All()
	statuses := make([]domain.TripStatus, 0, len(trips))
	for _, trip := range trips {
		statuses = append(statuses, trip.Status())
	}

	if err := s.publisher.PublishStatuses(ctx, statuses, open); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *TripService) lookupTrip(tripID string) (*domain.Trip, error) {
	if tripID == "" {
		return nil, ErrInvalidTripID
	}
	trip, ok := s.registry.Get(tripID)
	if !ok {
		return nil, ErrTripNotFound
	}
	return trip, nil
}

// commit publishes the trip's new status and flushes the trip table. Only
// the flush result is reported; the cache is refreshed again on the next
// tick anyway.
func (s *TripService) commit(ctx context.Context, op string, trip *domain.Trip) error {
	if s.publisher != nil {
		if err := s.publisher.SetTripStatus(ctx, trip.Status()); err != nil {
			s.log.Warn("failed to publish trip status",
				slog.String("op", op),
				slog.String("trip_id", trip.ID),
				sl.Err(err),
			)
		}
	}

	if err := s.persister.FlushTrips(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func bookingResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientSeats):
		return "insufficient_seats"
	case errors.Is(err, domain.ErrTripStarted):
		return "started"
	default:
		return "invalid"
	}
}
