package service

import (
	"cabshare/internal/domain"
	"cabshare/internal/redis"
	"cabshare/internal/registry"
)

// MatchingService finds trips for riders and hosts.
type MatchingService struct {
	registry *registry.Registry
}

// NewMatchingService creates a new MatchingService.
func NewMatchingService(reg *registry.Registry) *MatchingService {
	return &MatchingService{registry: reg}
}

// FindOpenTrips returns trips on the given route that still have a seat and
// have not started, earliest departure first.
func (s *MatchingService) FindOpenTrips(origin, destination domain.Location) []*domain.Trip {
	var result []*domain.Trip
	for _, trip := range s.registry.All() {
		if trip.Origin != origin || trip.Destination != destination {
			continue
		}
		status := trip.Status()
		if status.Started || status.AvailableSeats == 0 {
			continue
		}
		result = append(result, trip)
	}
	return result
}

// FindHostableTrip returns the host's full, unstarted trip with the earliest
// departure. Ties go to the smaller trip ID.
func (s *MatchingService) FindHostableTrip(hostUsername string) (*domain.Trip, bool) {
	// All is already ordered by departure then ID.
	for _, trip := range s.registry.All() {
		if trip.Host.Username != hostUsername {
			continue
		}
		status := trip.Status()
		if !status.Started && status.AvailableSeats == 0 {
			return trip, true
		}
	}
	return nil, false
}

// OpenTripsByRoute indexes open trip IDs by route key. Every origin and
// destination pair is present, even with no open trips, so stale route
// lists get cleared when published.
func (s *MatchingService) OpenTripsByRoute() map[string][]string {
	open := make(map[string][]string)
	for _, origin := range domain.Locations() {
		for _, destination := range domain.Locations() {
			open[redis.RouteKey(origin, destination)] = []string{}
		}
	}

	for _, trip := range s.registry.All() {
		status := trip.Status()
		if status.Started || status.AvailableSeats == 0 {
			continue
		}
		key := redis.RouteKey(trip.Origin, trip.Destination)
		open[key] = append(open[key], trip.ID)
	}
	return open
}
