package service

import (
	"testing"
	"time"

	"cabshare/internal/domain"
	"cabshare/internal/redis"
)

var baseDeparture = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func insertTrip(t *testing.T, f *fixture, host *domain.User, origin, destination domain.Location, offset time.Duration, capacity int) *domain.Trip {
	t.Helper()
	departure := baseDeparture.Add(offset)
	trip, err := domain.NewTrip(host, origin, destination, departure, departure.Add(time.Hour), capacity, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.registry.Insert(trip)
	return trip
}

func TestFindOpenTrips_SkipsFullAndStarted(t *testing.T) {
	t.Parallel()

	f := newFixture()
	host := f.addUser("host")
	rider := f.addUser("rider")

	full := insertTrip(t, f, host, domain.LocationA, domain.LocationB, 0, 1)
	full.BookSeats(1, rider)

	started := insertTrip(t, f, host, domain.LocationA, domain.LocationB, time.Hour, 3)
	started.StartRide()

	open := insertTrip(t, f, host, domain.LocationA, domain.LocationB, 2*time.Hour, 3)
	insertTrip(t, f, host, domain.LocationB, domain.LocationA, 0, 3)

	result := f.matching.FindOpenTrips(domain.LocationA, domain.LocationB)
	if len(result) != 1 {
		t.Fatalf("expected 1 open trip, got %d", len(result))
	}
	if result[0].ID != open.ID {
		t.Errorf("expected trip %s, got %s", open.ID, result[0].ID)
	}
}

func TestFindOpenTrips_OrderedByDeparture(t *testing.T) {
	t.Parallel()

	f := newFixture()
	host := f.addUser("host")

	late := insertTrip(t, f, host, domain.LocationA, domain.LocationC, 3*time.Hour, 2)
	early := insertTrip(t, f, host, domain.LocationA, domain.LocationC, time.Hour, 2)

	result := f.matching.FindOpenTrips(domain.LocationA, domain.LocationC)
	if len(result) != 2 || result[0].ID != early.ID || result[1].ID != late.ID {
		t.Errorf("expected early trip before late trip")
	}
}

func TestFindHostableTrip(t *testing.T) {
	t.Parallel()

	f := newFixture()
	host := f.addUser("host")
	other := f.addUser("other")
	rider := f.addUser("rider")

	// Not full.
	insertTrip(t, f, host, domain.LocationA, domain.LocationB, 0, 2)

	// Full but hosted by someone else.
	foreign := insertTrip(t, f, other, domain.LocationA, domain.LocationB, 0, 1)
	foreign.BookSeats(1, rider)

	if _, ok := f.matching.FindHostableTrip("host"); ok {
		t.Fatal("expected no hostable trip")
	}

	later := insertTrip(t, f, host, domain.LocationA, domain.LocationB, 2*time.Hour, 1)
	later.BookSeats(1, rider)
	earlier := insertTrip(t, f, host, domain.LocationB, domain.LocationC, time.Hour, 1)
	earlier.BookSeats(1, rider)

	trip, ok := f.matching.FindHostableTrip("host")
	if !ok {
		t.Fatal("expected a hostable trip")
	}
	if trip.ID != earlier.ID {
		t.Errorf("expected earliest full trip %s, got %s", earlier.ID, trip.ID)
	}

	earlier.StartRide()
	trip, ok = f.matching.FindHostableTrip("host")
	if !ok || trip.ID != later.ID {
		t.Error("expected started trip to be skipped")
	}
}

func TestOpenTripsByRoute(t *testing.T) {
	t.Parallel()

	f := newFixture()
	host := f.addUser("host")
	open := insertTrip(t, f, host, domain.LocationC, domain.LocationA, 0, 2)

	index := f.matching.OpenTripsByRoute()
	if len(index) != len(domain.Locations())*len(domain.Locations()) {
		t.Errorf("expected every route present, got %d", len(index))
	}
	ids := index[redis.RouteKey(domain.LocationC, domain.LocationA)]
	if len(ids) != 1 || ids[0] != open.ID {
		t.Errorf("unexpected open ids %v", ids)
	}
	if ids := index[redis.RouteKey(domain.LocationA, domain.LocationB)]; len(ids) != 0 {
		t.Errorf("expected empty route, got %v", ids)
	}
}
