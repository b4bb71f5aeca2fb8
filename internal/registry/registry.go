// Package registry holds the authoritative collection of trips.
package registry

import (
	"sort"
	"sync"

	"cabshare/internal/domain"
)

// Registry maps trip IDs to trips. Insert, lookup and iteration are safe for
// concurrent use and never take a trip's own lock.
type Registry struct {
	trips sync.Map // id -> *domain.Trip
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{}
}

// Insert adds or replaces the trip stored under trip.ID.
func (r *Registry) Insert(trip *domain.Trip) {
	r.trips.Store(trip.ID, trip)
}

// Get retrieves a trip by ID.
func (r *Registry) Get(id string) (*domain.Trip, bool) {
	v, ok := r.trips.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*domain.Trip), true
}

// All returns a snapshot of every trip ordered by departure time, then ID.
func (r *Registry) All() []*domain.Trip {
	var trips []*domain.Trip
	r.trips.Range(func(_, v any) bool {
		trips = append(trips, v.(*domain.Trip))
		return true
	})
	SortByDeparture(trips)
	return trips
}

// Len returns the number of trips.
func (r *Registry) Len() int {
	n := 0
	r.trips.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Replace swaps the registry contents for trips.
func (r *Registry) Replace(trips []*domain.Trip) {
	keep := make(map[string]bool, len(trips))
	for _, t := range trips {
		keep[t.ID] = true
		r.trips.Store(t.ID, t)
	}
	r.trips.Range(func(k, _ any) bool {
		if !keep[k.(string)] {
			r.trips.Delete(k)
		}
		return true
	})
}

// SortByDeparture orders trips by departure time, breaking ties by ID.
func SortByDeparture(trips []*domain.Trip) {
	sort.Slice(trips, func(i, j int) bool {
		if !trips[i].DepartureTime.Equal(trips[j].DepartureTime) {
			return trips[i].DepartureTime.Before(trips[j].DepartureTime)
		}
		return trips[i].ID < trips[j].ID
	})
}
