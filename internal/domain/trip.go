package domain

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Booking is one passenger's share of a trip.
type Booking struct {
	User  *User
	Seats int
}

// TripStatus is a point-in-time view of a trip for polling displays.
type TripStatus struct {
	ID             string
	HostUsername   string
	HostName       string
	HostPhone      string
	Origin         Location
	Destination    Location
	Departure      time.Time
	AvailableSeats int
	Started        bool
}

// Trip represents a shared ride offered by a host.
// Route, schedule, capacity and price are fixed at creation. The passenger
// ledger and the started flag are guarded by mu.
type Trip struct {
	ID                string
	Host              *User
	Origin            Location
	Destination       Location
	DepartureTime     time.Time
	ArrivalTime       time.Time
	MaxPassengers     int
	PricePerPassenger float64

	mu         sync.Mutex
	passengers map[string]*Booking
	booked     int
	started    bool
}

// NewTrip creates an open trip with a fresh ID and no passengers.
// Arrival is not required to follow departure and origin may equal destination.
func NewTrip(host *User, origin, destination Location, departure, arrival time.Time, maxPassengers int, price float64) (*Trip, error) {
	return RestoreTrip(uuid.New().String(), host, origin, destination, departure, arrival, maxPassengers, price)
}

// RestoreTrip rebuilds a trip with a known ID, as read back from storage.
func RestoreTrip(id string, host *User, origin, destination Location, departure, arrival time.Time, maxPassengers int, price float64) (*Trip, error) {
	if host == nil {
		return nil, ErrInvalidHost
	}
	if maxPassengers < 1 {
		return nil, ErrInvalidCapacity
	}
	if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return nil, ErrInvalidPrice
	}

	return &Trip{
		ID:                id,
		Host:              host,
		Origin:            origin,
		Destination:       destination,
		DepartureTime:     departure,
		ArrivalTime:       arrival,
		MaxPassengers:     maxPassengers,
		PricePerPassenger: price,
		passengers:        make(map[string]*Booking),
	}, nil
}

// Book reserves seats for user. It succeeds exactly when seats is at least
// one and no more than AvailableSeats. The capacity check and the ledger
// update happen in one critical section, so concurrent bookers cannot
// overbook. A failed booking leaves the trip unchanged.
func (t *Trip) Book(seats int, user *User) error {
	return t.book(seats, user, false)
}

// BookBeforeStart is Book for trips that must not have started yet; a
// started trip is rejected with ErrTripStarted under the same lock.
func (t *Trip) BookBeforeStart(seats int, user *User) error {
	return t.book(seats, user, true)
}

func (t *Trip) book(seats int, user *User, rejectStarted bool) error {
	if seats < 1 {
		return ErrInvalidSeatCount
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if rejectStarted && t.started {
		return ErrTripStarted
	}
	if seats > t.MaxPassengers-t.booked {
		return ErrInsufficientSeats
	}

	if b, ok := t.passengers[user.Username]; ok {
		b.Seats += seats
	} else {
		t.passengers[user.Username] = &Booking{User: user, Seats: seats}
	}
	t.booked += seats

	return nil
}

// BookSeats reports whether the booking was accepted.
func (t *Trip) BookSeats(seats int, user *User) bool {
	return t.Book(seats, user) == nil
}

// AvailableSeats returns the number of seats still open.
func (t *Trip) AvailableSeats() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.MaxPassengers - t.booked
}

// IsFull reports whether every seat is booked.
func (t *Trip) IsFull() bool {
	return t.AvailableSeats() == 0
}

// IsStarted reports whether the host has started the ride.
func (t *Trip) IsStarted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.started
}

// StartRide marks the trip as started. It returns true only for the call
// that performed the transition; the flag never reverts.
func (t *Trip) StartRide() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return false
	}
	t.started = true
	return true
}

// BookedSeats returns the total number of seats booked.
func (t *Trip) BookedSeats() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.booked
}

// TotalFare returns booked seats multiplied by the per-passenger price.
func (t *Trip) TotalFare() float64 {
	return float64(t.BookedSeats()) * t.PricePerPassenger
}

// Passengers returns a snapshot of the ledger ordered by username.
func (t *Trip) Passengers() []Booking {
	t.mu.Lock()
	result := make([]Booking, 0, len(t.passengers))
	for _, b := range t.passengers {
		result = append(result, *b)
	}
	t.mu.Unlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].User.Username < result[j].User.Username
	})
	return result
}

// SeatsFor returns the seats booked by the given username.
func (t *Trip) SeatsFor(username string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if b, ok := t.passengers[username]; ok {
		return b.Seats
	}
	return 0
}

// Status returns a consistent snapshot of the trip.
func (t *Trip) Status() TripStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	return TripStatus{
		ID:             t.ID,
		HostUsername:   t.Host.Username,
		HostName:       t.Host.Name,
		HostPhone:      t.Host.Phone,
		Origin:         t.Origin,
		Destination:    t.Destination,
		Departure:      t.DepartureTime,
		AvailableSeats: t.MaxPassengers - t.booked,
		Started:        t.started,
	}
}
