package domain

import "errors"

var (
	// ErrInsufficientSeats is returned when a booking asks for more seats than remain.
	ErrInsufficientSeats = errors.New("insufficient seats")

	// ErrTripStarted is returned when booking or starting a trip that has already started.
	ErrTripStarted = errors.New("trip already started")

	// ErrInvalidSeatCount is returned when a booking asks for fewer than one seat.
	ErrInvalidSeatCount = errors.New("invalid seat count")

	// ErrInvalidCapacity is returned when a trip is created with fewer than one seat.
	ErrInvalidCapacity = errors.New("invalid passenger capacity")

	// ErrInvalidPrice is returned when a trip is created with a negative price.
	ErrInvalidPrice = errors.New("invalid price per passenger")

	// ErrInvalidHost is returned when a trip is created without a host.
	ErrInvalidHost = errors.New("invalid host")

	// ErrInvalidLocation is returned for a location outside the service area.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidRole is returned for unknown role text.
	ErrInvalidRole = errors.New("invalid role")
)
