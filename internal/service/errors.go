package service

import (
	"errors"

	"cabshare/internal/directory"
	"cabshare/internal/domain"
)

var (
	// ErrUsernameTaken is returned when signing up with a username already in use.
	ErrUsernameTaken = directory.ErrUsernameTaken

	// ErrInsufficientSeats is returned when a booking asks for more seats than remain.
	ErrInsufficientSeats = domain.ErrInsufficientSeats

	// ErrTripStarted is returned when booking or starting a trip that has already started.
	ErrTripStarted = domain.ErrTripStarted

	// ErrInvalidCredentials is returned when login fails.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInvalidOTP is returned when the sign-up one-time code does not match.
	ErrInvalidOTP = errors.New("invalid one-time code")

	// ErrInvalidRequest is returned when a request fails validation.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUserNotFound is returned when a username is not registered.
	ErrUserNotFound = errors.New("user not found")

	// ErrTripNotFound is returned when a trip ID is unknown.
	ErrTripNotFound = errors.New("trip not found")

	// ErrInvalidTripID is returned when trip ID is empty.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrNoEligibleTrip is returned when a host has no full, unstarted trip.
	ErrNoEligibleTrip = errors.New("no full trip ready to start")

	// ErrNotTripHost is returned when someone other than the host starts a trip.
	ErrNotTripHost = errors.New("user is not the trip host")

	// ErrPersistence is returned alongside a successful in-memory change when
	// the flush to storage failed. The change is kept.
	ErrPersistence = errors.New("persistence failed")
)
