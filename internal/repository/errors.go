package repository

import "errors"

var (
	// ErrLockNotAcquired is returned when another process holds the table flush lock.
	ErrLockNotAcquired = errors.New("table lock not acquired")
)
