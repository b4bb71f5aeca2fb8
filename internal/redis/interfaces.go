package redis

import (
	"context"

	"cabshare/internal/domain"
	"cabshare/internal/repository"
)

// StatusPublisherInterface defines the interface for publishing trip statuses.
type StatusPublisherInterface interface {
	SetTripStatus(ctx context.Context, status domain.TripStatus) error
	PublishStatuses(ctx context.Context, statuses []domain.TripStatus, open map[string][]string) error
}

// Ensure concrete types implement interfaces.
var (
	_ StatusPublisherInterface = (*CacheStore)(nil)
	_ repository.TableLocker   = (*LockStore)(nil)
)
