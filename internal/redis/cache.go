package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"cabshare/internal/domain"
)

// StatusCacheTTL bounds how long a published status stays visible
// without being refreshed.
const StatusCacheTTL = 60 * time.Second

const (
	tripStatusPrefix = "cache:trip:status:"
	openTripsPrefix  = "cache:route:open:"
)

// CachedTripStatus is the JSON form of a trip status.
type CachedTripStatus struct {
	ID             string    `json:"id"`
	HostUsername   string    `json:"host_username"`
	HostName       string    `json:"host_name"`
	HostPhone      string    `json:"host_phone"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	Departure      time.Time `json:"departure"`
	AvailableSeats int       `json:"available_seats"`
	Started        bool      `json:"started"`
}

// CacheStore publishes trip status snapshots for displays that poll Redis
// instead of calling into the process.
type CacheStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client, ttl: StatusCacheTTL}
}

// SetTripStatus stores a status snapshot.
func (s *CacheStore) SetTripStatus(ctx context.Context, status domain.TripStatus) error {
	data, err := json.Marshal(toCached(status))
	if err != nil {
		return err
	}
	return s.client.Set(ctx, tripStatusPrefix+status.ID, data, s.ttl).Err()
}

// GetTripStatus retrieves a status snapshot. A miss returns nil, nil.
func (s *CacheStore) GetTripStatus(ctx context.Context, tripID string) (*CachedTripStatus, error) {
	data, err := s.client.Get(ctx, tripStatusPrefix+tripID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var status CachedTripStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// InvalidateTripStatus removes a trip's snapshot.
func (s *CacheStore) InvalidateTripStatus(ctx context.Context, tripID string) error {
	return s.client.Del(ctx, tripStatusPrefix+tripID).Err()
}

// PublishStatuses writes many snapshots and the per-route open trip sets in
// one pipeline. Route sets are rebuilt from scratch on every call.
func (s *CacheStore) PublishStatuses(ctx context.Context, statuses []domain.TripStatus, open map[string][]string) error {
	pipe := s.client.Pipeline()

	for _, status := range statuses {
		data, err := json.Marshal(toCached(status))
		if err != nil {
			return err
		}
		pipe.Set(ctx, tripStatusPrefix+status.ID, data, s.ttl)
	}

	for route, ids := range open {
		key := openTripsPrefix + route
		pipe.Del(ctx, key)
		if len(ids) == 0 {
			continue
		}
		members := make([]any, len(ids))
		for i, id := range ids {
			members[i] = id
		}
		pipe.RPush(ctx, key, members...)
		pipe.Expire(ctx, key, s.ttl)
	}

	_, err := pipe.Exec(ctx)
	return err
}

// OpenTripIDs returns the published open trip IDs for a route key.
func (s *CacheStore) OpenTripIDs(ctx context.Context, route string) ([]string, error) {
	return s.client.LRange(ctx, openTripsPrefix+route, 0, -1).Result()
}

// RouteKey names a route in the open trip index.
func RouteKey(origin, destination domain.Location) string {
	return string(origin) + ":" + string(destination)
}

func toCached(status domain.TripStatus) CachedTripStatus {
	return CachedTripStatus{
		ID:             status.ID,
		HostUsername:   status.HostUsername,
		HostName:       status.HostName,
		HostPhone:      status.HostPhone,
		Origin:         string(status.Origin),
		Destination:    string(status.Destination),
		Departure:      status.Departure,
		AvailableSeats: status.AvailableSeats,
		Started:        status.Started,
	}
}
