package service

import (
	"context"
	"sync"
	"sync/atomic"

	"cabshare/internal/codec"
	"cabshare/internal/directory"
	"cabshare/internal/domain"
	"cabshare/internal/lib/sl"
	"cabshare/internal/metrics"
	"cabshare/internal/registry"
)

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository keeps the user table in memory.
type MockUserRepository struct {
	mu    sync.RWMutex
	users []*domain.User

	// Counters for verification
	LoadCallCount int32
	SaveCallCount int32

	// Error injection
	LoadError error
	SaveError error
}

func NewMockUserRepository(users ...*domain.User) *MockUserRepository {
	return &MockUserRepository{users: users}
}

func (m *MockUserRepository) LoadUsers(ctx context.Context) ([]*domain.User, error) {
	atomic.AddInt32(&m.LoadCallCount, 1)
	if m.LoadError != nil {
		return nil, m.LoadError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		copy := *u
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockUserRepository) SaveUsers(ctx context.Context, users []*domain.User) error {
	atomic.AddInt32(&m.SaveCallCount, 1)
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = append([]*domain.User(nil), users...)
	return nil
}

// Stored returns the usernames last saved.
func (m *MockUserRepository) Stored() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, len(m.users))
	for i, u := range m.users {
		names[i] = u.Username
	}
	return names
}

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository keeps the trip table in memory.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips []codec.TripRecord

	LoadCallCount int32
	SaveCallCount int32

	LoadError error
	SaveError error
}

func NewMockTripRepository(trips ...codec.TripRecord) *MockTripRepository {
	return &MockTripRepository{trips: trips}
}

func (m *MockTripRepository) LoadTrips(ctx context.Context) ([]codec.TripRecord, error) {
	atomic.AddInt32(&m.LoadCallCount, 1)
	if m.LoadError != nil {
		return nil, m.LoadError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]codec.TripRecord(nil), m.trips...), nil
}

func (m *MockTripRepository) SaveTrips(ctx context.Context, trips []codec.TripRecord) error {
	atomic.AddInt32(&m.SaveCallCount, 1)
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips = append([]codec.TripRecord(nil), trips...)
	return nil
}

// Record returns the last saved record for a trip.
func (m *MockTripRepository) Record(id string) (codec.TripRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.trips {
		if rec.ID == id {
			return rec, true
		}
	}
	return codec.TripRecord{}, false
}

// ──────────────────────────────────────────────
// MOCK STATUS PUBLISHER
// ──────────────────────────────────────────────

// MockStatusPublisher records published statuses.
type MockStatusPublisher struct {
	mu       sync.Mutex
	statuses map[string]domain.TripStatus
	open     map[string][]string

	SetCallCount     int32
	PublishCallCount int32

	SetError error
}

func NewMockStatusPublisher() *MockStatusPublisher {
	return &MockStatusPublisher{statuses: make(map[string]domain.TripStatus)}
}

func (m *MockStatusPublisher) SetTripStatus(ctx context.Context, status domain.TripStatus) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	if m.SetError != nil {
		return m.SetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[status.ID] = status
	return nil
}

func (m *MockStatusPublisher) PublishStatuses(ctx context.Context, statuses []domain.TripStatus, open map[string][]string) error {
	atomic.AddInt32(&m.PublishCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, status := range statuses {
		m.statuses[status.ID] = status
	}
	m.open = open
	return nil
}

func (m *MockStatusPublisher) Status(id string) (domain.TripStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	status, ok := m.statuses[id]
	return status, ok
}

func (m *MockStatusPublisher) Open(route string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open[route]
}

// ──────────────────────────────────────────────
// FIXTURE
// ──────────────────────────────────────────────

type fixture struct {
	directory *directory.Directory
	registry  *registry.Registry
	userRepo  *MockUserRepository
	tripRepo  *MockTripRepository
	publisher *MockStatusPublisher
	metrics   *metrics.Metrics
	users     *UserService
	trips     *TripService
	matching  *MatchingService
}

func newFixture() *fixture {
	f := &fixture{
		directory: directory.New(),
		registry:  registry.New(),
		userRepo:  NewMockUserRepository(),
		tripRepo:  NewMockTripRepository(),
		publisher: NewMockStatusPublisher(),
		metrics:   metrics.New(),
	}
	log := sl.Discard()
	persister := NewPersister(f.directory, f.registry, f.userRepo, f.tripRepo, f.metrics, log)
	f.matching = NewMatchingService(f.registry)
	f.users = NewUserService(f.directory, persister, f.metrics, log, DefaultSignUpOTP)
	f.trips = NewTripService(f.registry, f.directory, f.matching, persister, f.publisher, f.metrics, log)
	return f
}

func (f *fixture) addUser(username string) *domain.User {
	user := &domain.User{Name: username, Username: username, Password: "pw", Role: domain.RoleRider, Phone: "555"}
	if _, err := f.directory.Register(user); err != nil {
		panic(err)
	}
	return user
}
