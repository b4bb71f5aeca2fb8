package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cabshare/internal/codec"
	"cabshare/internal/domain"
	"cabshare/internal/lib/sl"
)

type fakeLocker struct {
	locked   []string
	released int
	err      error
}

func (l *fakeLocker) Lock(ctx context.Context, table string) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.locked = append(l.locked, table)
	return func() { l.released++ }, nil
}

func TestLoad_MissingTablesAreEmpty(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir(), nil, sl.Discard())

	users, err := store.LoadUsers(context.Background())
	if err != nil || len(users) != 0 {
		t.Errorf("expected no users and no error, got %d, %v", len(users), err)
	}
	trips, err := store.LoadTrips(context.Background())
	if err != nil || len(trips) != 0 {
		t.Errorf("expected no trips and no error, got %d, %v", len(trips), err)
	}
}

func TestSaveThenLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	locker := &fakeLocker{}
	store := NewStore(dir, locker, sl.Discard())
	ctx := context.Background()

	users := []*domain.User{
		{Name: "Alice", Username: "alice", Password: "pw", Role: domain.RoleRider, Phone: "1"},
		{Name: "Hank", Username: "hank", Password: "pw", Role: domain.RoleDriver, Phone: "2"},
	}
	if err := store.SaveUsers(ctx, users); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	trips := []codec.TripRecord{{
		ID: "t1", HostUsername: "hank", Origin: domain.LocationA, Destination: domain.LocationC,
		Departure: time.UnixMilli(10), Arrival: time.UnixMilli(20), MaxPassengers: 3, PricePerPassenger: 4,
		Passengers: []codec.SeatRecord{{Username: "alice", Seats: 2}},
	}}
	if err := store.SaveTrips(ctx, trips); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gotUsers, err := store.LoadUsers(ctx)
	if err != nil || len(gotUsers) != 2 || gotUsers[1].Username != "hank" {
		t.Fatalf("unexpected users: %v, %v", gotUsers, err)
	}
	gotTrips, err := store.LoadTrips(ctx)
	if err != nil || len(gotTrips) != 1 || gotTrips[0].Passengers[0].Seats != 2 {
		t.Fatalf("unexpected trips: %v, %v", gotTrips, err)
	}

	if len(locker.locked) != 2 || locker.locked[0] != UsersFile || locker.locked[1] != TripsFile {
		t.Errorf("expected both tables to be locked, got %v", locker.locked)
	}
	if locker.released != 2 {
		t.Errorf("expected 2 releases, got %d", locker.released)
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(leftovers) != 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}
}

func TestLoadTrips_SkipsMalformedLines(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	content := "good,h,A,B,1,2,1,5,false\nbad,h,A\n"
	if err := os.WriteFile(filepath.Join(dir, TripsFile), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	trips, err := NewStore(dir, nil, sl.Discard()).LoadTrips(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trips) != 1 || trips[0].ID != "good" {
		t.Errorf("expected only the good trip, got %+v", trips)
	}
}

func TestSave_LockFailureLeavesTableUntouched(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	original := []byte("Alice,alice,pw,Rider,1\n")
	if err := os.WriteFile(filepath.Join(dir, UsersFile), original, 0o644); err != nil {
		t.Fatal(err)
	}

	lockErr := errors.New("busy")
	store := NewStore(dir, &fakeLocker{err: lockErr}, sl.Discard())

	err := store.SaveUsers(context.Background(), nil)
	if !errors.Is(err, lockErr) {
		t.Fatalf("expected lock error, got %v", err)
	}

	data, _ := os.ReadFile(filepath.Join(dir, UsersFile))
	if string(data) != string(original) {
		t.Errorf("table changed despite lock failure: %q", data)
	}
}

func TestSaveUsers_UnencodableUserFails(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir(), nil, sl.Discard())
	err := store.SaveUsers(context.Background(), []*domain.User{{Name: "Doe, J", Username: "j", Role: domain.RoleRider}})
	if !errors.Is(err, codec.ErrUnencodable) {
		t.Errorf("expected ErrUnencodable, got %v", err)
	}
}
