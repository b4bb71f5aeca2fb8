// Package file stores the user and trip tables as line-oriented text files.
package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"cabshare/internal/codec"
	"cabshare/internal/domain"
	"cabshare/internal/lib/sl"
	"cabshare/internal/repository"
)

// Fixed table names inside the data directory.
const (
	UsersFile = "users.txt"
	TripsFile = "trips.txt"
)

// Store is a file implementation of repository.UserRepository and
// repository.TripRepository. Every save rewrites the whole table.
type Store struct {
	dir    string
	log    *slog.Logger
	locker repository.TableLocker

	usersMu sync.Mutex
	tripsMu sync.Mutex
}

// NewStore creates a Store rooted at dir. locker may be nil when only one
// process writes the tables.
func NewStore(dir string, locker repository.TableLocker, log *slog.Logger) *Store {
	return &Store{dir: dir, locker: locker, log: log}
}

// LoadUsers reads users.txt, skipping lines that do not decode.
func (s *Store) LoadUsers(ctx context.Context) ([]*domain.User, error) {
	const op = "file.LoadUsers"

	var users []*domain.User
	err := s.read(UsersFile, func(r io.Reader) error {
		var skipped []*codec.LineError
		var err error
		users, skipped, err = codec.ReadUsers(r)
		s.logSkipped(op, UsersFile, skipped)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Debug("users loaded", slog.String("op", op), slog.Int("count", len(users)))
	return users, nil
}

// SaveUsers rewrites users.txt.
func (s *Store) SaveUsers(ctx context.Context, users []*domain.User) error {
	const op = "file.SaveUsers"

	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	err := s.write(ctx, UsersFile, func(w io.Writer) error {
		return codec.WriteUsers(w, users)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// LoadTrips reads trips.txt, skipping lines that do not decode.
func (s *Store) LoadTrips(ctx context.Context) ([]codec.TripRecord, error) {
	const op = "file.LoadTrips"

	var trips []codec.TripRecord
	err := s.read(TripsFile, func(r io.Reader) error {
		var skipped []*codec.LineError
		var err error
		trips, skipped, err = codec.ReadTrips(r)
		s.logSkipped(op, TripsFile, skipped)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Debug("trips loaded", slog.String("op", op), slog.Int("count", len(trips)))
	return trips, nil
}

// SaveTrips rewrites trips.txt.
func (s *Store) SaveTrips(ctx context.Context, trips []codec.TripRecord) error {
	const op = "file.SaveTrips"

	s.tripsMu.Lock()
	defer s.tripsMu.Unlock()

	err := s.write(ctx, TripsFile, func(w io.Writer) error {
		return codec.WriteTrips(w, trips)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) read(name string, decode func(io.Reader) error) error {
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.log.Info("table not found, starting empty", slog.String("table", name))
			return nil
		}
		return err
	}
	defer f.Close()

	return decode(f)
}

// write replaces the table through a temporary file and a rename, so readers
// in other processes never observe a half-written table.
func (s *Store) write(ctx context.Context, name string, encode func(io.Writer) error) (err error) {
	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, name)
		if err != nil {
			return err
		}
		defer unlock()
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = encode(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), filepath.Join(s.dir, name))
}

func (s *Store) logSkipped(op, table string, skipped []*codec.LineError) {
	for _, le := range skipped {
		s.log.Warn("skipping malformed record",
			slog.String("op", op),
			slog.String("table", table),
			slog.Int("line", le.Line),
			sl.Err(le.Err),
		)
	}
}

var (
	_ repository.UserRepository = (*Store)(nil)
	_ repository.TripRepository = (*Store)(nil)
)
