// Package codec reads and writes the comma-separated user and trip tables.
//
// Fields are not escaped: a value containing a comma or a line break cannot be
// represented, and encoding such a value fails with ErrUnencodable.
package codec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"cabshare/internal/domain"
)

const (
	userFields    = 5
	tripMinFields = 9

	// MaxLineLength bounds a single stored line. Longer lines are skipped
	// without being buffered in full.
	MaxLineLength = 1 << 20
)

var (
	// ErrMalformedLine is returned for a line that does not decode.
	ErrMalformedLine = errors.New("malformed line")

	// ErrUnencodable is returned for a field value the line format cannot hold.
	ErrUnencodable = errors.New("field cannot be encoded")

	// ErrLineTooLong is reported for a line longer than MaxLineLength.
	ErrLineTooLong = errors.New("line too long")
)

// SeatRecord is one passenger entry of a stored trip.
type SeatRecord struct {
	Username string
	Seats    int
}

// TripRecord is a stored trip with users referenced by username.
type TripRecord struct {
	ID                string
	HostUsername      string
	Origin            domain.Location
	Destination       domain.Location
	Departure         time.Time
	Arrival           time.Time
	MaxPassengers     int
	PricePerPassenger float64
	Started           bool
	Passengers        []SeatRecord
}

// LineError describes a line skipped while reading a table.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// RecordFromTrip captures the current state of trip.
func RecordFromTrip(trip *domain.Trip) TripRecord {
	status := trip.Status()
	rec := TripRecord{
		ID:                trip.ID,
		HostUsername:      trip.Host.Username,
		Origin:            trip.Origin,
		Destination:       trip.Destination,
		Departure:         trip.DepartureTime,
		Arrival:           trip.ArrivalTime,
		MaxPassengers:     trip.MaxPassengers,
		PricePerPassenger: trip.PricePerPassenger,
		Started:           status.Started,
	}
	for _, b := range trip.Passengers() {
		rec.Passengers = append(rec.Passengers, SeatRecord{Username: b.User.Username, Seats: b.Seats})
	}
	return rec
}

// EncodeUser renders user as one line without the trailing newline.
func EncodeUser(user *domain.User) (string, error) {
	return join(user.Name, user.Username, user.Password, string(user.Role), user.Phone)
}

// DecodeUser parses a user line.
func DecodeUser(line string) (*domain.User, error) {
	parts := strings.Split(line, ",")
	if len(parts) != userFields {
		return nil, fmt.Errorf("%w: want %d fields, got %d", ErrMalformedLine, userFields, len(parts))
	}
	if parts[1] == "" {
		return nil, fmt.Errorf("%w: empty username", ErrMalformedLine)
	}

	role, err := domain.ParseRole(parts[3])
	if err != nil {
		return nil, err
	}

	return &domain.User{
		Name:     parts[0],
		Username: parts[1],
		Password: parts[2],
		Role:     role,
		Phone:    parts[4],
	}, nil
}

// EncodeTrip renders rec as one line without the trailing newline.
func EncodeTrip(rec TripRecord) (string, error) {
	fields := []string{
		rec.ID,
		rec.HostUsername,
		string(rec.Origin),
		string(rec.Destination),
		strconv.FormatInt(rec.Departure.UnixMilli(), 10),
		strconv.FormatInt(rec.Arrival.UnixMilli(), 10),
		strconv.Itoa(rec.MaxPassengers),
		strconv.FormatFloat(rec.PricePerPassenger, 'f', -1, 64),
		strconv.FormatBool(rec.Started),
	}
	for _, p := range rec.Passengers {
		fields = append(fields, p.Username, strconv.Itoa(p.Seats))
	}
	return join(fields...)
}

// DecodeTrip parses a trip line.
func DecodeTrip(line string) (TripRecord, error) {
	parts := strings.Split(line, ",")
	if len(parts) < tripMinFields {
		return TripRecord{}, fmt.Errorf("%w: want at least %d fields, got %d", ErrMalformedLine, tripMinFields, len(parts))
	}
	if (len(parts)-tripMinFields)%2 != 0 {
		return TripRecord{}, fmt.Errorf("%w: unpaired passenger field", ErrMalformedLine)
	}

	origin, err := domain.ParseLocation(parts[2])
	if err != nil {
		return TripRecord{}, err
	}
	destination, err := domain.ParseLocation(parts[3])
	if err != nil {
		return TripRecord{}, err
	}
	departure, err := strconv.ParseInt(parts[4], 10, 64)
	if err != nil {
		return TripRecord{}, fmt.Errorf("%w: departure: %v", ErrMalformedLine, err)
	}
	arrival, err := strconv.ParseInt(parts[5], 10, 64)
	if err != nil {
		return TripRecord{}, fmt.Errorf("%w: arrival: %v", ErrMalformedLine, err)
	}
	maxPassengers, err := strconv.Atoi(parts[6])
	if err != nil {
		return TripRecord{}, fmt.Errorf("%w: max passengers: %v", ErrMalformedLine, err)
	}
	price, err := strconv.ParseFloat(parts[7], 64)
	if err != nil {
		return TripRecord{}, fmt.Errorf("%w: price: %v", ErrMalformedLine, err)
	}
	started, err := strconv.ParseBool(parts[8])
	if err != nil {
		return TripRecord{}, fmt.Errorf("%w: started flag: %v", ErrMalformedLine, err)
	}

	rec := TripRecord{
		ID:                parts[0],
		HostUsername:      parts[1],
		Origin:            origin,
		Destination:       destination,
		Departure:         time.UnixMilli(departure),
		Arrival:           time.UnixMilli(arrival),
		MaxPassengers:     maxPassengers,
		PricePerPassenger: price,
		Started:           started,
	}
	for i := tripMinFields; i < len(parts); i += 2 {
		seats, err := strconv.Atoi(parts[i+1])
		if err != nil {
			return TripRecord{}, fmt.Errorf("%w: seats for %q: %v", ErrMalformedLine, parts[i], err)
		}
		rec.Passengers = append(rec.Passengers, SeatRecord{Username: parts[i], Seats: seats})
	}

	return rec, nil
}

// ReadUsers decodes every user line in r. Lines that fail to decode are
// skipped and reported in the returned LineErrors.
func ReadUsers(r io.Reader) ([]*domain.User, []*LineError, error) {
	var users []*domain.User
	skipped, err := scanLines(r, func(line string) error {
		u, err := DecodeUser(line)
		if err != nil {
			return err
		}
		users = append(users, u)
		return nil
	})
	return users, skipped, err
}

// ReadTrips decodes every trip line in r. Lines that fail to decode are
// skipped and reported in the returned LineErrors.
func ReadTrips(r io.Reader) ([]TripRecord, []*LineError, error) {
	var trips []TripRecord
	skipped, err := scanLines(r, func(line string) error {
		rec, err := DecodeTrip(line)
		if err != nil {
			return err
		}
		trips = append(trips, rec)
		return nil
	})
	return trips, skipped, err
}

// WriteUsers writes one line per user.
func WriteUsers(w io.Writer, users []*domain.User) error {
	bw := bufio.NewWriter(w)
	for _, u := range users {
		line, err := EncodeUser(u)
		if err != nil {
			return fmt.Errorf("user %q: %w", u.Username, err)
		}
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteTrips writes one line per trip record.
func WriteTrips(w io.Writer, trips []TripRecord) error {
	bw := bufio.NewWriter(w)
	for _, rec := range trips {
		line, err := EncodeTrip(rec)
		if err != nil {
			return fmt.Errorf("trip %q: %w", rec.ID, err)
		}
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func scanLines(r io.Reader, decode func(line string) error) ([]*LineError, error) {
	var skipped []*LineError

	br := bufio.NewReader(r)
	for n := 1; ; n++ {
		line, tooLong, err := readLine(br)
		if err != nil && err != io.EOF {
			return skipped, err
		}
		atEOF := err == io.EOF
		if atEOF && line == "" && !tooLong {
			break
		}

		if tooLong {
			skipped = append(skipped, &LineError{Line: n, Err: ErrLineTooLong})
		} else if strings.TrimSpace(line) != "" {
			if err := decode(line); err != nil {
				skipped = append(skipped, &LineError{Line: n, Err: err})
			}
		}

		if atEOF {
			break
		}
	}
	return skipped, nil
}

// readLine returns the next line without its terminator. A line over
// MaxLineLength is still consumed to its end, but only reported as tooLong.
func readLine(br *bufio.Reader) (line string, tooLong bool, err error) {
	var sb strings.Builder
	for {
		chunk, err := br.ReadSlice('\n')
		if !tooLong {
			if sb.Len()+len(chunk) > MaxLineLength+len("\r\n") {
				tooLong = true
				sb.Reset()
			} else {
				sb.Write(chunk)
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}

		line = strings.TrimSuffix(sb.String(), "\n")
		line = strings.TrimSuffix(line, "\r")
		return line, tooLong, err
	}
}

func join(fields ...string) (string, error) {
	for _, f := range fields {
		if strings.ContainsAny(f, ",\r\n") {
			return "", fmt.Errorf("%w: %q", ErrUnencodable, f)
		}
	}
	return strings.Join(fields, ","), nil
}
