package domain

import "fmt"

// Location is a pickup or drop-off point from the fixed service area.
type Location string

const (
	LocationA Location = "A"
	LocationB Location = "B"
	LocationC Location = "C"
)

// Locations returns every serviceable location.
func Locations() []Location {
	return []Location{LocationA, LocationB, LocationC}
}

// ParseLocation validates a location code.
func ParseLocation(s string) (Location, error) {
	for _, l := range Locations() {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLocation, s)
}
