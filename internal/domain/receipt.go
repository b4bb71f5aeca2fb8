package domain

import "time"

// FareLine is one passenger's share of a fare receipt.
type FareLine struct {
	Username string
	Name     string
	Seats    int
	Fare     float64
}

// Receipt summarizes what the passengers of a trip owe the host.
type Receipt struct {
	TripID            string
	HostUsername      string
	Origin            Location
	Destination       Location
	PricePerPassenger float64
	Lines             []FareLine
	TotalSeats        int
	TotalFare         float64
	Started           bool
	IssuedAt          time.Time
}
