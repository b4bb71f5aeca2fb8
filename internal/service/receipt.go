package service

import (
	"time"

	"cabshare/internal/domain"
)

// ReceiptService builds fare receipts for hosts.
type ReceiptService struct {
	now func() time.Time
}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService() *ReceiptService {
	return &ReceiptService{now: time.Now}
}

// FareReceipt lists each passenger's seats and fare along with the trip total.
// The total always equals the trip's TotalFare at the time of the call.
func (s *ReceiptService) FareReceipt(trip *domain.Trip) domain.Receipt {
	status := trip.Status()
	passengers := trip.Passengers()

	receipt := domain.Receipt{
		TripID:            trip.ID,
		HostUsername:      trip.Host.Username,
		Origin:            trip.Origin,
		Destination:       trip.Destination,
		PricePerPassenger: trip.PricePerPassenger,
		Lines:             make([]domain.FareLine, 0, len(passengers)),
		Started:           status.Started,
		IssuedAt:          s.now(),
	}

	for _, b := range passengers {
		receipt.Lines = append(receipt.Lines, domain.FareLine{
			Username: b.User.Username,
			Name:     b.User.Name,
			Seats:    b.Seats,
			Fare:     float64(b.Seats) * trip.PricePerPassenger,
		})
		receipt.TotalSeats += b.Seats
	}
	receipt.TotalFare = float64(receipt.TotalSeats) * trip.PricePerPassenger

	return receipt
}
