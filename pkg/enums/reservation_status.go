package enums

import "fmt"

// ReservationStatus tracks where reserved stock currently sits.
type ReservationStatus string

const (
	ReservationStatusReserved     ReservationStatus = "reserved"
	ReservationStatusWithCustomer ReservationStatus = "with_customer"
	ReservationStatusAvailable    ReservationStatus = "available"
)

var validReservationStatuses = []ReservationStatus{
	ReservationStatusReserved,
	ReservationStatusWithCustomer,
	ReservationStatusAvailable,
}

// String implements fmt.Stringer.
func (r ReservationStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReservationStatus.
func (r ReservationStatus) IsValid() bool {
	for _, candidate := range validReservationStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// Holds reports whether the reservation still consumes stock from the pool.
func (r ReservationStatus) Holds() bool {
	return r == ReservationStatusReserved || r == ReservationStatusWithCustomer
}

// ParseReservationStatus converts raw input into a ReservationStatus.
func ParseReservationStatus(value string) (ReservationStatus, error) {
	for _, candidate := range validReservationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reservation status %q", value)
}
