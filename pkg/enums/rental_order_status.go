package enums

import "fmt"

// RentalOrderStatus tracks the lifecycle of a rental order.
type RentalOrderStatus string

const (
	RentalOrderStatusConfirmed RentalOrderStatus = "confirmed"
	RentalOrderStatusActive    RentalOrderStatus = "active"
	RentalOrderStatusCompleted RentalOrderStatus = "completed"
	RentalOrderStatusCancelled RentalOrderStatus = "cancelled"
)

var validRentalOrderStatuses = []RentalOrderStatus{
	RentalOrderStatusConfirmed,
	RentalOrderStatusActive,
	RentalOrderStatusCompleted,
	RentalOrderStatusCancelled,
}

// String implements fmt.Stringer.
func (r RentalOrderStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RentalOrderStatus.
func (r RentalOrderStatus) IsValid() bool {
	for _, candidate := range validRentalOrderStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRentalOrderStatus converts raw input into a RentalOrderStatus.
func ParseRentalOrderStatus(value string) (RentalOrderStatus, error) {
	for _, candidate := range validRentalOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rental order status %q", value)
}
