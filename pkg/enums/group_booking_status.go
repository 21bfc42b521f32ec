package enums

import "fmt"

// GroupBookingStatus tracks the lifecycle of a group booking request.
type GroupBookingStatus string

const (
	GroupBookingStatusOpen      GroupBookingStatus = "open"
	GroupBookingStatusMatched   GroupBookingStatus = "matched"
	GroupBookingStatusCancelled GroupBookingStatus = "cancelled"
)

var validGroupBookingStatuses = []GroupBookingStatus{
	GroupBookingStatusOpen,
	GroupBookingStatusMatched,
	GroupBookingStatusCancelled,
}

// String implements fmt.Stringer.
func (g GroupBookingStatus) String() string {
	return string(g)
}

// IsValid reports whether the value is a known GroupBookingStatus.
func (g GroupBookingStatus) IsValid() bool {
	for _, candidate := range validGroupBookingStatuses {
		if candidate == g {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is defined for the status.
func (g GroupBookingStatus) IsTerminal() bool {
	return g == GroupBookingStatusMatched || g == GroupBookingStatusCancelled
}

// ParseGroupBookingStatus converts raw input into a GroupBookingStatus.
func ParseGroupBookingStatus(value string) (GroupBookingStatus, error) {
	for _, candidate := range validGroupBookingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid group booking status %q", value)
}
