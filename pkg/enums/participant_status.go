package enums

import "fmt"

// ParticipantStatus tracks a customer's membership within a group booking request.
type ParticipantStatus string

const (
	ParticipantStatusJoined    ParticipantStatus = "joined"
	ParticipantStatusCancelled ParticipantStatus = "cancelled"
	ParticipantStatusBooked    ParticipantStatus = "booked"
)

var validParticipantStatuses = []ParticipantStatus{
	ParticipantStatusJoined,
	ParticipantStatusCancelled,
	ParticipantStatusBooked,
}

// String implements fmt.Stringer.
func (p ParticipantStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ParticipantStatus.
func (p ParticipantStatus) IsValid() bool {
	for _, candidate := range validParticipantStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsActive reports whether the participant still counts against capacity.
func (p ParticipantStatus) IsActive() bool {
	return p != ParticipantStatusCancelled
}

// ParseParticipantStatus converts raw input into a ParticipantStatus.
func ParseParticipantStatus(value string) (ParticipantStatus, error) {
	for _, candidate := range validParticipantStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid participant status %q", value)
}
