package enums

// NotificationKind identifies what a notification is about.
type NotificationKind string

const (
	NotificationKindGroupJoined               NotificationKind = "group_joined"
	NotificationKindGroupMatched              NotificationKind = "group_matched"
	NotificationKindGroupCancelled            NotificationKind = "group_cancelled"
	NotificationKindGroupParticipantCancelled NotificationKind = "group_participant_cancelled"
)

func (n NotificationKind) String() string {
	return string(n)
}

func (n NotificationKind) IsValid() bool {
	switch n {
	case NotificationKindGroupJoined,
		NotificationKindGroupMatched,
		NotificationKindGroupCancelled,
		NotificationKindGroupParticipantCancelled:
		return true
	}
	return false
}

// ParseNotificationKind converts a raw string into a NotificationKind.
func ParseNotificationKind(value string) (NotificationKind, bool) {
	kind := NotificationKind(value)
	return kind, kind.IsValid()
}
