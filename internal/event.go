package internal

import "time"

type Event struct {
	ID       string
	Summary  string
	StartsAt time.Time
	EndsAt   time.Time
	AllDay   bool
	Calendar string
	Location string
}

// NotificationState records which events were already notified for one
// account. Entries are keyed by event id and keep the event's start
// time so that stale entries can be pruned once the event has started.
type NotificationState struct {
	Notified  map[string]time.Time
	LastCheck time.Time
}

func NewNotificationState() NotificationState {
	return NotificationState{
		Notified: make(map[string]time.Time),
	}
}
