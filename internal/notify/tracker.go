package notify

import (
	"time"

	"github.com/gobinath/gcalendar/internal"
)

// FilterDue returns the events whose notification is due now and the
// state to persist for the next scheduled run.
//
// An event is due iff it starts within lead from now, has not started
// yet, and its id is not in the prior state's notified set. The
// returned state carries forward the ids of events still in the
// future, adds the newly due ones and drops entries whose start has
// passed. The function is pure: identical inputs (including now)
// produce identical outputs, which is what keeps repeated cron ticks
// from notifying twice.
func FilterDue(events []*internal.Event, lead time.Duration, prior internal.NotificationState, now time.Time) ([]*internal.Event, internal.NotificationState) {
	next := internal.NewNotificationState()
	next.LastCheck = now

	for id, startsAt := range prior.Notified {
		if now.Before(startsAt) {
			next.Notified[id] = startsAt
		}
	}

	var due []*internal.Event
	for _, e := range events {
		if !now.Before(e.StartsAt) {
			continue
		}
		if e.StartsAt.Sub(now) > lead {
			continue
		}
		if _, notified := next.Notified[e.ID]; notified {
			continue
		}
		due = append(due, e)
		next.Notified[e.ID] = e.StartsAt
	}
	return due, next
}
