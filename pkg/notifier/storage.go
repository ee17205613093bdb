package notifier

import (
	"context"
	"time"
)

// Storage buffers recently published notifications per recipient so they can
// be replayed to a reconnecting consumer.
type Storage interface {
	// Append inserts the notification at the tail of its recipient's history.
	Append(ctx context.Context, notif Notification) error

	// MissedSince returns a snapshot of the recipient's buffered history,
	// oldest first. Appends racing with the call are not included. An unknown
	// recipient yields an empty slice, not an error.
	MissedSince(ctx context.Context, recipientID string) ([]Notification, error)

	// Prune removes every notification older than the retention window as of
	// now and returns how many were removed. Recipients whose history becomes
	// empty are forgotten entirely.
	Prune(ctx context.Context, now time.Time) (int, error)
}
