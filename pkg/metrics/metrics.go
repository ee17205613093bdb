package metrics

import "sync/atomic"

// Counters are the process-wide delivery counters. All fields are monotonic
// except ConnectionsActive, which moves with registrations and disconnects.
// There is no reset operation.
type Counters struct {
	ConnectionsOpened   atomic.Int64
	ConnectionsActive   atomic.Int64
	ChannelsEvicted     atomic.Int64
	NotificationsSent   atomic.Int64
	NotificationsStored atomic.Int64
	NotificationsPruned atomic.Int64
}

// Snapshot is a point-in-time copy of the counters, safe to serialize.
type Snapshot struct {
	ConnectionsOpened   int64 `json:"connectionsOpened"`
	ConnectionsActive   int64 `json:"connectionsActive"`
	ChannelsEvicted     int64 `json:"channelsEvicted"`
	NotificationsSent   int64 `json:"notificationsSent"`
	NotificationsStored int64 `json:"notificationsStored"`
	NotificationsPruned int64 `json:"notificationsPruned"`
}

// New returns zeroed counters.
func New() *Counters {
	return &Counters{}
}

// Snapshot reads every counter once. The reads are individually atomic but
// not mutually consistent; observers tolerate that.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		ConnectionsOpened:   c.ConnectionsOpened.Load(),
		ConnectionsActive:   c.ConnectionsActive.Load(),
		ChannelsEvicted:     c.ChannelsEvicted.Load(),
		NotificationsSent:   c.NotificationsSent.Load(),
		NotificationsStored: c.NotificationsStored.Load(),
		NotificationsPruned: c.NotificationsPruned.Load(),
	}
}
