package delivery

import (
	"time"

	"github.com/pushfeed/pushfeed/pkg/notifier"
)

// EnvelopeType tags a frame pushed to a live channel.
type EnvelopeType string

const (
	// TypeConnected is the initial liveness marker sent once per subscription.
	TypeConnected EnvelopeType = "connected"
	// TypeMissed tags a buffered notification replayed on reconnect.
	TypeMissed EnvelopeType = "missed"
	// TypeLive tags a notification pushed at publish time.
	TypeLive EnvelopeType = "live"
)

// Envelope is the frame delivered over a live channel. Connected markers
// carry no notification fields.
type Envelope struct {
	Type      EnvelopeType `json:"type"`
	ID        string       `json:"id,omitempty"`
	Message   string       `json:"message,omitempty"`
	CreatedAt time.Time    `json:"createdAt,omitzero"`
}

func envelope(t EnvelopeType, notif notifier.Notification) Envelope {
	return Envelope{
		Type:      t,
		ID:        notif.ID,
		Message:   notif.Message,
		CreatedAt: notif.CreatedAt,
	}
}
