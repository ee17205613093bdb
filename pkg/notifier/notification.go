package notifier

import (
	"time"

	"github.com/google/uuid"
)

// Notification is the immutable record delivered to a recipient. It is
// created exactly once on publish and removed only by age-based pruning.
type Notification struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipientId"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"createdAt"`
}

// New builds a notification with a fresh unique id and the current timestamp.
// Consumers use the id for client-side de-duplication, so it must be unique
// across the process lifetime.
func New(recipientID, message string) Notification {
	return Notification{
		ID:          uuid.New().String(),
		RecipientID: recipientID,
		Message:     message,
		CreatedAt:   time.Now(),
	}
}

// Age returns how old the notification is at the given instant.
func (n Notification) Age(now time.Time) time.Duration {
	return now.Sub(n.CreatedAt)
}
