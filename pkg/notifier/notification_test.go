package notifier_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pushfeed/pushfeed/pkg/notifier"
)

func TestNew(t *testing.T) {
	t.Parallel()

	a := notifier.New("recipient-1", "hello")
	b := notifier.New("recipient-1", "hello")

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID, "ids must be unique for client-side de-duplication")
	assert.Equal(t, "recipient-1", a.RecipientID)
	assert.Equal(t, "hello", a.Message)
	assert.WithinDuration(t, time.Now(), a.CreatedAt, time.Second)
}

func TestNotification_Age(t *testing.T) {
	t.Parallel()

	n := notifier.New("r", "m")
	n.CreatedAt = time.Now().Add(-time.Minute)
	assert.InDelta(t, time.Minute, n.Age(time.Now()), float64(time.Second))
}
