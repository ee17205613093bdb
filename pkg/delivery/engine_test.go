package delivery_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pushfeed/pushfeed/pkg/delivery"
	"github.com/pushfeed/pushfeed/pkg/metrics"
	"github.com/pushfeed/pushfeed/pkg/notifier"
	"github.com/pushfeed/pushfeed/pkg/registry"
)

func newEngine(t *testing.T, maxChannels int) *delivery.Engine {
	t.Helper()
	store := notifier.NewMemoryStorage(time.Minute)
	reg := registry.New[delivery.Envelope](maxChannels)
	return delivery.NewEngine(store, reg, metrics.New())
}

func newChannel(recipientID string) *registry.Channel[delivery.Envelope] {
	return registry.NewChannel[delivery.Envelope](recipientID, 32)
}

// drain collects every envelope currently queued on the channel.
func drain(ch *registry.Channel[delivery.Envelope]) []delivery.Envelope {
	var out []delivery.Envelope
	for {
		select {
		case env := <-ch.Receive():
			out = append(out, env)
		default:
			return out
		}
	}
}

func TestEngine_Publish(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		recipientID string
		message     string
		wantErr     error
	}{
		{name: "valid", recipientID: "s1", message: "New grade posted"},
		{name: "missing recipient", recipientID: "", message: "x", wantErr: delivery.ErrInvalidArgument},
		{name: "missing message", recipientID: "s1", message: "", wantErr: delivery.ErrInvalidArgument},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			engine := newEngine(t, 3)
			id, err := engine.Publish(context.Background(), tt.recipientID, tt.message)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, id)
		})
	}
}

func TestEngine_Publish_LiveDelivery(t *testing.T) {
	t.Parallel()

	engine := newEngine(t, 3)
	ctx := context.Background()

	ch := newChannel("s1")
	replay, err := engine.Subscribe(ctx, "s1", ch)
	require.NoError(t, err)
	require.Len(t, replay, 1)
	assert.Equal(t, delivery.TypeConnected, replay[0].Type)

	id, err := engine.Publish(ctx, "s1", "New grade posted")
	require.NoError(t, err)

	frames := drain(ch)
	require.Len(t, frames, 1)
	assert.Equal(t, delivery.TypeLive, frames[0].Type)
	assert.Equal(t, id, frames[0].ID)
	assert.Equal(t, "New grade posted", frames[0].Message)
	assert.False(t, frames[0].CreatedAt.IsZero())
}

func TestEngine_Subscribe_ReplaysMissed(t *testing.T) {
	t.Parallel()

	engine := newEngine(t, 3)
	ctx := context.Background()

	// Publish while the recipient has no connection at all.
	firstID, err := engine.Publish(ctx, "s2", "while you were away")
	require.NoError(t, err)
	secondID, err := engine.Publish(ctx, "s2", "and another")
	require.NoError(t, err)

	ch := newChannel("s2")
	replay, err := engine.Subscribe(ctx, "s2", ch)
	require.NoError(t, err)

	require.Len(t, replay, 3)
	assert.Equal(t, delivery.TypeConnected, replay[0].Type)
	assert.Equal(t, delivery.TypeMissed, replay[1].Type)
	assert.Equal(t, firstID, replay[1].ID)
	assert.Equal(t, delivery.TypeMissed, replay[2].Type)
	assert.Equal(t, secondID, replay[2].ID)
}

func TestEngine_Subscribe_ReplayExceedsChannelBuffer(t *testing.T) {
	t.Parallel()

	engine := newEngine(t, 3)
	ctx := context.Background()

	// Far more missed notifications than the channel queue can hold; the
	// replay prologue bypasses the queue, so nothing may be lost.
	const published = 40
	ids := make([]string, 0, published)
	for i := 0; i < published; i++ {
		id, err := engine.Publish(ctx, "s2", fmt.Sprintf("missed %d", i))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	ch := registry.NewChannel[delivery.Envelope]("s2", 32)
	replay, err := engine.Subscribe(ctx, "s2", ch)
	require.NoError(t, err)

	require.Len(t, replay, published+1)
	assert.Equal(t, delivery.TypeConnected, replay[0].Type)
	for i, id := range ids {
		assert.Equal(t, delivery.TypeMissed, replay[i+1].Type)
		assert.Equal(t, id, replay[i+1].ID)
	}

	// Every replayed frame reaches the transport, so the sent counter must
	// match exactly; no dropped frame may inflate it.
	assert.EqualValues(t, published, engine.Counters().NotificationsSent.Load())
}

func TestEngine_Subscribe_InvalidRecipient(t *testing.T) {
	t.Parallel()

	engine := newEngine(t, 3)
	_, err := engine.Subscribe(context.Background(), "", newChannel(""))
	assert.ErrorIs(t, err, delivery.ErrInvalidArgument)
}

// failingStorage returns an error from MissedSince to exercise the engine's
// rollback path.
type failingStorage struct {
	notifier.Storage
	readErr error
}

func (s *failingStorage) MissedSince(ctx context.Context, recipientID string) ([]notifier.Notification, error) {
	return nil, s.readErr
}

func TestEngine_Subscribe_StorageFailureRollsBack(t *testing.T) {
	t.Parallel()

	readErr := errors.New("backing store unavailable")
	store := &failingStorage{Storage: notifier.NewMemoryStorage(time.Minute), readErr: readErr}
	reg := registry.New[delivery.Envelope](3)
	engine := delivery.NewEngine(store, reg, metrics.New())

	ch := newChannel("r")
	_, err := engine.Subscribe(context.Background(), "r", ch)
	require.ErrorIs(t, err, readErr)

	// The failed subscription must leave no registration or counter behind.
	assert.Equal(t, 0, reg.Len("r"))
	assert.Equal(t, 0, reg.Recipients())
	assert.EqualValues(t, 0, engine.Counters().ConnectionsActive.Load())
}

func TestEngine_AtLeastOnceDelivery(t *testing.T) {
	t.Parallel()

	// Race one publish against one subscribe repeatedly; the subscriber must
	// see the message at least once in every interleaving. Duplicates are
	// legal, zero deliveries are not.
	for i := 0; i < 50; i++ {
		engine := newEngine(t, 3)
		ctx := context.Background()
		ch := newChannel("r")

		published := make(chan string, 1)
		go func() {
			id, err := engine.Publish(ctx, "r", "racy")
			if err != nil {
				published <- ""
				return
			}
			published <- id
		}()

		replay, err := engine.Subscribe(ctx, "r", ch)
		require.NoError(t, err)
		id := <-published
		require.NotEmpty(t, id)

		seen := 0
		for _, env := range append(replay, drain(ch)...) {
			if env.ID == id {
				seen++
			}
		}
		if seen == 0 {
			// The publish may have landed after the replay snapshot; then it
			// must have arrived as a live push, which drain already captured
			// because Publish returned before we drained.
			t.Fatalf("iteration %d: notification delivered zero times", i)
		}
	}
}

func TestEngine_PublishBatch(t *testing.T) {
	t.Parallel()

	t.Run("empty batch", func(t *testing.T) {
		t.Parallel()

		engine := newEngine(t, 3)
		_, err := engine.PublishBatch(context.Background(), nil)
		assert.ErrorIs(t, err, delivery.ErrEmptyBatch)
	})

	t.Run("skips invalid entries", func(t *testing.T) {
		t.Parallel()

		engine := newEngine(t, 3)
		accepted, err := engine.PublishBatch(context.Background(), []delivery.PublishRequest{
			{RecipientID: "s3", Message: "for s3"},
			{RecipientID: "", Message: "no recipient"},
			{RecipientID: "s4", Message: ""},
			{RecipientID: "s4", Message: "for s4"},
		})
		require.NoError(t, err)
		require.Len(t, accepted, 2)
		assert.Equal(t, "s3", accepted[0].RecipientID)
		assert.Equal(t, "s4", accepted[1].RecipientID)
	})

	t.Run("fan-out stays per recipient", func(t *testing.T) {
		t.Parallel()

		engine := newEngine(t, 3)
		ctx := context.Background()

		chS3 := newChannel("s3")
		chS4 := newChannel("s4")
		_, err := engine.Subscribe(ctx, "s3", chS3)
		require.NoError(t, err)
		_, err = engine.Subscribe(ctx, "s4", chS4)
		require.NoError(t, err)

		_, err = engine.PublishBatch(ctx, []delivery.PublishRequest{
			{RecipientID: "s3", Message: "for s3"},
			{RecipientID: "s4", Message: "for s4"},
		})
		require.NoError(t, err)

		for ch, want := range map[*registry.Channel[delivery.Envelope]]string{chS3: "for s3", chS4: "for s4"} {
			var lives []delivery.Envelope
			for _, env := range drain(ch) {
				if env.Type == delivery.TypeLive {
					lives = append(lives, env)
				}
			}
			require.Len(t, lives, 1)
			assert.Equal(t, want, lives[0].Message)
		}
	})
}

func TestEngine_Disconnect_Idempotent(t *testing.T) {
	t.Parallel()

	engine := newEngine(t, 3)
	ctx := context.Background()

	ch := newChannel("r")
	_, err := engine.Subscribe(ctx, "r", ch)
	require.NoError(t, err)
	require.EqualValues(t, 1, engine.Counters().ConnectionsActive.Load())

	engine.Disconnect(ctx, "r", ch)
	engine.Disconnect(ctx, "r", ch)

	assert.EqualValues(t, 0, engine.Counters().ConnectionsActive.Load())
	assert.EqualValues(t, 1, engine.Counters().ConnectionsOpened.Load())
}

func TestEngine_Eviction_Counters(t *testing.T) {
	t.Parallel()

	engine := newEngine(t, 1)
	ctx := context.Background()

	first := newChannel("r")
	_, err := engine.Subscribe(ctx, "r", first)
	require.NoError(t, err)
	second := newChannel("r")
	_, err = engine.Subscribe(ctx, "r", second)
	require.NoError(t, err)

	// The evicted channel's close signal ends its transport loop, whose
	// Disconnect is a no-op; active must track the single survivor.
	engine.Disconnect(ctx, "r", first)

	counters := engine.Counters()
	assert.EqualValues(t, 2, counters.ConnectionsOpened.Load())
	assert.EqualValues(t, 1, counters.ConnectionsActive.Load())
	assert.EqualValues(t, 1, counters.ChannelsEvicted.Load())
	assert.Equal(t, 1, engine.Registry().Len("r"))
}

func TestEngine_DeliveryCounters(t *testing.T) {
	t.Parallel()

	engine := newEngine(t, 3)
	ctx := context.Background()

	ch := newChannel("r")
	_, err := engine.Subscribe(ctx, "r", ch)
	require.NoError(t, err)

	_, err = engine.Publish(ctx, "r", "one")
	require.NoError(t, err)
	_, err = engine.Publish(ctx, "nobody-connected", "two")
	require.NoError(t, err)

	counters := engine.Counters()
	assert.EqualValues(t, 2, counters.NotificationsStored.Load())
	assert.EqualValues(t, 1, counters.NotificationsSent.Load())
}
