package delivery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pushfeed/pushfeed/pkg/logger"
	"github.com/pushfeed/pushfeed/pkg/metrics"
	"github.com/pushfeed/pushfeed/pkg/notifier"
	"github.com/pushfeed/pushfeed/pkg/registry"
)

// Engine orchestrates publishing and subscription: it persists notifications
// to the store, fans them out over the registry, and replays buffered history
// to reconnecting channels.
type Engine struct {
	storage  notifier.Storage
	registry *registry.Registry[Envelope]
	counters *metrics.Counters
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger for the Engine.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates a delivery engine over the given store and registry.
func NewEngine(storage notifier.Storage, reg *registry.Registry[Envelope], counters *metrics.Counters, opts ...Option) *Engine {
	if counters == nil {
		counters = metrics.New()
	}

	e := &Engine{
		storage:  storage,
		registry: reg,
		counters: counters,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PublishRequest is one entry of a batch publish.
type PublishRequest struct {
	RecipientID string `json:"recipientId"`
	Message     string `json:"message"`
}

// Accepted identifies a notification created by a batch publish.
type Accepted struct {
	ID          string `json:"id"`
	RecipientID string `json:"recipientId"`
}

// Publish stores a new notification and pushes it to every live channel of
// the recipient, returning the notification id.
//
// The store append happens strictly before the broadcast. A subscriber racing
// with this call therefore sees the notification at least once: through the
// live push, through the missed-replay snapshot, or both. Consumers
// de-duplicate by id.
func (e *Engine) Publish(ctx context.Context, recipientID, message string) (string, error) {
	if recipientID == "" {
		return "", fmt.Errorf("%w: recipientId is required", ErrInvalidArgument)
	}
	if message == "" {
		return "", fmt.Errorf("%w: message is required", ErrInvalidArgument)
	}

	notif := notifier.New(recipientID, message)
	if err := e.storage.Append(ctx, notif); err != nil {
		return "", fmt.Errorf("failed to store notification: %w", err)
	}
	e.counters.NotificationsStored.Add(1)

	sent := e.registry.Broadcast(recipientID, envelope(TypeLive, notif))
	e.counters.NotificationsSent.Add(int64(sent))

	e.logger.LogAttrs(ctx, slog.LevelDebug, "notification published",
		logger.NotificationID(notif.ID),
		logger.RecipientID(recipientID),
		slog.Int("delivered", sent),
	)
	return notif.ID, nil
}

// PublishBatch applies Publish to every entry independently. Entries failing
// validation are skipped rather than failing the batch; only an empty batch
// is an error. Returns the accepted ids paired with their recipients.
func (e *Engine) PublishBatch(ctx context.Context, reqs []PublishRequest) ([]Accepted, error) {
	if len(reqs) == 0 {
		return nil, ErrEmptyBatch
	}

	accepted := make([]Accepted, 0, len(reqs))
	for _, req := range reqs {
		id, err := e.Publish(ctx, req.RecipientID, req.Message)
		if err != nil {
			e.logger.LogAttrs(ctx, slog.LevelWarn, "skipping invalid batch entry",
				logger.RecipientID(req.RecipientID),
				logger.Error(err),
			)
			continue
		}
		accepted = append(accepted, Accepted{ID: id, RecipientID: req.RecipientID})
	}
	return accepted, nil
}

// Subscribe registers the channel for live delivery and returns the replay
// prologue the transport must write before draining the channel: one
// connected marker followed by the recipient's buffered history, oldest
// first. The prologue bypasses the channel's bounded queue entirely, so a
// history longer than the queue is never truncated.
//
// Registration happens strictly before the history snapshot is read. A
// notification published in between may arrive twice (replay and live push)
// but never zero times; that at-least-once contract is what consumers rely
// on.
//
// On a snapshot read failure the registration is rolled back before the
// error is returned; the caller owns the channel again and no counter is
// left dangling.
func (e *Engine) Subscribe(ctx context.Context, recipientID string, ch *registry.Channel[Envelope]) ([]Envelope, error) {
	if recipientID == "" {
		return nil, fmt.Errorf("%w: recipientId is required", ErrInvalidArgument)
	}

	evicted := e.registry.Register(recipientID, ch)
	e.counters.ConnectionsOpened.Add(1)
	e.counters.ConnectionsActive.Add(1)
	if evicted != nil {
		// The evicted channel left the registry inside Register; its close
		// signal ends the transport loop, whose Disconnect becomes a no-op.
		e.counters.ConnectionsActive.Add(-1)
		e.counters.ChannelsEvicted.Add(1)
		e.logger.LogAttrs(ctx, slog.LevelInfo, "evicted oldest channel",
			logger.RecipientID(recipientID),
			logger.ChannelID(evicted.ID()),
		)
	}

	missed, err := e.storage.MissedSince(ctx, recipientID)
	if err != nil {
		if e.registry.Unregister(recipientID, ch) {
			e.counters.ConnectionsActive.Add(-1)
		}
		return nil, fmt.Errorf("failed to read missed notifications: %w", err)
	}

	replay := make([]Envelope, 0, len(missed)+1)
	replay = append(replay, Envelope{Type: TypeConnected})
	for _, notif := range missed {
		replay = append(replay, envelope(TypeMissed, notif))
	}
	e.counters.NotificationsSent.Add(int64(len(missed)))

	e.logger.LogAttrs(ctx, slog.LevelDebug, "channel subscribed",
		logger.RecipientID(recipientID),
		logger.ChannelID(ch.ID()),
		slog.Int("replayed", len(missed)),
	)
	return replay, nil
}

// Disconnect removes the channel from the registry and closes it. Repeated
// calls for the same channel are no-ops and never double-decrement the
// active-connection counter.
func (e *Engine) Disconnect(ctx context.Context, recipientID string, ch *registry.Channel[Envelope]) {
	if e.registry.Unregister(recipientID, ch) {
		e.counters.ConnectionsActive.Add(-1)
		e.logger.LogAttrs(ctx, slog.LevelDebug, "channel disconnected",
			logger.RecipientID(recipientID),
			logger.ChannelID(ch.ID()),
		)
	}
	_ = ch.Close()
}

// Counters returns the engine's delivery counters.
func (e *Engine) Counters() *metrics.Counters { return e.counters }

// Registry returns the underlying connection registry.
func (e *Engine) Registry() *registry.Registry[Envelope] { return e.registry }

// Storage returns the underlying notification storage.
func (e *Engine) Storage() notifier.Storage { return e.storage }
