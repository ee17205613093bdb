package notifier

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"
)

var (
	// ErrMissingID is returned when a notification without an id is appended.
	ErrMissingID = errors.New("notifier: notification id is required")
	// ErrMissingRecipient is returned when a notification without a recipient is appended.
	ErrMissingRecipient = errors.New("notifier: recipient id is required")
)

const defaultShardCount = 16

// MemoryStorage is an in-memory Storage implementation. Histories are sharded
// by recipient id with one lock per shard, so publishes, replays, and prune
// passes for unrelated recipients proceed without contending.
//
// Growth between prune passes is bounded only by the retention window, not by
// a per-recipient count cap.
type MemoryStorage struct {
	shards    []*storageShard
	retention time.Duration
}

type storageShard struct {
	histories map[string][]Notification // recipientID -> oldest first
	mu        sync.RWMutex
}

// NewMemoryStorage creates an in-memory store that retains notifications for
// the given window. Entries older than the window are removed by Prune.
func NewMemoryStorage(retention time.Duration) *MemoryStorage {
	shards := make([]*storageShard, defaultShardCount)
	for i := range shards {
		shards[i] = &storageShard{histories: make(map[string][]Notification)}
	}
	return &MemoryStorage{shards: shards, retention: retention}
}

func (s *MemoryStorage) shard(recipientID string) *storageShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(recipientID))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

func (s *MemoryStorage) Append(ctx context.Context, notif Notification) error {
	if notif.ID == "" {
		return ErrMissingID
	}
	if notif.RecipientID == "" {
		return ErrMissingRecipient
	}
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = time.Now()
	}

	sh := s.shard(notif.RecipientID)
	sh.mu.Lock()
	sh.histories[notif.RecipientID] = append(sh.histories[notif.RecipientID], notif)
	sh.mu.Unlock()
	return nil
}

func (s *MemoryStorage) MissedSince(ctx context.Context, recipientID string) ([]Notification, error) {
	sh := s.shard(recipientID)

	sh.mu.RLock()
	defer sh.mu.RUnlock()

	history, ok := sh.histories[recipientID]
	if !ok {
		return []Notification{}, nil
	}

	// Copy so callers never observe later appends through the shared slice.
	snapshot := make([]Notification, len(history))
	copy(snapshot, history)
	return snapshot, nil
}

func (s *MemoryStorage) Prune(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.retention)
	removed := 0

	for _, sh := range s.shards {
		sh.mu.Lock()
		for recipientID, history := range sh.histories {
			// Histories are insertion-ordered, so expired entries form a
			// prefix and the first fresh entry ends the scan.
			keep := 0
			for keep < len(history) && history[keep].CreatedAt.Before(cutoff) {
				keep++
			}
			if keep == 0 {
				continue
			}
			removed += keep
			if keep == len(history) {
				delete(sh.histories, recipientID)
				continue
			}
			sh.histories[recipientID] = append([]Notification(nil), history[keep:]...)
		}
		sh.mu.Unlock()
	}

	return removed, nil
}
