package registry

import (
	"hash/fnv"
	"sync"
)

const defaultShardCount = 16

// Registry tracks the live channels of every recipient and enforces a
// per-recipient fan-out bound. State is sharded by recipient id so unrelated
// recipients never contend on the same lock.
type Registry[T any] struct {
	shards          []*shard[T]
	maxPerRecipient int
}

// shard holds the channel lists for a subset of recipients. The per-recipient
// slice is append-ordered: index 0 is always the oldest registered channel.
type shard[T any] struct {
	recipients map[string][]*Channel[T]
	mu         sync.RWMutex
}

// New creates a registry that allows at most maxPerRecipient concurrent
// channels per recipient. A minimum of 1 is enforced.
func New[T any](maxPerRecipient int) *Registry[T] {
	shards := make([]*shard[T], defaultShardCount)
	for i := range shards {
		shards[i] = &shard[T]{recipients: make(map[string][]*Channel[T])}
	}
	return &Registry[T]{
		shards:          shards,
		maxPerRecipient: max(maxPerRecipient, 1),
	}
}

func (r *Registry[T]) shard(recipientID string) *shard[T] {
	h := fnv.New32a()
	_, _ = h.Write([]byte(recipientID))
	return r.shards[h.Sum32()%uint32(len(r.shards))]
}

// Register adds a channel to the recipient's live set. When the set is
// already at the fan-out bound, the oldest-registered channel is removed and
// closed to make room: the newest connection wins. Returns the evicted
// channel, or nil when no eviction was needed.
//
// The evicted channel's close signal drives the transport's own disconnect
// path; the resulting Unregister call is a no-op because the channel is
// removed here.
func (r *Registry[T]) Register(recipientID string, ch *Channel[T]) *Channel[T] {
	sh := r.shard(recipientID)

	sh.mu.Lock()
	list := sh.recipients[recipientID]
	var evicted *Channel[T]
	if len(list) >= r.maxPerRecipient {
		evicted = list[0]
		list = list[1:]
	}
	sh.recipients[recipientID] = append(list, ch)
	sh.mu.Unlock()

	// Close outside the shard lock: Close wakes the evicted channel's
	// consumer, which may call back into Unregister.
	if evicted != nil {
		_ = evicted.Close()
	}
	return evicted
}

// Unregister removes the channel from the recipient's live set if it is still
// present and reports whether a removal occurred. Calling it again for the
// same channel is a no-op. The recipient key is deleted once its set becomes
// empty.
func (r *Registry[T]) Unregister(recipientID string, ch *Channel[T]) bool {
	sh := r.shard(recipientID)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	list, ok := sh.recipients[recipientID]
	if !ok {
		return false
	}
	for i, c := range list {
		if c == ch {
			list = append(list[:i], list[i+1:]...)
			if len(list) == 0 {
				delete(sh.recipients, recipientID)
			} else {
				sh.recipients[recipientID] = list
			}
			return true
		}
	}
	return false
}

// Broadcast attempts to deliver the payload to every live channel of the
// recipient and returns the number of successful sends. A failed send on one
// channel never aborts delivery to the others and never unregisters the
// channel; cleanup is driven solely by the channel's own close signal.
// Returns 0 when the recipient has no live channels.
func (r *Registry[T]) Broadcast(recipientID string, payload T) int {
	sh := r.shard(recipientID)

	sh.mu.RLock()
	list := sh.recipients[recipientID]
	channels := make([]*Channel[T], len(list))
	copy(channels, list)
	sh.mu.RUnlock()

	sent := 0
	for _, ch := range channels {
		if ch.Send(payload) {
			sent++
		}
	}
	return sent
}

// Len returns the number of live channels registered for the recipient.
func (r *Registry[T]) Len(recipientID string) int {
	sh := r.shard(recipientID)

	sh.mu.RLock()
	defer sh.mu.RUnlock()
	return len(sh.recipients[recipientID])
}

// Recipients returns the number of distinct recipients with at least one live
// channel.
func (r *Registry[T]) Recipients() int {
	total := 0
	for _, sh := range r.shards {
		sh.mu.RLock()
		total += len(sh.recipients)
		sh.mu.RUnlock()
	}
	return total
}
