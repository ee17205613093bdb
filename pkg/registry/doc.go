// Package registry tracks live delivery channels per recipient and enforces
// a bounded fan-out with an oldest-connection-loses eviction policy.
//
// The package uses Go generics so the payload type is fixed at compile time:
//
//	reg := registry.New[string](3)
//	ch := registry.NewChannel[string]("recipient-1", 32)
//
//	if evicted := reg.Register("recipient-1", ch); evicted != nil {
//		// the oldest channel was closed to make room
//	}
//
//	reg.Broadcast("recipient-1", "hello")
//
//	for msg := range ch.Receive() {
//		fmt.Println(msg)
//	}
//
// Sends are non-blocking: each channel carries a bounded queue that drops its
// oldest pending payload on overflow, so a stalled consumer never delays a
// broadcast. Cleanup is cooperative: closing a channel signals Done, and the
// consumer is expected to call Unregister, which is idempotent.
package registry
