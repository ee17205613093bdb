// Package delivery ties the notification store and the connection registry
// together into the publish/subscribe engine.
//
// The ordering contract is the heart of the package: Publish appends to the
// store before broadcasting, and Subscribe registers the channel before
// reading the missed-history snapshot. Together these guarantee that a
// notification published concurrently with a subscription reaches the new
// channel at least once, as a live push, a missed replay, or both. Duplicates
// are possible and expected; consumers de-duplicate by notification id.
//
//	engine := delivery.NewEngine(store, reg, counters, delivery.WithLogger(log))
//
//	ch := registry.NewChannel[delivery.Envelope]("recipient-1", 32)
//	replay, _ := engine.Subscribe(ctx, "recipient-1", ch)
//	for _, env := range replay {
//		// write the connected marker and missed history to the transport
//		_ = env
//	}
//
//	id, _ := engine.Publish(ctx, "recipient-1", "hello")
//	_ = id
//
// Slow or failing channels never block or fail a publish; their cleanup is
// driven entirely by their own close signal through Disconnect.
package delivery
