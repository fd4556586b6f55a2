// Package tracker implements the client side of behavioral telemetry: it
// collects a device fingerprint once, buffers mouse, click, scroll, key and
// page view events in bounded queues, and periodically flushes them to the
// ingestion endpoint.
//
// A Tracker is an explicit object with an injected clock, transport and
// session storage, so timers and the network can be simulated in tests:
//
//	endpoint := "https://t.example.com/api/collect-behavior"
//	beacon := tracker.NewHTTPBeacon(endpoint)
//	tx, _ := tracker.NewTransmitter(beacon, tracker.NewKeepAliveSender(endpoint, nil), log)
//	t, err := tracker.New(tx, tracker.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	t.Start()
//	defer t.Unload()
//
// # Delivery
//
// Delivery is best effort and at most once per flush (see BestEffortAtMostOnce).
// After every attempt the queues are trimmed to their post-flush floors even
// when the send failed, so a failed flush loses the events it carried.
//
// # Concurrency
//
// Event methods may be called from any goroutine. One mutex guards the buffer
// and serializes flushes around the snapshot and trim steps.
package tracker
