// Package telemetry defines the wire format shared by the browser-side tracker
// and the ingestion service.
//
// A Batch is one flush of the tracker: the session it belongs to, the typed
// event arrays collected since the previous flush, a device Fingerprint and a
// few page-level fields. All timestamps are integer epoch milliseconds.
//
// KeyEvent intentionally carries only timing, modifier flags and the key
// location code. Key identity and content are never part of the format.
package telemetry
