// Package ratelimit implements a fixed-window request limiter with in-memory
// and Redis backed counters, plus chi compatible HTTP middleware that sets
// X-RateLimit-* headers.
//
// Limiting fails open: when the store errors the request is let through.
package ratelimit
