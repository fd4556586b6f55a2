// Package redis connects to Redis with go-redis, retrying until the server
// answers PING, and exposes a readiness check.
package redis
