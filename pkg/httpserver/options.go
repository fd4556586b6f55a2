package httpserver

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dmitrymomot/behaviortrace/pkg/logger"
)

type options struct {
	addr            string
	listener        net.Listener
	shutdownTimeout time.Duration
	srv             *http.Server
	log             *slog.Logger
}

// Option configures the HTTP server.
type Option func(*options)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	if addr == "" {
		panic("WithAddr: addr cannot be empty")
	}
	return func(o *options) { o.addr = addr }
}

// WithListener serves on an existing listener instead of dialing addr.
func WithListener(l net.Listener) Option {
	if l == nil {
		panic("WithListener: nil listener")
	}
	return func(o *options) { o.listener = l }
}

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("WithShutdownTimeout: duration must be > 0")
	}
	return func(o *options) { o.shutdownTimeout = d }
}

// WithLogger sets the server logger. Nil means discard.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = logger.OrNoop(l) }
}
