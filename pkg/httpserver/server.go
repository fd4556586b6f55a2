package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrymomot/behaviortrace/pkg/logger"
)

// Server wraps http.Server with graceful shutdown and logging.
type Server struct {
	opts *options

	mu      sync.Mutex
	running bool
	addr    net.Addr
	ready   chan struct{}
}

// New returns a configured Server.
func New(opts ...Option) *Server {
	o := &options{
		addr:            ":8080",
		shutdownTimeout: 10 * time.Second,
		srv:             &http.Server{ReadHeaderTimeout: 5 * time.Second},
		log:             logger.Noop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return &Server{opts: o, ready: make(chan struct{})}
}

// Run serves handler until ctx is cancelled, the process receives SIGINT or
// SIGTERM, or serving fails. Shutdown is graceful within the configured
// timeout.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	if handler == nil {
		handler = http.NotFoundHandler()
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()

	ln := s.opts.listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", s.opts.addr)
		if err != nil {
			return errors.Join(ErrStart, err)
		}
	}

	srv := s.opts.srv
	srv.Handler = handler
	baseCtx := context.WithoutCancel(ctx)
	srv.BaseContext = func(net.Listener) context.Context { return baseCtx }

	s.mu.Lock()
	s.addr = ln.Addr()
	close(s.ready)
	s.mu.Unlock()

	log := s.opts.log
	log.Info("http server started", logger.Component("httpserver"), "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Join(ErrStart, err)
		}
		return nil
	case <-sigCtx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Join(ErrShutdown, err)
	}
	<-errCh
	log.Info("http server stopped", logger.Component("httpserver"))
	return nil
}

// Addr blocks until the server is listening and returns its address.
func (s *Server) Addr(ctx context.Context) (net.Addr, error) {
	select {
	case <-s.ready:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.addr, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
