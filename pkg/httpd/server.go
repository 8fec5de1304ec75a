// Package httpd runs the HTTP listener with graceful shutdown.
package httpd

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

const (
	defaultReadTimeout     = 30 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultShutdownTimeout = 15 * time.Second
)

// Option for the server
type Option func(*defaultServer)

// HandlesRequestsWith handles the http requests to the server
func HandlesRequestsWith(h http.Handler) Option {
	return func(s *defaultServer) {
		s.handler = h
	}
}

// ListensOn sets the listen address (host:port)
func ListensOn(addr string) Option {
	return func(s *defaultServer) {
		s.addr = addr
	}
}

// LogsWith provides a logger to the server
func LogsWith(l Logging) Option {
	return func(s *defaultServer) {
		s.logger = l
	}
}

// WithTimeouts overrides the read and write timeouts
func WithTimeouts(read, write time.Duration) Option {
	return func(s *defaultServer) {
		s.readTimeout = read
		s.writeTimeout = write
	}
}

// OnShutdown runs the provided functions once all listeners have shut down
func OnShutdown(handlers ...func()) Option {
	return func(s *defaultServer) {
		if len(handlers) == 0 {
			return
		}
		s.onShutdown = func() {
			for _, run := range handlers {
				run()
			}
		}
	}
}

// Server is the interface a server implements
type Server interface {
	Addr() string
	Listen() error
	Serve() error
	Shutdown() error
}

// New creates a server but does not start listening
func New(opts ...Option) Server {
	s := &defaultServer{
		addr:         "localhost:8080",
		readTimeout:  defaultReadTimeout,
		writeTimeout: defaultWriteTimeout,
		shutdown:     make(chan struct{}),
		interrupt:    make(chan os.Signal, 1),
		logger:       &stdLogger{},
		onShutdown:   func() {},
	}
	for _, apply := range opts {
		apply(s)
	}
	return s
}

type defaultServer struct {
	addr         string
	readTimeout  time.Duration
	writeTimeout time.Duration

	listener     net.Listener
	handler      http.Handler
	shutdown     chan struct{}
	shuttingDown int32
	interrupt    chan os.Signal
	logger       Logging
	onShutdown   func()
}

// Addr reports the bound listen address, useful with port 0.
func (s *defaultServer) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Listen binds the TCP listener
func (s *defaultServer) Listen() error {
	if s.listener != nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener
	return nil
}

// Serve blocks serving requests until Shutdown is called or a
// SIGINT/SIGTERM is received.
func (s *defaultServer) Serve() error {
	if err := s.Listen(); err != nil {
		return err
	}

	signal.Notify(s.interrupt, syscall.SIGINT, syscall.SIGTERM)
	go s.handleInterrupt()

	hsrv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go s.handleShutdown(&wg, hsrv)

	s.logger.Printf("Serving at http://%s", s.listener.Addr())
	if err := hsrv.Serve(s.listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	wg.Wait()
	s.logger.Printf("Stopped serving at http://%s", s.listener.Addr())
	return nil
}

// Shutdown stops the server and cleans up resources
func (s *defaultServer) Shutdown() error {
	if atomic.CompareAndSwapInt32(&s.shuttingDown, 0, 1) {
		close(s.shutdown)
	}
	return nil
}

func (s *defaultServer) handleShutdown(wg *sync.WaitGroup, hsrv *http.Server) {
	defer wg.Done()
	<-s.shutdown

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := hsrv.Shutdown(ctx); err != nil {
		s.logger.Printf("HTTP server Shutdown: %v", err)
		return
	}
	s.onShutdown()
}

func (s *defaultServer) handleInterrupt() {
	for range s.interrupt {
		s.logger.Printf("Shutting down... ")
		if err := s.Shutdown(); err != nil {
			s.logger.Printf("[WARN] error during server shutdown: %v", err)
		}
		return
	}
}

// Logging the logger interface for the server
type Logging interface {
	Printf(string, ...interface{})
	Fatalf(string, ...interface{})
}

type stdLogger struct{}

func (s *stdLogger) Printf(format string, args ...interface{}) {
	log.Printf(format, args...)
}

func (s *stdLogger) Fatalf(format string, args ...interface{}) {
	log.Fatalf(format, args...)
}
