package http_om

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ServerOption is a configuration option used when constructing a Server
type ServerOption func(s *Server) error

// IdleTimeout sets the server's IdleTimeout.
func IdleTimeout(t time.Duration) ServerOption {
	return func(s *Server) error {
		s.Server.IdleTimeout = t
		return nil
	}
}

// ReadTimeout sets the server's ReadTimeout.
func ReadTimeout(t time.Duration) ServerOption {
	return func(s *Server) error {
		s.Server.ReadTimeout = t
		return nil
	}
}

// WriteTimeout sets the server's WriteTimeout.
func WriteTimeout(t time.Duration) ServerOption {
	return func(s *Server) error {
		s.Server.WriteTimeout = t
		return nil
	}
}

// TLS configures the server certs.
func TLS(certContents, keyContents []byte) ServerOption {
	return func(s *Server) error {
		cert, err := tls.X509KeyPair(certContents, keyContents)
		if err != nil {
			return fmt.Errorf("error generating X509KeyPair - %w", err)
		}
		s.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
		return nil
	}
}

// NewServer constructs a new web server with zero or more server options.
// The resulting server supports graceful shutdown, i.e. the server will wait
// until existing connections complete or time out before shutting down.
func NewServer(listen string, handler http.Handler, options ...ServerOption) (*Server, error) {
	s := &Server{
		Server: &http.Server{
			Addr:           listen,
			Handler:        handler,
			MaxHeaderBytes: 1 << 20,
		},
		log:   zap.L(),
		close: make(chan bool, 1),
		done:  make(chan bool, 1),
	}
	for i := range options {
		if err := options[i](s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Server supports graceful exits and multiple servers per application (i.e.
// listen to multiple ports).
type Server struct {
	*http.Server
	log      *zap.Logger
	// listener is bound by Start so callers learn the real address.
	listener net.Listener
	// close triggers a graceful shutdown of the server.
	close    chan bool
	// done indicates the server has completed shutting down.
	done     chan bool
}

// Close the server. Will try to gracefully shutdown, but if the server takes
// longer than 5 seconds to stop, forcibly shuts it down.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}

// Start binds the listen address and serves in the background until Stop is
// called. When a "close" message is received, the server will shutdown
// gracefully and send a message to the "done" channel once it has stopped.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s - %w", s.Addr, err)
	}
	s.listener = ln

	// Wait for a "close" message in the background to stop the server.
	go func() {
		<-s.close
		if err := s.Close(); err != nil {
			s.log.Error("failed to shutdown http server", zap.Error(err))
		}
	}()

	go func() {
		var err error
		if s.TLSConfig != nil {
			err = s.ServeTLS(ln, "", "")
		} else {
			err = s.Serve(ln)
		}
		if !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server stopped unexpectedly", zap.Error(err))
			s.Stop()
		}
		s.done <- true
	}()

	s.log.Info("http server listening", zap.String("addr", ln.Addr().String()), zap.String("protocol", s.Protocol()))

	return nil
}

// ListenAddr returns the bound address once Start has returned.
func (s *Server) ListenAddr() string {
	if s.listener == nil {
		return s.Addr
	}
	return s.listener.Addr().String()
}

// Stop the HTTP server gracefully. This function sends a message to the server
// to stop, and will return immediately. Call Wait() to wait for the server to
// shutdown.
func (s *Server) Stop() {
	select {
	case s.close <- true:
	default:
	}
}

// Wait for the server to shutdown. This call will block, so do any prep
// work before calling this function.
func (s *Server) Wait() {
	<-s.done
}

// Protocol returns the protocol supported by this server (http or https).
func (s *Server) Protocol() string {
	if s.Server.TLSConfig != nil {
		return "https"
	}
	return "http"
}
