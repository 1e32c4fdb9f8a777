package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/syntaxis/syntaxis/am"
	"github.com/syntaxis/syntaxis/errors"
	"github.com/syntaxis/syntaxis/logger"
)

// ServerState tracks the server lifecycle.
type ServerState int32

const (
	ServerStateIdle ServerState = iota
	ServerStateRunning
	ServerStateDraining
	ServerStateStopped
)

func (s *Server) getState() ServerState {
	return ServerState(s.state.Load())
}

func (s *Server) setState(newState ServerState) {
	s.state.Store(int32(newState))
}

// WatchConfig reloads generation settings whenever path changes.
func (s *Server) WatchConfig(path string) error {
	cw, err := am.NewConfigWatcher(path, s.logger)
	if err != nil {
		return err
	}
	cw.OnReload(func(cfg *am.Config) error {
		s.ApplyConfig(cfg)
		return nil
	})
	cw.Start()

	s.mu.Lock()
	s.configWatcher = cw
	s.mu.Unlock()
	s.logger.Infow("Watching config for changes", logger.FieldFile, path)
	return nil
}

// Start listens on port and serves until Stop is called.
func (s *Server) Start(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return errors.Wrapf(err, "failed to listen on port %d", port)
	}
	return s.Serve(ln)
}

// Serve serves on ln until Stop is called. It returns nil after a clean
// shutdown.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return s.ctx },
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()
	s.setState(ServerStateRunning)

	s.logger.Infow("Server ready", logger.FieldAddress, ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server error")
	}
	return nil
}

// Stop gracefully shuts down the server and cleans up resources
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Infow("Initiating server shutdown")
	s.setState(ServerStateDraining)

	s.mu.Lock()
	srv, cw := s.httpServer, s.configWatcher
	s.mu.Unlock()

	if cw != nil {
		if err := cw.Stop(); err != nil {
			s.logger.Warnw("Config watcher stop failed", logger.FieldError, err)
		}
	}

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}
	s.cancel()
	s.setState(ServerStateStopped)
	s.logger.Infow("Server stopped")
	return errors.Wrap(err, "shutdown")
}
