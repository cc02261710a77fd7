// HTTP server initialization and lifecycle management.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/akhawaja/medassist/internal/api"
	"github.com/akhawaja/medassist/internal/infra/config"
)

const (
	defaultReadTimeout = 15 * time.Second
	defaultIdleTimeout = 60 * time.Second

	// Worst case a request sits through the model caller's full retry
	// schedule, so the write timeout must outlast it.
	defaultWriteTimeout = 10 * time.Minute
)

// Server wraps the HTTP server and database.
type Server struct {
	db   *sql.DB
	http *http.Server
}

// NewServer creates an HTTP server with routing built from cfg.
func NewServer(db *sql.DB, cfg config.Config) (*Server, error) {
	router, err := api.NewRouter(db, cfg)
	if err != nil {
		return nil, err
	}

	return &Server{
		db: db,
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router,
			ReadTimeout:  defaultReadTimeout,
			WriteTimeout: defaultWriteTimeout,
			IdleTimeout:  defaultIdleTimeout,
		},
	}, nil
}

// Start starts the HTTP server and blocks until an error occurs.
func (s *Server) Start() error {
	fmt.Printf("Starting HTTP server on %s\n", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server and closes the database.
func (s *Server) Shutdown(ctx context.Context) error {
	fmt.Println("Shutting down server...")

	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("database close error: %w", err)
	}

	fmt.Println("Server shutdown complete")
	return nil
}
