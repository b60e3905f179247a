// Package server constructs and starts the Parley gateway HTTP service with
// helpers that apply sensible production defaults.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"
)

// CreateServer creates and configures an HTTP server with the specified
// address and handler. It sets reasonable timeout values for production use.
// WebSocket upgrades opt out of the read/write timeouts via hijacking.
func CreateServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:        addr,
		Handler:     handler,
		IdleTimeout: 60 * time.Second,
	}
}

// StartServer starts the gateway HTTP server and blocks until it exits.
func StartServer(server *http.Server) error {
	fmt.Printf("Gateway listening on %s\n", server.Addr)
	return server.ListenAndServe()
}

// ShutdownServer gracefully shuts down the gateway HTTP server. It waits for
// active connections to close or until the timeout is reached.
func ShutdownServer(server *http.Server, timeout time.Duration) error {
	log.Println("Shutting down gateway...")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Gateway shutdown error: %v", err)
		return err
	}

	log.Println("Gateway shutdown completed")
	return nil
}
