package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/parley-chat/parley/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so deferred cleanup always executes before the
// process exits.
func run() error {
	// Configuration: optional .env file, then environment variables.
	_ = godotenv.Load()
	cfg, err := server.NewConfigFromEnv()
	if err != nil {
		return err
	}
	server.SetConfig(cfg)

	registry := server.NewRegistry()
	srv := server.NewServer(registry)

	// A bind failure is fatal by design.
	if err := srv.Listen(cfg.Addr); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 2)

	go func() {
		// An accept failure outside of shutdown is fatal as well.
		if err := srv.Serve(); err != nil {
			errChan <- err
		}
	}()

	gateway := server.CreateServer(cfg.GatewayAddr, server.SetupRoutes(srv))
	if cfg.GatewayAddr != "" {
		go func() {
			if err := server.StartServer(gateway); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("gateway: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		fmt.Println("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	if cfg.GatewayAddr != "" {
		_ = server.ShutdownServer(gateway, cfg.ShutdownTimeout)
	}
	return srv.Shutdown(cfg.ShutdownTimeout)
}
