// Package httpserver runs an http.Handler until its context is cancelled,
// then shuts it down gracefully.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/yuribarsotti/agentlab/logging"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 10 * time.Second

// Serve listens on addr and serves h until ctx is done.
func Serve(ctx context.Context, addr string, h http.Handler, logger logging.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	return ServeListener(ctx, ln, h, logger)
}

// ServeListener serves h on ln until ctx is done.
func ServeListener(ctx context.Context, ln net.Listener, h http.Handler, logger logging.Logger) error {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("http.serve.start", "addr", ln.Addr().String())

	errCh := make(chan error, 1)

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("http.serve.shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}

		return nil
	case err, ok := <-errCh:
		if !ok {
			return nil
		}

		return fmt.Errorf("http server: %w", err)
	}
}
