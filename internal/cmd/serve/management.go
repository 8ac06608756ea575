package serve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/empathai/chat-service/internal/config"
)

// startManagementServer starts a dedicated plain-HTTP server for management
// endpoints (health, metrics). Returns the bound address and a shutdown
// function.
func startManagementServer(cfg config.ListenerConfig, handler http.Handler) (net.Addr, func(context.Context) error, error) {
	if cfg.ReadHeaderTimeout == 0 {
		cfg.ReadHeaderTimeout = 5 * time.Second
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return nil, nil, fmt.Errorf("management listen failed: %w", err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Management server failed", "err", err)
		}
	}()

	var closeOnce sync.Once
	closeFn := func(ctx context.Context) error {
		var shutdownErr error
		closeOnce.Do(func() {
			if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
				shutdownErr = err
			}
			_ = lis.Close()
		})
		return shutdownErr
	}

	log.Info("Management server listening", "addr", lis.Addr())
	return lis.Addr(), closeFn, nil
}
