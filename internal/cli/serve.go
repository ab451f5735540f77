package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tradejournal/internal/adapters/httpapi"
	"tradejournal/internal/adapters/logger"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(cmd, opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, rt)
		},
	}
}

func serve(ctx context.Context, rt *runtime) error {
	if rt.cfg.LogLevel > logger.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	handler, err := httpapi.NewServer(httpapi.Config{
		Ledger:   rt.ledger,
		Journal:  rt.journal,
		Resolver: rt.resolver,
		Logger:   rt.logger,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: rt.cfg.Addr(), Handler: handler}
	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info(ctx, "HTTP server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		rt.logger.Info(context.Background(), "Received shutdown signal, draining requests")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	rt.logger.Info(context.Background(), "HTTP server stopped")
	return nil
}
