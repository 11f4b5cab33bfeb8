package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/loadexport/internal/api"
	"github.com/ginjaninja78/loadexport/internal/logger"
)

// serveCmd serves the export operations over HTTP until interrupted.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the export operations over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, ctx, err := setup(cmd)
		if err != nil {
			return err
		}
		log := logger.FromContext(ctx)

		a, err := newApp(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := &http.Server{
			Addr:        cfg.HTTP.Address,
			Handler:     api.NewRouter(a.service, *log),
			ReadTimeout: 10 * time.Second,
			// Remote resolution alone may take the full remote timeout.
			WriteTimeout: cfg.Source.RemoteTimeout + 30*time.Second,
			BaseContext:  func(net.Listener) context.Context { return ctx },
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().Str("addr", cfg.HTTP.Address).Msg("starting server")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		log.Info().Msg("shutting down...")
		ctxShut, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShut()

		if err := srv.Shutdown(ctxShut); err != nil {
			return err
		}
		log.Info().Msg("server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
