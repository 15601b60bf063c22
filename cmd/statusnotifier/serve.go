package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hamed0406/statusnotifier/internal/httpapi"
	apimw "github.com/hamed0406/statusnotifier/internal/httpapi/middleware"
	"github.com/hamed0406/statusnotifier/internal/repo/memory"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve live status, the last snapshot and metrics over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := flags.load()
			if addr != "" {
				cfg.Addr = addr
			}
			log, err := openLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a := wire(ctx, cfg, log)
			defer a.Close()
			if a.store == nil {
				mem := memory.New()
				a.store = mem
				a.runner.Snapshots = mem
			}

			api := httpapi.NewServer(log, a.runner, a.runner, a.store, a.metrics.Registry)
			api.TrustedProxies = cfg.TrustedProxies
			keys := apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}
			srv := &http.Server{
				Addr:              cfg.Addr,
				Handler:           api.Router(keys, cfg.AllowedOrigins, cfg.PublicRPM, cfg.PublicBurst, cfg.AdminRPM, cfg.AdminBurst),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				log.Info("api_listen", zap.String("addr", cfg.Addr))
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			log.Info("api_shutdown")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides API_ADDR)")
	return cmd
}
