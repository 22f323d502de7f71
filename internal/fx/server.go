package fx

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"

	"github.com/amityadav/refiner/internal/config"
	"github.com/amityadav/refiner/internal/server"
	"github.com/amityadav/refiner/internal/store"
	"github.com/amityadav/refiner/internal/worker"
	"go.uber.org/fx"
)

// ServerModule provides the HTTP server and starts it with the worker
var ServerModule = fx.Module("server",
	fx.Provide(NewHTTPServer),
	fx.Invoke(
		StartServer,
		StartWorker,
	),
)

// NewHTTPServer creates the article API server
func NewHTTPServer(cfg config.Config, st store.Store, w *worker.Worker) *http.Server {
	srv := server.NewHTTPServer(cfg, server.Services{Store: st, Trigger: w})
	log.Printf("[FX] HTTP Server created")
	return srv
}

// StartServer starts the HTTP server with lifecycle management
func StartServer(lc fx.Lifecycle, srv *http.Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			lis, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}

			go func() {
				log.Printf("[FX] HTTP Server listening on %s", srv.Addr)
				if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Printf("[FX] HTTP Server error: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Printf("[FX] Shutting down HTTP server...")
			return srv.Shutdown(ctx)
		},
	})
}

// StartWorker starts the scheduled enrichment worker
func StartWorker(lc fx.Lifecycle, w *worker.Worker) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return w.Start()
		},
		OnStop: func(ctx context.Context) error {
			w.Stop()
			return nil
		},
	})
}
