package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/amityadav/refiner/internal/config"
	"github.com/amityadav/refiner/internal/store"
)

// Trigger starts an enrichment run in the background. TryRun reports false
// when a run is already in progress.
type Trigger interface {
	TryRun() bool
}

// Services holds what the HTTP API needs
type Services struct {
	Store   store.Store
	Trigger Trigger
}

// NewHTTPServer builds the API server listening on cfg.Port
func NewHTTPServer(cfg config.Config, services Services) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           NewRouter(services, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
