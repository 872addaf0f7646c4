package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/julienschmidt/httprouter"

	"darshan/internal/darshans/handler"
	"darshan/pkg/config"
	"darshan/pkg/contracts"
	"darshan/pkg/middleware"
)

type Application struct {
	cfg           *config.Config
	server        *http.Server
	healthHandler http.Handler
	publicHandler http.Handler
	ownerHandler  http.Handler
	ownerPrefixes []string
}

func NewApplication(cfg *config.Config) *Application {
	return &Application{cfg: cfg}
}

// SetApp wires two route groups: public endpoints (catalog and
// availability reads) and owner endpoints, which additionally require
// the caller identity header.
func (a *Application) SetApp(public contracts.Handler, owner contracts.Handler, ownerPrefixes ...string) {
	a.ownerPrefixes = ownerPrefixes
	a.setHealthHandler()
	a.setPublicHandler(public)
	a.setOwnerHandler(owner)
	a.setAppServer()
}

func (a *Application) setHealthHandler() {
	healthRouter := httprouter.New()
	healthHandler := handler.NewHealthHandler(a.cfg.Client.Mongo.Client, a.cfg.Log)
	healthHandler.RegisterRoutes(healthRouter)

	var healthHTTPHandler http.Handler = healthRouter
	healthHTTPHandler = middleware.RequestLogging(a.cfg.Log)(healthHTTPHandler)
	healthHTTPHandler = middleware.Recovery(a.cfg.Log)(healthHTTPHandler)
	a.healthHandler = healthHTTPHandler
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

func (a *Application) setPublicHandler(h contracts.Handler) {
	router := httprouter.New()
	h.RegisterRoutes(router)
	a.publicHandler = a.chain(router, false)
	a.cfg.Log.Info("Public endpoints configured")
}

func (a *Application) setOwnerHandler(h contracts.Handler) {
	router := httprouter.New()
	h.RegisterRoutes(router)
	a.ownerHandler = a.chain(router, true)
	a.cfg.Log.Info("Owner endpoints configured with identity enforcement")
}

func (a *Application) chain(router http.Handler, requireIdentity bool) http.Handler {
	h := router
	h = middleware.RequestTimeout(a.cfg.RequestTimeout)(h)
	if requireIdentity {
		h = middleware.Identity(a.cfg.Log)(h)
	}
	h = middleware.ContentTypeValidation(a.cfg.Log)(h)
	h = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(h)
	h = middleware.RequestLogging(a.cfg.Log)(h)
	h = middleware.Recovery(a.cfg.Log)(h)
	return h
}

func (a *Application) setAppServer() {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	for _, prefix := range a.ownerPrefixes {
		mux.Handle(prefix, a.ownerHandler)
		mux.Handle(prefix+"/", a.ownerHandler)
	}
	mux.Handle("/", a.publicHandler)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Run() {
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		a.cfg.Log.Fatal("HTTP server failed", "error", err)

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Fatal("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.Log.Info("Server stopped gracefully")
}
