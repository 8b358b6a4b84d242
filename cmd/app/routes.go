package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"fxchain/internal/api"
	"fxchain/internal/api/middleware"
	"fxchain/internal/service"
)

const monitoringPath = "/monitoring"

func (app *App) initHTTP(ratesService service.RatesServiceInterface) {
	r := chi.NewRouter()
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RequestLoggingMiddleware(app.logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/rates", api.HandleGetRates(ratesService))
	r.Post("/rates/refresh", api.HandleRequestRefresh(ratesService))
	r.Delete("/rates/cache", api.HandleClearCache(ratesService))
	r.Get("/healthz", api.HandleHealthz())
	r.Get("/readyz", api.HandleReadyz(app.db, app.rdbCache, app.rdbAsynq))
	r.Handle("/metrics", api.MetricsHandler(app.registry))

	if app.cfg.Server.ServeSwagger {
		r.Get("/swagger/*", api.SwaggerUIHandler())
		r.Get("/openapi.json", api.OpenAPISpecHandler())
	}

	if app.cfg.Server.ServeAsynqmon {
		mon := api.MonitoringHandler(app.cfg.Redis.AsynqAddr, monitoringPath)
		r.Handle(monitoringPath+"/*", mon)
		app.closeHTTP = mon.Close
	}

	app.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
