package api

import (
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/hibiken/asynqmon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// SwaggerUIHandler returns a handler for Swagger UI
func SwaggerUIHandler() http.HandlerFunc {
	return httpSwagger.WrapHandler
}

// OpenAPISpecHandler returns a handler that redirects to the swagger spec JSON
func OpenAPISpecHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/doc.json", http.StatusTemporaryRedirect)
	}
}

// MetricsHandler exposes the instruments registered on gatherer.
func MetricsHandler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// MonitoringHandler serves the Asynq queue dashboard under rootPath.
func MonitoringHandler(redisAddr, rootPath string) *asynqmon.HTTPHandler {
	return asynqmon.New(asynqmon.Options{
		RootPath:     rootPath,
		RedisConnOpt: asynq.RedisClientOpt{Addr: redisAddr},
	})
}
