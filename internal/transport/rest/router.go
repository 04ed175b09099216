// Package rest exposes the collection, saved-topic, and report registries
// over HTTP for the SPA.
package rest

import "net/http"

// NewRouter wires the REST routes using Go 1.22 method patterns.
func NewRouter(health *HealthHandler, collections *CollectionHandler, topics *TopicHandler, reports *ReportHandler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", health.Health)
	mux.HandleFunc("GET /live", health.Live)
	mux.HandleFunc("GET /ready", health.Ready)

	mux.HandleFunc("GET /api/collections", collections.List)
	mux.HandleFunc("POST /api/collections", collections.Create)
	mux.HandleFunc("GET /api/collections/{id}", collections.Get)
	mux.HandleFunc("PATCH /api/collections/{id}", collections.Update)
	mux.HandleFunc("DELETE /api/collections/{id}", collections.Delete)

	mux.HandleFunc("GET /api/saved_topics", topics.List)
	mux.HandleFunc("POST /api/saved_topics", topics.Create)
	mux.HandleFunc("PATCH /api/saved_topics/{id}", topics.Update)
	mux.HandleFunc("DELETE /api/saved_topics/{id}", topics.Delete)

	mux.HandleFunc("GET /api/reports", reports.List)
	mux.HandleFunc("GET /api/reports/{id}", reports.Get)
	mux.HandleFunc("GET /api/reports/{id}/html", reports.HTML)
	mux.HandleFunc("DELETE /api/reports/{id}", reports.Delete)

	return mux
}
