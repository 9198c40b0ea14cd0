// Package middleware provides the HTTP middleware of the texdb API server:
// per-request access logging and Prometheus request metrics labelled by mux
// route template.
package middleware
