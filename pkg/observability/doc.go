// Package observability carries the bin's operational surface: Prometheus
// collectors for the planning and rebuild paths, and an HTTP introspection
// handler exposing the committed plan. Nothing here opens sockets; the
// embedder mounts the handler wherever it serves HTTP.
package observability
