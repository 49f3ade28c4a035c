// Package metrics owns the Prometheus collectors exported by the coreview
// server on GET /metrics.
//
// Every collector is registered on a private registry so that tests and
// multiple servers in one process never collide on the global default.
// All recording methods are safe to call on a nil *Metrics.
package metrics
