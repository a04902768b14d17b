// Package metrics defines the service's Prometheus collectors. Each
// process owns one Metrics value on a private registry, exposed at
// /metrics by the API server.
package metrics
