// Package notify pushes change markers to dashboard clients over
// WebSocket. The only event is "data changed"; clients react by
// re-querying, so frames carry no payload and missed deliveries are
// harmless.
package notify
