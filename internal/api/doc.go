// Package api exposes the engine over HTTP.
//
// The surface is deliberately thin: handlers translate requests into
// registry and query calls and serialize the results. There is no
// authentication here; the service sits behind a gateway that owns it.
package api
