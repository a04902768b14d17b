// Package ingest consumes device messages from MQTT and applies them.
//
// Status messages upsert the device registry; per-field sensor messages
// merge into readings. Handlers validate and enqueue onto a bounded
// worker pool so the broker's delivery loop is never blocked by store
// access. Invalid, malformed and unknown-device messages are dropped
// and counted; store failures are retried with exponential backoff
// before the message is given up on.
package ingest
