// Package mqtt provides the MQTT transport for AquaSense Core.
//
// It wraps paho.mqtt.golang with:
//   - Connection management and automatic reconnection
//   - Subscription tracking with restore-on-reconnect
//   - Last Will and Testament so subscribers can detect a crashed core
//   - Panic recovery around message handlers
//   - Topic builders and parsers for the AquaSense topic scheme
//
// Delivery semantics are the broker's: at-least-once with no ordering
// guarantee across topics. The ingest layer is written against exactly
// that contract.
package mqtt
