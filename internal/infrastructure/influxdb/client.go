package influxdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// Default timeouts for InfluxDB operations.
const (
	defaultConnectTimeout = 10 * time.Second
	defaultPingTimeout    = 5 * time.Second
)

// Config holds the connection settings for the archive bucket.
type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Client wraps the InfluxDB v2 client for the reading archive.
//
// Writes go through the blocking API: the archive pipeline owns its own
// buffering and circuit breaking, and needs synchronous errors to drive
// the breaker.
//
// Thread Safety: all methods are safe for concurrent use.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking

	connected bool
	mu        sync.RWMutex
}

// Connect creates the client and verifies connectivity with a ping.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	healthy, err := client.Ping(pingCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	return &Client{
		client:    client,
		writeAPI:  client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		connected: true,
	}, nil
}

// Close shuts down the underlying client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}

	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	c.client.Close()
	return nil
}

// HealthCheck verifies the InfluxDB connection is alive.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	checkCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	healthy, err := c.client.Ping(checkCtx)
	if err != nil {
		return fmt.Errorf("influxdb health check failed: %w", err)
	}
	if !healthy {
		return fmt.Errorf("influxdb health check failed: server not healthy")
	}
	return nil
}

// IsConnected returns the last known connection state.
// For reliability use HealthCheck, which performs an active ping.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
