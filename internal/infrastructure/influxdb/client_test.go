package influxdb_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aquasense/aquasense-core/internal/infrastructure/influxdb"
)

// testConfig returns a configuration for the local dev InfluxDB.
// These values match docker-compose.yml.
func testConfig() influxdb.Config {
	return influxdb.Config{
		URL:    "http://127.0.0.1:8086",
		Token:  "aquasense-dev-token",
		Org:    "aquasense",
		Bucket: "telemetry",
	}
}

// skipIfNoInfluxDB skips the test if InfluxDB is not running.
func skipIfNoInfluxDB(t *testing.T) *influxdb.Client {
	t.Helper()

	client, err := influxdb.Connect(context.Background(), testConfig())
	if err != nil {
		t.Skip("InfluxDB not available, skipping integration test")
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestConnect(t *testing.T) {
	client := skipIfNoInfluxDB(t)

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}
}

func TestConnect_InvalidURL(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:59999" // Non-existent port

	_, err := influxdb.Connect(context.Background(), cfg)
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestHealthCheck(t *testing.T) {
	client := skipIfNoInfluxDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestWriteTelemetry(t *testing.T) {
	client := skipIfNoInfluxDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.WriteTelemetry(ctx, "test-device-001", map[string]float64{
		"temperature": 21.5,
		"ph":          7.1,
	}, time.Now())
	if err != nil {
		t.Errorf("WriteTelemetry() error = %v", err)
	}
}

func TestWriteTelemetry_NoFields(t *testing.T) {
	client := skipIfNoInfluxDB(t)

	// A reading with no values is a no-op, not an error.
	if err := client.WriteTelemetry(context.Background(), "test-device-001", nil, time.Now()); err != nil {
		t.Errorf("WriteTelemetry() error = %v", err)
	}
}

func TestClose(t *testing.T) {
	client := skipIfNoInfluxDB(t)

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}

	err := client.WriteTelemetry(context.Background(), "d", map[string]float64{"ph": 7}, time.Now())
	if !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("write after close error = %v, want ErrNotConnected", err)
	}
}
