package influxdb

import (
	"context"
	"fmt"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteTelemetry writes one merged reading as a point in the telemetry
// measurement, tagged by device id, with one field per measurement value.
//
// The write blocks until acknowledged or failed; callers decide how to
// buffer and when to stop trying.
func (c *Client) WriteTelemetry(ctx context.Context, deviceID string, fields map[string]float64, ts time.Time) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	if len(fields) == 0 {
		return nil
	}

	values := make(map[string]interface{}, len(fields))
	for name, v := range fields {
		values[name] = v
	}

	point := write.NewPoint(
		"telemetry",
		map[string]string{"device_id": deviceID},
		values,
		ts,
	)

	if err := c.writeAPI.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}
