package archive

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/aquasense/aquasense-core/internal/infrastructure/logging"
	"github.com/aquasense/aquasense-core/internal/reading"
)

// Write pacing for the background drain loop.
const (
	writeTimeout   = 5 * time.Second
	breakerTimeout = 30 * time.Second
)

// TelemetryWriter is the sink the archiver drains into.
// Satisfied by influxdb.Client.
type TelemetryWriter interface {
	WriteTelemetry(ctx context.Context, deviceID string, fields map[string]float64, ts time.Time) error
}

// entry is one queued reading snapshot.
type entry struct {
	deviceID string
	fields   map[string]float64
	ts       time.Time
}

// Archiver mirrors merged readings into a time-series sink without ever
// blocking ingestion.
//
// Record enqueues onto a bounded buffer and drops when it is full. A
// single background goroutine drains the buffer through a circuit
// breaker; while the breaker is open, entries are skipped instead of
// piling up behind a dead sink. The archive is strictly best-effort,
// SQLite remains the source of truth.
type Archiver struct {
	writer  TelemetryWriter
	logger  *logging.Logger
	breaker *gobreaker.CircuitBreaker
	queue   chan entry

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates an archiver and starts its drain goroutine.
// bufferSize caps the number of queued readings; breakerThresh is the
// number of consecutive write failures that opens the breaker.
func New(writer TelemetryWriter, bufferSize, breakerThresh int, logger *logging.Logger) *Archiver {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	if breakerThresh <= 0 {
		breakerThresh = 5
	}

	a := &Archiver{
		writer: writer,
		logger: logger,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "influx-archive",
			Timeout: breakerTimeout,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= uint32(breakerThresh) //nolint:gosec // validated positive above
			},
		}),
		queue: make(chan entry, bufferSize),
		done:  make(chan struct{}),
	}

	a.wg.Add(1)
	go a.run()
	return a
}

// Record enqueues a reading for archival. Never blocks; when the buffer
// is full the reading is dropped.
func (a *Archiver) Record(r reading.Reading) {
	e := entry{
		deviceID: r.DeviceID,
		fields:   make(map[string]float64, len(r.Values)),
		ts:       r.Timestamp,
	}
	for f, v := range r.Values {
		e.fields[f.String()] = v
	}

	select {
	case a.queue <- e:
	default:
		a.logger.Debug("archive buffer full, reading dropped",
			"device_id", r.DeviceID, "ts", r.Timestamp)
	}
}

// Close stops the drain goroutine after flushing whatever is queued.
func (a *Archiver) Close() {
	a.closeOnce.Do(func() {
		close(a.done)
	})
	a.wg.Wait()
}

func (a *Archiver) run() {
	defer a.wg.Done()
	for {
		select {
		case e := <-a.queue:
			a.write(e)
		case <-a.done:
			// Drain what is already queued, then exit.
			for {
				select {
				case e := <-a.queue:
					a.write(e)
				default:
					return
				}
			}
		}
	}
}

// write pushes one entry through the breaker. Failures are logged and
// counted by the breaker; an open breaker skips the sink entirely.
func (a *Archiver) write(e entry) {
	_, err := a.breaker.Execute(func() (any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		return nil, a.writer.WriteTelemetry(ctx, e.deviceID, e.fields, e.ts)
	})
	switch {
	case err == nil:
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		a.logger.Debug("archive write skipped, breaker open", "device_id", e.deviceID)
	default:
		a.logger.Warn("archive write failed", "device_id", e.deviceID, "error", err)
	}
}
